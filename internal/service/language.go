package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"haul/internal/logging"
	"haul/internal/repository"
)

const (
	// DefaultLanguage is used until the driver picks one.
	DefaultLanguage = "ru"

	// FallbackLanguage replaces a persisted code that is no longer supported.
	FallbackLanguage = "en"
)

// Language is a selectable UI language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "ru", Name: "Русский"},
	{Code: "kk", Name: "Қазақша"},
	{Code: "ky", Name: "Кыргызча"},
	{Code: "tg", Name: "Тоҷикӣ"},
	{Code: "tr", Name: "Türkçe"},
	{Code: "uz", Name: "Oʻzbekcha"},
}

// LanguageService persists the UI language preference.
type LanguageService struct {
	store repository.Storage
	log   *slog.Logger
}

// NewLanguageService creates a new LanguageService.
func NewLanguageService(store repository.Storage, log *slog.Logger) *LanguageService {
	return &LanguageService{store: store, log: log}
}

// Supported lists the selectable languages.
func (s *LanguageService) Supported() []Language {
	return append([]Language(nil), supportedLanguages...)
}

// Current returns the persisted language code.
func (s *LanguageService) Current(ctx context.Context) string {
	code, err := s.store.Get(ctx, repository.KeyLanguage)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Warn(ctx, s.log, "language_get", "failed to read language", err)
		}
		return DefaultLanguage
	}
	if !isSupportedLanguage(code) {
		return FallbackLanguage
	}
	return code
}

// Set persists a language code.
func (s *LanguageService) Set(ctx context.Context, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if !isSupportedLanguage(code) {
		return ErrUnsupportedLanguage
	}
	if err := s.store.Set(ctx, repository.KeyLanguage, code); err != nil {
		return err
	}
	logging.Info(ctx, s.log, "language_set", "language changed", "code", code)
	return nil
}

func isSupportedLanguage(code string) bool {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}
