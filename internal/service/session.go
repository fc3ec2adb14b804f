package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/logging"
	"haul/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// registerRole is the role sent when a driver creates an account.
const registerRole = "driver"

// SessionService owns the signed-in identity. All mutation goes through
// SignIn, SignOut and UpdateProfile.
type SessionService struct {
	backend AuthBackend
	store   repository.Storage
	log     *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	user      *domain.User
	listeners []func(*domain.User)
}

// NewSessionService creates a new SessionService.
func NewSessionService(backend AuthBackend, store repository.Storage, log *slog.Logger) *SessionService {
	return &SessionService{
		backend: backend,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// OnChange registers fn to be called after sign-in, sign-out and profile
// updates with the new identity (nil when signed out).
func (s *SessionService) OnChange(fn func(*domain.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load restores the persisted user. Failures leave the session signed out.
func (s *SessionService) Load(ctx context.Context) {
	raw, err := s.store.Get(ctx, repository.KeyUser)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Error(ctx, s.log, "session_load", "failed to read persisted user", err)
		}
		return
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logging.Error(ctx, s.log, "session_load", "failed to parse persisted user", err)
		return
	}

	s.setUser(&user)
	logging.Info(ctx, s.log, "session_load", "session restored", "user_id", user.ID)
}

// SignIn authenticates with the backend. Only drivers may sign in; any other
// role leaves no credentials behind.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.backend.Login(ctx, api.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrMissingToken
	}

	if !resp.User.IsDriver() {
		s.clearCredentials(ctx)
		s.setUser(nil)
		logging.Info(ctx, s.log, "session_sign_in", "rejected non-driver account", "role", resp.User.Role)
		return nil, ErrRoleNotAllowed
	}

	if err := s.persist(ctx, resp); err != nil {
		s.clearCredentials(ctx)
		return nil, err
	}

	user := resp.User
	s.setUser(&user)
	logging.Info(ctx, s.log, "session_sign_in", "signed in", "user_id", user.ID)
	return &user, nil
}

func (s *SessionService) persist(ctx context.Context, resp *api.AuthResponse) error {
	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.store.Set(ctx, repository.KeyToken, resp.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if resp.RefreshToken != "" {
		if err := s.store.Set(ctx, repository.KeyRefreshToken, resp.RefreshToken); err != nil {
			return fmt.Errorf("persist refresh token: %w", err)
		}
	} else if err := s.store.Delete(ctx, repository.KeyRefreshToken); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	if err := s.store.Set(ctx, repository.KeyUser, string(userJSON)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// SignOut removes every persisted credential and clears the identity.
// Storage failures are logged; the identity is cleared regardless.
func (s *SessionService) SignOut(ctx context.Context) {
	s.clearCredentials(ctx)
	s.setUser(nil)
	logging.Info(ctx, s.log, "session_sign_out", "signed out")
}

func (s *SessionService) clearCredentials(ctx context.Context) {
	if err := s.store.Delete(ctx, repository.KeyToken, repository.KeyRefreshToken, repository.KeyUser); err != nil {
		logging.Error(ctx, s.log, "session_clear", "failed to clear credentials", err)
	}
}

// UpdateProfile changes the driver's profile. Name and phone are required.
func (s *SessionService) UpdateProfile(ctx context.Context, name, email, phone string) (*domain.User, error) {
	name, email, phone = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone)
	if name == "" {
		return nil, ErrNameRequired
	}
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if s.Current() == nil {
		return nil, ErrNotAuthenticated
	}

	user, err := s.backend.UpdateProfile(ctx, api.ProfileUpdate{Name: name, Email: email, Phone: phone})
	if err != nil {
		return nil, err
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, repository.KeyUser, string(userJSON)); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}

	s.setUser(user)
	logging.Info(ctx, s.log, "session_update_profile", "profile updated", "user_id", user.ID)
	return user, nil
}

// RegisterForm is the input of the driver sign-up form.
type RegisterForm struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the form before any network call.
func (f RegisterForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(f.Phone) == "" {
		return ErrPhoneRequired
	}
	if email := strings.TrimSpace(f.Email); email != "" && !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(f.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// Register creates a driver account. The driver signs in afterwards.
func (s *SessionService) Register(ctx context.Context, form RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	err := s.backend.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(form.Name),
		Phone:    strings.TrimSpace(form.Phone),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		Role:     registerRole,
	})
	if err != nil {
		return err
	}

	logging.Info(ctx, s.log, "session_register", "account registered")
	return nil
}

// Current returns a copy of the signed-in user, or nil.
func (s *SessionService) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a usable access token is persisted.
// Tokens that are JWTs carrying an expiry must not be expired; opaque
// tokens count as usable.
func (s *SessionService) IsAuthenticated(ctx context.Context) bool {
	token, err := s.AccessToken(ctx)
	if err != nil || token == "" {
		return false
	}
	return !tokenExpired(token, s.now())
}

// AccessToken returns the persisted access token, or "" when signed out.
func (s *SessionService) AccessToken(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, repository.KeyToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func (s *SessionService) setUser(user *domain.User) {
	s.mu.Lock()
	s.user = user
	listeners := append([]func(*domain.User){}, s.listeners...)
	s.mu.Unlock()

	var snapshot *domain.User
	if user != nil {
		u := *user
		snapshot = &u
	}
	for _, fn := range listeners {
		fn(snapshot)
	}
}

var (
	_ api.TokenSource = (*SessionService)(nil)
)
