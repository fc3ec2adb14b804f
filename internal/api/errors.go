package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is matched by responses with status 401; the session has expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is matched by responses with status 404.
	ErrNotFound = errors.New("not found")

	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("network error")
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return e.Message
}

// Is lets errors.Is match status-derived sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsValidation reports whether the backend rejected the request's content.
func (e *Error) IsValidation() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusUnauthorized && e.Status != http.StatusNotFound
}

// MessageOf returns the backend-supplied message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
