package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"haul/internal/api"
	"haul/internal/location"
	"haul/internal/logging"
)

// AlertKind classifies a user-facing alert.
type AlertKind string

const (
	AlertSessionExpired AlertKind = "SESSION_EXPIRED"
	AlertValidation     AlertKind = "VALIDATION"
	AlertNetwork        AlertKind = "NETWORK"
	AlertPermission     AlertKind = "PERMISSION"
	AlertJourney        AlertKind = "JOURNEY"
	AlertGeneric        AlertKind = "ERROR"
)

const defaultAlertLimit = 50

// Alert is a message shown to the driver by the UI shell.
type Alert struct {
	ID        string         `json:"id"`
	Kind      AlertKind      `json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Blocking  bool           `json:"blocking"`
	Retryable bool           `json:"retryable"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AlertError is an error whose alert has already been raised.
type AlertError struct {
	Alert Alert
	Err   error
}

func (e *AlertError) Error() string { return e.Err.Error() }

func (e *AlertError) Unwrap() error { return e.Err }

// AlertService converts errors and lifecycle events into alerts and keeps the
// most recent ones for the UI shell to display.
type AlertService struct {
	log   *slog.Logger
	limit int
	now   func() time.Time

	mu     sync.Mutex
	recent []Alert
}

// NewAlertService creates a new AlertService keeping at most limit alerts.
func NewAlertService(log *slog.Logger, limit int) *AlertService {
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	return &AlertService{log: log, limit: limit, now: time.Now}
}

// FromError classifies err and raises the matching alert.
func (s *AlertService) FromError(ctx context.Context, action string, err error) Alert {
	var raised *AlertError
	if errors.As(err, &raised) {
		return raised.Alert
	}

	alert := Alert{Kind: AlertGeneric, Title: "Error", Message: "Something went wrong. Please try again."}

	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		alert.Kind = AlertSessionExpired
		alert.Title = "Session expired"
		alert.Message = "Please sign in again."
		alert.Blocking = true
	case errors.Is(err, ErrLocationPermissionDenied):
		alert.Kind = AlertPermission
		alert.Title = "Permission required"
		alert.Message = err.Error()
		alert.Blocking = true
	case errors.Is(err, ErrStopFailed):
		alert.Kind = AlertJourney
		alert.Title = "Journey"
		alert.Message = ErrStopFailed.Error()
		if msg := api.MessageOf(err, ""); msg != "" {
			alert.Message += ": " + msg
		}
		alert.Retryable = true
	case errors.Is(err, api.ErrTransport):
		alert.Kind = AlertNetwork
		alert.Title = "Network error"
		alert.Message = "Could not reach the server. Check your connection and try again."
		alert.Retryable = true
	case errors.As(err, &apiErr):
		if apiErr.IsValidation() {
			alert.Kind = AlertValidation
		}
		alert.Message = api.MessageOf(err, alert.Message)
		alert.Retryable = apiErr.Status >= 500
	case isValidationError(err):
		alert.Kind = AlertValidation
		alert.Message = err.Error()
	}

	if ctx.Err() == nil {
		logging.Warn(ctx, s.log, action, "alert raised", err, "kind", alert.Kind)
	}
	return s.push(alert)
}

// PermissionDenied raises an alert for a refused location permission.
// Background denials are informational and do not block.
func (s *AlertService) PermissionDenied(ctx context.Context, background bool) Alert {
	alert := Alert{
		Kind:     AlertPermission,
		Title:    "Location permission",
		Message:  ErrLocationPermissionDenied.Error(),
		Blocking: true,
	}
	if background {
		alert.Message = "Background location is off. Tracking continues only while the app is open."
		alert.Blocking = false
	}
	logging.Info(ctx, s.log, "permission_denied", alert.Message, "background", background)
	return s.push(alert)
}

// JourneyStarted announces that tracking began for a journey.
func (s *AlertService) JourneyStarted(ctx context.Context, journeyID string) Alert {
	logging.Info(ctx, s.log, "journey_started", "tracking started", "journey_id", journeyID)
	return s.push(Alert{
		Kind:    AlertJourney,
		Title:   "Journey started",
		Message: "Your location is being shared with the shipper.",
		Data:    map[string]any{"journeyId": journeyID},
	})
}

// JourneyEnded announces that a journey was completed.
func (s *AlertService) JourneyEnded(ctx context.Context, journeyID string) Alert {
	logging.Info(ctx, s.log, "journey_ended", "tracking ended", "journey_id", journeyID)
	return s.push(Alert{
		Kind:    AlertJourney,
		Title:   "Journey completed",
		Message: "Location sharing has stopped.",
		Data:    map[string]any{"journeyId": journeyID},
	})
}

// Recent returns the kept alerts, newest first.
func (s *AlertService) Recent() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, len(s.recent))
	for i, a := range s.recent {
		out[len(s.recent)-1-i] = a
	}
	return out
}

// Dismiss removes an alert. It reports whether the alert existed.
func (s *AlertService) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.recent {
		if a.ID == id {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			return true
		}
	}
	return false
}

func (s *AlertService) push(alert Alert) Alert {
	alert.ID = uuid.New().String()
	alert.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, alert)
	if over := len(s.recent) - s.limit; over > 0 {
		s.recent = append([]Alert(nil), s.recent[over:]...)
	}
	return alert
}

func isValidationError(err error) bool {
	for _, target := range []error{
		ErrNameRequired, ErrPhoneRequired, ErrInvalidEmail, ErrPasswordTooShort,
		ErrPasswordMismatch, ErrEmptyMessage, ErrRoleNotAllowed, ErrJourneyAlreadyActive,
		ErrNoActiveJourney, ErrUnsupportedLanguage, ErrInvalidDocumentType,
		ErrDocumentsIncomplete, ErrDocumentPathRequired, ErrInvalidLoadID, ErrInvalidUserID, location.ErrInvalidFix,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
