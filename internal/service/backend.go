package service

import (
	"context"
	"encoding/json"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/realtime"
)

// AuthBackend is the slice of the REST client used by SessionService.
type AuthBackend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	UpdateProfile(ctx context.Context, req api.ProfileUpdate) (*domain.User, error)
}

// LoadBackend is the slice of the REST client used by LoadService.
type LoadBackend interface {
	ListLoads(ctx context.Context, page, limit int) (*domain.LoadPage, error)
	GetLoad(ctx context.Context, id string) (*domain.Load, error)
}

// ApplicationBackend is the slice of the REST client used by ApplicationService.
type ApplicationBackend interface {
	Apply(ctx context.Context, req api.ApplyRequest) (*domain.Application, error)
	MyApplications(ctx context.Context) ([]domain.Application, error)
}

// JourneyBackend is the slice of the REST client used by JourneyService.
type JourneyBackend interface {
	GetLoad(ctx context.Context, id string) (*domain.Load, error)
	ActiveJourney(ctx context.Context, loadID string) (*domain.Journey, error)
	StartJourney(ctx context.Context, loadID string) (*domain.Journey, error)
	StopJourney(ctx context.Context, journeyID string) (*domain.Journey, error)
	SendLocation(ctx context.Context, journeyID string, sample domain.LocationSample) error
}

// MessageBackend is the slice of the REST client used by ConversationService.
type MessageBackend interface {
	Conversation(ctx context.Context, userID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, receiverID, content string) (*domain.Message, error)
}

// ReviewBackend is the slice of the REST client used by ReviewService.
type ReviewBackend interface {
	UserReviews(ctx context.Context, userID string) ([]domain.Review, error)
}

// VerificationBackend is the slice of the REST client used by VerificationService.
type VerificationBackend interface {
	SubmitVerification(ctx context.Context, uploads []api.Upload) error
}

// Channel is the realtime surface consumed by services.
type Channel interface {
	Emit(event realtime.Event, data any) error
	On(event realtime.Event, h realtime.Handler) func()
	Mode() realtime.Mode
	OnModeChange(fn func(realtime.Mode)) func()
}

var (
	_ AuthBackend         = (*api.Client)(nil)
	_ LoadBackend         = (*api.Client)(nil)
	_ ApplicationBackend  = (*api.Client)(nil)
	_ JourneyBackend      = (*api.Client)(nil)
	_ MessageBackend      = (*api.Client)(nil)
	_ ReviewBackend       = (*api.Client)(nil)
	_ VerificationBackend = (*api.Client)(nil)
	_ Channel             = (*realtime.Client)(nil)
)

// decode unmarshals a realtime payload, reporting whether it was usable.
func decode(data json.RawMessage, v any) bool {
	return len(data) > 0 && json.Unmarshal(data, v) == nil
}
