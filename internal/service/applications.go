package service

import (
	"context"
	"log/slog"
	"strings"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/logging"
	"haul/internal/redis"
)

// ApplicationService submits and lists the driver's load applications.
type ApplicationService struct {
	backend ApplicationBackend
	cache   redis.LoadCacheInterface
	log     *slog.Logger
}

// NewApplicationService creates a new ApplicationService. cache may be nil.
func NewApplicationService(backend ApplicationBackend, cache redis.LoadCacheInterface, log *slog.Logger) *ApplicationService {
	return &ApplicationService{backend: backend, cache: cache, log: log}
}

// Apply submits an application for a load. Rejections, duplicates
// included, are returned with the backend's message.
func (s *ApplicationService) Apply(ctx context.Context, loadID string) (*domain.Application, error) {
	loadID = strings.TrimSpace(loadID)
	if loadID == "" {
		return nil, ErrInvalidLoadID
	}

	app, err := s.backend.Apply(ctx, api.ApplyRequest{LoadID: loadID, Role: domain.RoleDriver})
	if err != nil {
		return nil, err
	}

	// The cached detail still lists the old applications.
	if s.cache != nil {
		if err := s.cache.InvalidateLoad(ctx, loadID); err != nil {
			logging.Warn(ctx, s.log, "application_apply", "failed to invalidate load cache", err, "load_id", loadID)
		}
	}

	logging.Info(ctx, s.log, "application_apply", "application submitted", "load_id", loadID, "application_id", app.ID)
	return app, nil
}

// ListMine returns every application of the driver.
func (s *ApplicationService) ListMine(ctx context.Context) ([]domain.Application, error) {
	return s.backend.MyApplications(ctx)
}

// ListAccepted returns the applications the shipper accepted.
func (s *ApplicationService) ListAccepted(ctx context.Context) ([]domain.Application, error) {
	return s.filter(ctx, func(a domain.Application) bool {
		return a.Status == domain.ApplicationStatusAccepted
	})
}

// History returns the applications whose load has been delivered.
func (s *ApplicationService) History(ctx context.Context) ([]domain.Application, error) {
	return s.filter(ctx, func(a domain.Application) bool {
		return a.Load != nil && a.Load.Status == domain.LoadStatusCompleted
	})
}

// HasApplied reports whether the driver already applied for a load.
func (s *ApplicationService) HasApplied(ctx context.Context, loadID string) (bool, error) {
	apps, err := s.filter(ctx, func(a domain.Application) bool {
		return a.LoadID == loadID || (a.Load != nil && a.Load.ID == loadID)
	})
	if err != nil {
		return false, err
	}
	return len(apps) > 0, nil
}

func (s *ApplicationService) filter(ctx context.Context, keep func(domain.Application) bool) ([]domain.Application, error) {
	apps, err := s.backend.MyApplications(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Application, 0, len(apps))
	for _, a := range apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
