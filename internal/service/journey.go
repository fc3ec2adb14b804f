package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"haul/internal/domain"
	"haul/internal/location"
	"haul/internal/logging"
	"haul/internal/realtime"
	"haul/internal/ticker"
)

// DefaultTrackingInterval is the time between two location samples.
const DefaultTrackingInterval = 10 * time.Second

const statusQueueSize = 16

// JourneySnapshot is the journey screen state.
type JourneySnapshot struct {
	Load        *domain.Load     `json:"load"`
	Journey     *domain.Journey  `json:"journey"`
	Tracking    bool             `json:"tracking"`
	Suspended   bool             `json:"suspended"`
	Position    *domain.Position `json:"position"`
	SamplesSent int64            `json:"samplesSent"`
}

// JourneyService drives the start/stop lifecycle of a journey and owns the
// location sampler while the journey is active.
//
// opMu serializes lifecycle operations and is held across backend calls.
// mu guards the screen state and is the only lock taken by sampler ticks,
// so it is never held while the sampler is stopped.
type JourneyService struct {
	backend  JourneyBackend
	provider location.Provider
	channel  Channel
	alerts   *AlertService
	log      *slog.Logger
	interval time.Duration

	sampler ticker.Task
	sent    atomic.Int64

	opMu        sync.Mutex
	unsubscribe func()

	mu        sync.Mutex
	load      *domain.Load
	journey   *domain.Journey
	position  *domain.Position
	suspended bool
}

// NewJourneyService creates a new JourneyService. channel may be nil.
func NewJourneyService(
	backend JourneyBackend,
	provider location.Provider,
	channel Channel,
	alerts *AlertService,
	interval time.Duration,
	log *slog.Logger,
) *JourneyService {
	if interval <= 0 {
		interval = DefaultTrackingInterval
	}
	return &JourneyService{
		backend:  backend,
		provider: provider,
		channel:  channel,
		alerts:   alerts,
		log:      log,
		interval: interval,
	}
}

// Open prepares tracking for a load. An ACTIVE journey found on the backend
// resumes sampling. Opening another load tears down the previous one.
func (s *JourneyService) Open(ctx context.Context, loadID string) (JourneySnapshot, error) {
	loadID = strings.TrimSpace(loadID)
	if loadID == "" {
		return JourneySnapshot{}, ErrInvalidLoadID
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.teardown(ctx)

	status, err := s.provider.RequestForegroundPermission(ctx)
	if err != nil {
		logging.Warn(ctx, s.log, "journey_open", "permission check failed", err, "load_id", loadID)
	} else if status != location.PermissionGranted {
		alert := s.alerts.PermissionDenied(ctx, false)
		return JourneySnapshot{}, &AlertError{Alert: alert, Err: ErrLocationPermissionDenied}
	}

	load, err := s.backend.GetLoad(ctx, loadID)
	if err != nil {
		return JourneySnapshot{}, err
	}

	active, err := s.backend.ActiveJourney(ctx, loadID)
	if err != nil {
		// The screen still opens; the driver can start a journey manually.
		logging.Warn(ctx, s.log, "journey_open", "failed to fetch active journey", err, "load_id", loadID)
		active = nil
	}

	s.mu.Lock()
	s.load = load
	s.mu.Unlock()

	if s.channel != nil {
		s.unsubscribe = s.subscribe()
	}

	if active != nil {
		switch active.Status {
		case domain.JourneyStatusActive:
			s.track(ctx, active)
		case domain.JourneyStatusPaused:
			s.mu.Lock()
			s.journey = active
			s.suspended = true
			s.mu.Unlock()
			s.emit(ctx, realtime.EventJoinJourney, active.ID)
		}
	}

	logging.Info(ctx, s.log, "journey_open", "journey screen opened", "load_id", loadID, "resumed", active != nil)
	return s.Snapshot(), nil
}

// Start creates a journey for the opened load and begins sampling. On
// failure the local state is left untouched.
func (s *JourneyService) Start(ctx context.Context) (*domain.Journey, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	load, current := s.load, s.journey
	s.mu.Unlock()

	if load == nil {
		return nil, ErrJourneyNotOpen
	}
	if current != nil {
		return nil, ErrJourneyAlreadyActive
	}

	j, err := s.backend.StartJourney(ctx, load.ID)
	if err != nil {
		return nil, err
	}
	if j.Status == "" {
		j.Status = domain.JourneyStatusActive
	}

	s.track(ctx, j)
	s.alerts.JourneyStarted(ctx, j.ID)

	out := *j
	return &out, nil
}

// Stop completes the tracked journey. Sampling ends only after the backend
// confirms; otherwise it continues and ErrStopFailed is returned.
func (s *JourneyService) Stop(ctx context.Context) (*domain.Journey, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	current := s.journey
	s.mu.Unlock()

	if current == nil {
		return nil, ErrNoActiveJourney
	}

	stopped, err := s.backend.StopJourney(ctx, current.ID)
	if err != nil {
		logging.Warn(ctx, s.log, "journey_stop", "stop not confirmed, tracking continues", err, "journey_id", current.ID)
		return nil, fmt.Errorf("%w: %w", ErrStopFailed, err)
	}

	s.untrack(ctx)
	s.alerts.JourneyEnded(ctx, current.ID)

	if stopped == nil {
		done := *current
		done.Status = domain.JourneyStatusCompleted
		stopped = &done
	}
	return stopped, nil
}

// Close tears the journey screen down. The sampler is always cancelled.
// Calling Close more than once is a no-op.
func (s *JourneyService) Close(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.teardown(ctx)
}

// Snapshot returns the current screen state.
func (s *JourneyService) Snapshot() JourneySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := JourneySnapshot{
		Tracking:    s.sampler.Running(),
		Suspended:   s.suspended,
		SamplesSent: s.sent.Load(),
	}
	if s.load != nil {
		l := *s.load
		snap.Load = &l
	}
	if s.journey != nil {
		j := *s.journey
		snap.Journey = &j
	}
	if s.position != nil {
		p := *s.position
		snap.Position = &p
	}
	return snap
}

// track makes j the tracked journey and starts sampling. Caller holds opMu.
func (s *JourneyService) track(ctx context.Context, j *domain.Journey) {
	s.mu.Lock()
	s.journey = j
	s.suspended = false
	s.mu.Unlock()

	s.checkBackgroundPermission(ctx)
	s.sampler.Start(context.Background(), s.interval, s.sample(j.ID))
	s.emit(ctx, realtime.EventJoinJourney, j.ID)
	logging.Info(ctx, s.log, "journey_track", "sampling started", "journey_id", j.ID, "interval", s.interval.String())
}

// untrack stops sampling and forgets the journey. Caller holds opMu.
func (s *JourneyService) untrack(ctx context.Context) {
	s.sampler.Stop()

	s.mu.Lock()
	j := s.journey
	s.journey = nil
	s.position = nil
	s.suspended = false
	s.mu.Unlock()

	if j != nil {
		s.emit(ctx, realtime.EventLeaveJourney, j.ID)
		logging.Info(ctx, s.log, "journey_track", "sampling stopped", "journey_id", j.ID)
	}
}

// teardown releases everything held for the opened load. Caller holds opMu.
func (s *JourneyService) teardown(ctx context.Context) {
	s.untrack(ctx)

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	s.mu.Lock()
	s.load = nil
	s.mu.Unlock()
}

func (s *JourneyService) checkBackgroundPermission(ctx context.Context) {
	status, err := s.provider.RequestBackgroundPermission(ctx)
	if err != nil {
		logging.Warn(ctx, s.log, "journey_track", "background permission check failed", err)
		return
	}
	if status != location.PermissionGranted {
		s.alerts.PermissionDenied(ctx, true)
	}
}

// sample returns the tick that reads one fix and reports it for journeyID.
func (s *JourneyService) sample(journeyID string) ticker.Func {
	return func(ctx context.Context, tok ticker.Token) {
		fix, err := s.provider.CurrentPosition(ctx, location.AccuracyHigh)
		if err != nil {
			if ctx.Err() == nil {
				logging.Warn(ctx, s.log, "journey_sample", "skipping tick", err, "journey_id", journeyID)
			}
			return
		}

		s.mu.Lock()
		if !tok.Valid() {
			s.mu.Unlock()
			return
		}
		s.position = &domain.Position{Latitude: fix.Latitude, Longitude: fix.Longitude}
		s.mu.Unlock()

		sample := domain.LocationSample{
			Latitude:  fix.Latitude,
			Longitude: fix.Longitude,
			Accuracy:  fix.Accuracy,
			Speed:     fix.Speed,
			Timestamp: fix.Timestamp.UnixMilli(),
		}
		if err := s.backend.SendLocation(ctx, journeyID, sample); err != nil {
			if ctx.Err() == nil {
				logging.Warn(ctx, s.log, "journey_sample", "failed to send location", err, "journey_id", journeyID)
			}
			return
		}
		s.sent.Add(1)
	}
}

// subscribe listens for journey-status events and channel reconnects while
// the load is open. Status updates are applied one at a time in arrival
// order by a single worker. The returned function ends both subscriptions
// and the worker without waiting for it.
func (s *JourneyService) subscribe() func() {
	updates := make(chan realtime.JourneyStatusUpdate, statusQueueSize)
	stop := make(chan struct{})

	offStatus := s.channel.On(realtime.EventJourneyStatus, func(data json.RawMessage) {
		var update realtime.JourneyStatusUpdate
		if !decode(data, &update) {
			return
		}
		// Handlers run on the channel's read goroutine; the worker may be
		// waiting for the sampler, so only the queue is touched here.
		select {
		case updates <- update:
		case <-stop:
		}
	})
	offMode := s.channel.OnModeChange(s.onModeChange)

	go func() {
		for {
			select {
			case <-stop:
				return
			case update := <-updates:
				s.applyStatus(update, stop)
			}
		}
	}()

	return func() {
		offStatus()
		offMode()
		close(stop)
	}
}

// onModeChange rejoins the journey room after the channel reconnects.
func (s *JourneyService) onModeChange(m realtime.Mode) {
	if m != realtime.ModeConnected {
		return
	}
	s.mu.Lock()
	j := s.journey
	s.mu.Unlock()
	if j != nil {
		s.emit(context.Background(), realtime.EventJoinJourney, j.ID)
	}
}

func (s *JourneyService) applyStatus(update realtime.JourneyStatusUpdate, stop <-chan struct{}) {
	ctx := context.Background()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	select {
	case <-stop:
		return
	default:
	}

	s.mu.Lock()
	j := s.journey
	s.mu.Unlock()
	if j == nil || j.ID != update.JourneyID {
		return
	}

	switch domain.JourneyStatus(update.Status) {
	case domain.JourneyStatusCompleted:
		s.untrack(ctx)
		s.alerts.JourneyEnded(ctx, update.JourneyID)
	case domain.JourneyStatusPaused:
		s.sampler.Stop()
		s.mu.Lock()
		s.journey.Status = domain.JourneyStatusPaused
		s.suspended = true
		s.mu.Unlock()
		logging.Info(ctx, s.log, "journey_status", "sampling suspended", "journey_id", j.ID)
	case domain.JourneyStatusActive:
		s.mu.Lock()
		resume := s.suspended
		s.journey.Status = domain.JourneyStatusActive
		s.suspended = false
		s.mu.Unlock()
		if resume {
			s.sampler.Start(context.Background(), s.interval, s.sample(j.ID))
			logging.Info(ctx, s.log, "journey_status", "sampling resumed", "journey_id", j.ID)
		}
	}
}

func (s *JourneyService) emit(ctx context.Context, event realtime.Event, journeyID string) {
	if s.channel == nil {
		return
	}
	if err := s.channel.Emit(event, realtime.JourneyRoom{JourneyID: journeyID}); err != nil {
		logging.Warn(ctx, s.log, "journey_emit", "realtime emit failed", err, "event", string(event))
	}
}
