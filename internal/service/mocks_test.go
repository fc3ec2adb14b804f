package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/realtime"
	"haul/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORAGE
// ──────────────────────────────────────────────

// MockStorage wraps MemoryStorage with error injection.
type MockStorage struct {
	*repository.MemoryStorage

	SetCallCount    int32
	DeleteCallCount int32

	GetError error
	SetError error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{MemoryStorage: repository.NewMemoryStorage()}
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	if m.GetError != nil {
		return "", m.GetError
	}
	return m.MemoryStorage.Get(ctx, key)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	return m.MemoryStorage.Set(ctx, key, value)
}

func (m *MockStorage) Delete(ctx context.Context, keys ...string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	return m.MemoryStorage.Delete(ctx, keys...)
}

// Has reports whether key is stored.
func (m *MockStorage) Has(key string) bool {
	_, err := m.MemoryStorage.Get(context.Background(), key)
	return err == nil
}

// ──────────────────────────────────────────────
// MOCK BACKEND
// ──────────────────────────────────────────────

// MockBackend implements every backend interface the services consume.
type MockBackend struct {
	mu sync.Mutex

	LoginResponse *api.AuthResponse
	ProfileUser   *domain.User
	Pages         map[int]*domain.LoadPage
	Loads         map[string]*domain.Load
	Applications  []domain.Application
	Active        *domain.Journey
	Conversations map[string][]domain.Message
	Reviews       []domain.Review
	Uploaded      []domain.DocumentType

	// Counters for verification
	LoginCallCount        int32
	RegisterCallCount     int32
	UpdateProfileCount    int32
	ListLoadsCallCount    int32
	GetLoadCallCount      int32
	ApplyCallCount        int32
	StartCallCount        int32
	StopCallCount         int32
	SendLocationCallCount int32
	ConversationCallCount int32
	SendMessageCallCount  int32

	// Error injection
	LoginError         error
	RegisterError      error
	ListLoadsError     error
	GetLoadError       error
	ApplyError         error
	ActiveError        error
	StartError         error
	StopError          error
	SendLocationError  error
	ConversationError  error
	SendMessageError   error
	SubmitError        error
	DuplicateApplyFrom int32 // reject Apply calls numbered above this with 409 when > 0

	// OnSendLocation observes every location report.
	OnSendLocation func(journeyID string, sample domain.LocationSample)
	// OnListLoads and OnSendMessage run before the call returns, so tests
	// can hold a request in flight.
	OnListLoads   func(page int)
	OnSendMessage func(receiverID, content string)
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Pages:         make(map[int]*domain.LoadPage),
		Loads:         make(map[string]*domain.Load),
		Conversations: make(map[string][]domain.Message),
	}
}

func (m *MockBackend) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	atomic.AddInt32(&m.LoginCallCount, 1)
	if m.LoginError != nil {
		return nil, m.LoginError
	}
	resp := *m.LoginResponse
	return &resp, nil
}

func (m *MockBackend) Register(ctx context.Context, req api.RegisterRequest) error {
	atomic.AddInt32(&m.RegisterCallCount, 1)
	return m.RegisterError
}

func (m *MockBackend) UpdateProfile(ctx context.Context, req api.ProfileUpdate) (*domain.User, error) {
	atomic.AddInt32(&m.UpdateProfileCount, 1)
	u := *m.ProfileUser
	u.Name, u.Email, u.Phone = req.Name, req.Email, req.Phone
	return &u, nil
}

func (m *MockBackend) ListLoads(ctx context.Context, page, limit int) (*domain.LoadPage, error) {
	atomic.AddInt32(&m.ListLoadsCallCount, 1)
	if m.OnListLoads != nil {
		m.OnListLoads(page)
	}
	if m.ListLoadsError != nil {
		return nil, m.ListLoadsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Pages[page]
	if !ok {
		return &domain.LoadPage{Pagination: domain.Pagination{Page: page, Limit: limit}}, nil
	}
	out := *p
	out.Loads = append([]domain.Load(nil), p.Loads...)
	return &out, nil
}

func (m *MockBackend) GetLoad(ctx context.Context, id string) (*domain.Load, error) {
	atomic.AddInt32(&m.GetLoadCallCount, 1)
	if m.GetLoadError != nil {
		return nil, m.GetLoadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Loads[id]
	if !ok {
		return nil, &api.Error{Status: http.StatusNotFound, Message: "Load not found"}
	}
	out := *l
	return &out, nil
}

func (m *MockBackend) Apply(ctx context.Context, req api.ApplyRequest) (*domain.Application, error) {
	n := atomic.AddInt32(&m.ApplyCallCount, 1)
	if m.ApplyError != nil {
		return nil, m.ApplyError
	}
	if m.DuplicateApplyFrom > 0 && n > m.DuplicateApplyFrom {
		return nil, &api.Error{Status: http.StatusConflict, Message: "You have already applied for this load"}
	}
	app := domain.Application{
		ID:     "app-" + req.LoadID,
		LoadID: req.LoadID,
		Role:   req.Role,
		Status: domain.ApplicationStatusPending,
	}
	m.mu.Lock()
	m.Applications = append(m.Applications, app)
	m.mu.Unlock()
	return &app, nil
}

func (m *MockBackend) MyApplications(ctx context.Context) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Application(nil), m.Applications...), nil
}

func (m *MockBackend) ActiveJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	if m.ActiveError != nil {
		return nil, m.ActiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Active == nil || m.Active.LoadID != loadID {
		return nil, nil
	}
	j := *m.Active
	return &j, nil
}

func (m *MockBackend) StartJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	n := atomic.AddInt32(&m.StartCallCount, 1)
	if m.StartError != nil {
		return nil, m.StartError
	}
	return &domain.Journey{
		ID:        "journey-" + loadID + "-" + string(rune('0'+n)),
		LoadID:    loadID,
		Status:    domain.JourneyStatusActive,
		StartTime: time.Now(),
	}, nil
}

func (m *MockBackend) StopJourney(ctx context.Context, journeyID string) (*domain.Journey, error) {
	atomic.AddInt32(&m.StopCallCount, 1)
	if m.StopError != nil {
		return nil, m.StopError
	}
	now := time.Now()
	return &domain.Journey{ID: journeyID, Status: domain.JourneyStatusCompleted, EndTime: &now}, nil
}

func (m *MockBackend) SendLocation(ctx context.Context, journeyID string, sample domain.LocationSample) error {
	atomic.AddInt32(&m.SendLocationCallCount, 1)
	if m.OnSendLocation != nil {
		m.OnSendLocation(journeyID, sample)
	}
	return m.SendLocationError
}

func (m *MockBackend) Conversation(ctx context.Context, userID string) ([]domain.Message, error) {
	atomic.AddInt32(&m.ConversationCallCount, 1)
	if m.ConversationError != nil {
		return nil, m.ConversationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.Conversations[userID]...), nil
}

func (m *MockBackend) SendMessage(ctx context.Context, receiverID, content string) (*domain.Message, error) {
	n := atomic.AddInt32(&m.SendMessageCallCount, 1)
	if m.OnSendMessage != nil {
		m.OnSendMessage(receiverID, content)
	}
	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}
	return &domain.Message{
		ID:         "sent-" + string(rune('0'+n)),
		Content:    content,
		SenderID:   "driver-1",
		ReceiverID: receiverID,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockBackend) UserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	return m.Reviews, nil
}

func (m *MockBackend) SubmitVerification(ctx context.Context, uploads []api.Upload) error {
	if m.SubmitError != nil {
		return m.SubmitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range uploads {
		m.Uploaded = append(m.Uploaded, u.Type)
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK CHANNEL
// ──────────────────────────────────────────────

// MockChannel is an in-memory realtime channel.
type MockChannel struct {
	mu       sync.Mutex
	mode     realtime.Mode
	handlers map[realtime.Event]map[int]realtime.Handler
	watchers map[int]func(realtime.Mode)
	nextID   int
	Emitted  []realtime.Event

	EmitError error
}

func NewMockChannel(mode realtime.Mode) *MockChannel {
	return &MockChannel{
		mode:     mode,
		handlers: make(map[realtime.Event]map[int]realtime.Handler),
		watchers: make(map[int]func(realtime.Mode)),
	}
}

func (m *MockChannel) Emit(event realtime.Event, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Emitted = append(m.Emitted, event)
	return m.EmitError
}

func (m *MockChannel) On(event realtime.Event, h realtime.Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]realtime.Handler)
	}
	m.handlers[event][id] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[event], id)
	}
}

func (m *MockChannel) Mode() realtime.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *MockChannel) OnModeChange(fn func(realtime.Mode)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.watchers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers, id)
	}
}

// SetMode switches the mode and notifies watchers, like a reconnect would.
func (m *MockChannel) SetMode(mode realtime.Mode) {
	m.mu.Lock()
	m.mode = mode
	ws := make([]func(realtime.Mode), 0, len(m.watchers))
	for _, fn := range m.watchers {
		ws = append(ws, fn)
	}
	m.mu.Unlock()

	for _, fn := range ws {
		fn(mode)
	}
}

// Watchers returns the number of mode watchers.
func (m *MockChannel) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

// Deliver dispatches a raw payload to the subscribers of event.
func (m *MockChannel) Deliver(event realtime.Event, data []byte) {
	m.mu.Lock()
	hs := make([]realtime.Handler, 0)
	for _, h := range m.handlers[event] {
		hs = append(hs, h)
	}
	m.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

// Subscribers returns the number of handlers for event.
func (m *MockChannel) Subscribers(event realtime.Event) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[event])
}

// EmittedEvents returns a copy of the emitted events.
func (m *MockChannel) EmittedEvents() []realtime.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]realtime.Event(nil), m.Emitted...)
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

type staticIdentity struct{ user *domain.User }

func (s staticIdentity) Current() *domain.User { return s.user }

var errBoom = errors.New("boom")

func float(v float64) *float64 { return &v }

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
