package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"haul/internal/api"
	"haul/internal/domain"
	"haul/internal/location"
	"haul/internal/logging"
	"haul/internal/repository"
	"haul/internal/service"
)

// ──────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────

// fakeBackend serves the auth and journey slices of the REST client.
type fakeBackend struct {
	roles map[string]string // email -> role

	LoginCallCount   int32
	GetLoadCallCount int32
}

func (f *fakeBackend) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	atomic.AddInt32(&f.LoginCallCount, 1)
	role, ok := f.roles[req.Email]
	if !ok {
		return nil, &api.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return &api.AuthResponse{
		AccessToken: "opaque-token",
		User:        domain.User{ID: "u-" + req.Email, Name: "Test", Role: role},
	}, nil
}

func (f *fakeBackend) Register(ctx context.Context, req api.RegisterRequest) error {
	return nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, req api.ProfileUpdate) (*domain.User, error) {
	return &domain.User{ID: "u-1", Name: req.Name, Phone: req.Phone, Role: domain.RoleDriver}, nil
}

func (f *fakeBackend) GetLoad(ctx context.Context, id string) (*domain.Load, error) {
	atomic.AddInt32(&f.GetLoadCallCount, 1)
	return &domain.Load{ID: id, Status: domain.LoadStatusAssigned}, nil
}

func (f *fakeBackend) ActiveJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	return nil, nil
}

func (f *fakeBackend) StartJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	return &domain.Journey{ID: "j-1", LoadID: loadID, Status: domain.JourneyStatusActive}, nil
}

func (f *fakeBackend) StopJourney(ctx context.Context, journeyID string) (*domain.Journey, error) {
	return &domain.Journey{ID: journeyID, Status: domain.JourneyStatusCompleted}, nil
}

func (f *fakeBackend) SendLocation(ctx context.Context, journeyID string, sample domain.LocationSample) error {
	return nil
}

type testServer struct {
	router  *gin.Engine
	backend *fakeBackend
	feed    *location.DeviceFeed
	alerts  *service.AlertService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.Discard()
	backend := &fakeBackend{roles: map[string]string{
		"driver@haul.test":  domain.RoleDriver,
		"shipper@haul.test": "SHIPPER",
	}}
	store := repository.NewMemoryStorage()
	alerts := service.NewAlertService(log, 0)
	feed := location.NewDeviceFeed(0)

	sessions := service.NewSessionService(backend, store, log)
	journeys := service.NewJourneyService(backend, feed, nil, alerts, 0, log)
	t.Cleanup(func() { journeys.Close(context.Background()) })

	sessionHandler := NewSessionHandler(sessions, alerts)
	journeyHandler := NewJourneyHandler(journeys, alerts)
	deviceHandler := NewDeviceHandler(feed, alerts)
	profileHandler := NewProfileHandler(nil, service.NewLanguageService(store, log), nil, alerts)
	alertHandler := NewAlertHandler(alerts)

	r := gin.New()
	r.GET("/v1/session", sessionHandler.GetSession)
	r.POST("/v1/session/login", sessionHandler.Login)
	r.POST("/v1/session/register", sessionHandler.Register)
	r.POST("/v1/session/logout", sessionHandler.Logout)
	r.POST("/v1/journey/open", journeyHandler.Open)
	r.POST("/v1/journey/start", journeyHandler.Start)
	r.POST("/v1/journey/stop", journeyHandler.Stop)
	r.POST("/v1/device/position", deviceHandler.PushPosition)
	r.PUT("/v1/device/permissions", deviceHandler.SetPermissions)
	r.GET("/v1/language", profileHandler.GetLanguage)
	r.PUT("/v1/language", profileHandler.SetLanguage)
	r.GET("/v1/alerts", alertHandler.ListAlerts)
	r.DELETE("/v1/alerts/:id", alertHandler.DismissAlert)

	return &testServer{router: r, backend: backend, feed: feed, alerts: alerts}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, w.Body.String())
	}
	return resp
}

// ──────────────────────────────────────────────
// 1. Error mapping
// ──────────────────────────────────────────────

func TestMapErrorToHTTPStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"expired session", &api.Error{Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{"not signed in", service.ErrNotAuthenticated, http.StatusUnauthorized},
		{"backend not found", &api.Error{Status: http.StatusNotFound}, http.StatusNotFound},
		{"missing conversation", service.ErrConversationNotOpen, http.StatusNotFound},
		{"validation", service.ErrPasswordMismatch, http.StatusBadRequest},
		{"invalid fix", location.ErrInvalidFix, http.StatusBadRequest},
		{"already active", service.ErrJourneyAlreadyActive, http.StatusConflict},
		{"role", service.ErrRoleNotAllowed, http.StatusForbidden},
		{"permission", service.ErrLocationPermissionDenied, http.StatusForbidden},
		{"transport", fmt.Errorf("%w: dial tcp", api.ErrTransport), http.StatusBadGateway},
		{"backend rejection", &api.Error{Status: http.StatusUnprocessableEntity, Message: "already applied"}, http.StatusUnprocessableEntity},
		{"backend failure", &api.Error{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{"stop failure", fmt.Errorf("%w: %w", service.ErrStopFailed, &api.Error{Status: http.StatusServiceUnavailable}), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. Session
// ──────────────────────────────────────────────

func TestSession_LoginDriver(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/session/login", LoginRequest{Email: "driver@haul.test", Password: "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/v1/session", nil)
	var resp SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Authenticated || resp.User == nil || resp.User.ID != "u-driver@haul.test" {
		t.Errorf("expected signed-in driver, got %+v", resp)
	}

	s.do(t, http.MethodPost, "/v1/session/logout", nil)
	w = s.do(t, http.MethodGet, "/v1/session", nil)
	resp = SessionResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Authenticated || resp.User != nil {
		t.Errorf("expected signed out, got %+v", resp)
	}
}

func TestSession_LoginRejectsOtherRoles(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/session/login", LoginRequest{Email: "shipper@haul.test", Password: "secret1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error != service.ErrRoleNotAllowed.Error() || resp.Alert == nil || resp.Alert.Kind != service.AlertValidation {
		t.Errorf("unexpected error response %+v", resp)
	}
}

func TestSession_LoginBadCredentials(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/session/login", LoginRequest{Email: "nobody@haul.test", Password: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Alert == nil || resp.Alert.Kind != service.AlertSessionExpired {
		t.Errorf("expected session alert, got %+v", resp)
	}
}

func TestSession_RegisterValidatesBeforeCalling(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/session/register", service.RegisterForm{
		Name: "Aidar", Phone: "+77001234567", Password: "secret1", ConfirmPassword: "secret2",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error != service.ErrPasswordMismatch.Error() {
		t.Errorf("expected mismatch message, got %q", resp.Error)
	}
}

func TestSession_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if n := atomic.LoadInt32(&s.backend.LoginCallCount); n != 0 {
		t.Errorf("expected no backend call, got %d", n)
	}
}

// ──────────────────────────────────────────────
// 3. Journey and device
// ──────────────────────────────────────────────

func TestJourney_PermissionDeniedRaisesOneAlert(t *testing.T) {
	s := newTestServer(t)
	s.feed.SetPermissions(location.PermissionDenied, "")

	w := s.do(t, http.MethodPost, "/v1/journey/open", OpenJourneyRequest{LoadID: "load-1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Alert == nil || !resp.Alert.Blocking {
		t.Errorf("expected blocking alert, got %+v", resp)
	}
	if n := len(s.alerts.Recent()); n != 1 {
		t.Errorf("expected exactly one alert, got %d", n)
	}
	if n := atomic.LoadInt32(&s.backend.GetLoadCallCount); n != 0 {
		t.Errorf("expected no load fetch, got %d", n)
	}
}

func TestJourney_StartBeforeOpen(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/journey/start", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestJourney_OpenStartStop(t *testing.T) {
	s := newTestServer(t)
	s.feed.SetPermissions(location.PermissionGranted, location.PermissionGranted)

	if w := s.do(t, http.MethodPost, "/v1/journey/open", OpenJourneyRequest{LoadID: "load-1"}); w.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodPost, "/v1/journey/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var snap service.JourneySnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Tracking || snap.Journey == nil || snap.Journey.ID != "j-1" {
		t.Errorf("expected tracked journey, got %+v", snap)
	}

	if w := s.do(t, http.MethodPost, "/v1/journey/start", nil); w.Code != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/v1/journey/stop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", w.Code)
	}
	snap = service.JourneySnapshot{}
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Tracking {
		t.Error("expected tracking to end after stop")
	}
}

func TestDevice_PushPosition(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/device/position", PositionRequest{Latitude: 120, Longitude: 10})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range latitude, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/v1/device/position", PositionRequest{Latitude: 43.2, Longitude: 76.9, Timestamp: 1700000000000})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	s.feed.SetPermissions(location.PermissionGranted, "")
	fix, err := s.feed.CurrentPosition(context.Background(), location.AccuracyHigh)
	if err != nil {
		t.Fatalf("current position: %v", err)
	}
	if fix.Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("expected device timestamp to be kept, got %v", fix.Timestamp)
	}
}

func TestDevice_SetPermissionsRejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/v1/device/permissions", PermissionsRequest{Foreground: "maybe"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = s.do(t, http.MethodPut, "/v1/device/permissions", PermissionsRequest{Foreground: location.PermissionGranted})
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

// ──────────────────────────────────────────────
// 4. Language and alerts
// ──────────────────────────────────────────────

func TestLanguage_SetAndGet(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPut, "/v1/language", LanguageRequest{Code: "de"}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported language, got %d", w.Code)
	}

	w := s.do(t, http.MethodPut, "/v1/language", LanguageRequest{Code: " KK "})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/v1/language", nil)
	var resp struct {
		Current   string             `json:"current"`
		Supported []service.Language `json:"supported"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Current != "kk" || len(resp.Supported) != 7 {
		t.Errorf("unexpected language response %+v", resp)
	}
}

func TestAlerts_ListAndDismiss(t *testing.T) {
	s := newTestServer(t)
	alert := s.alerts.JourneyStarted(context.Background(), "j-9")

	w := s.do(t, http.MethodGet, "/v1/alerts", nil)
	var resp struct {
		Alerts []service.Alert `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Alerts) != 1 || resp.Alerts[0].ID != alert.ID {
		t.Fatalf("unexpected alerts %+v", resp.Alerts)
	}

	if w := s.do(t, http.MethodDelete, "/v1/alerts/"+alert.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/v1/alerts/"+alert.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second dismiss, got %d", w.Code)
	}
}
