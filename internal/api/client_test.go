package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
)

type staticToken string

func (s staticToken) AccessToken(ctx context.Context) (string, error) {
	return string(s), nil
}

// fakeBackend records requests and serves canned marketplace responses.
type fakeBackend struct {
	mu       sync.Mutex
	keys     []string
	auth     []string
	forms    map[string]string
	received map[string]any
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := &fakeBackend{forms: make(map[string]string), received: make(map[string]any)}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		fb.mu.Lock()
		fb.auth = append(fb.auth, c.GetHeader("Authorization"))
		if c.Request.Method == http.MethodPost {
			fb.keys = append(fb.keys, c.GetHeader("Idempotency-Key"))
		}
		fb.mu.Unlock()
		c.Next()
	})

	r.POST("/auth/login", func(c *gin.Context) {
		var req LoginRequest
		_ = c.ShouldBindJSON(&req)
		if req.Password != "secret1" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"accessToken": "tok",
			"user":        gin.H{"id": "d1", "name": "Aibek", "role": "DRIVER"},
		})
	})
	r.POST("/auth/register", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"message": []string{"phone must be unique", "email must be an email"}})
	})
	r.GET("/loads", func(c *gin.Context) {
		fb.mu.Lock()
		fb.received["page"] = c.Query("page")
		fb.received["limit"] = c.Query("limit")
		fb.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{
			"loads":      []gin.H{{"id": "l1", "originCity": "Almaty", "price": 1500, "loadingDate": "2026-04-01"}},
			"pagination": gin.H{"page": 2, "limit": 20, "total": 21, "pages": 2},
		})
	})
	r.GET("/loads/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Load not found"})
	})
	r.POST("/applications", func(c *gin.Context) {
		var req ApplyRequest
		_ = c.ShouldBindJSON(&req)
		fb.mu.Lock()
		fb.received["role"] = req.Role
		fb.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"message": "You have already applied for this load"})
	})
	r.GET("/journeys/active/:loadId", func(c *gin.Context) {
		if c.Param("loadId") == "none" {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": "j1", "loadId": c.Param("loadId"), "status": "ACTIVE"})
	})
	r.POST("/journeys/locations", func(c *gin.Context) {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		fb.mu.Lock()
		fb.received["location"] = body
		fb.mu.Unlock()
		c.Status(http.StatusCreated)
	})
	r.POST("/users/verification", func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		fb.mu.Lock()
		for name, files := range form.File {
			f, _ := files[0].Open()
			data, _ := io.ReadAll(f)
			f.Close()
			fb.forms[name] = string(data)
		}
		fb.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL+"/", srv.Client())
	client.SetTokenSource(staticToken("tok"))
	return fb, client
}

func TestClient_LoginAndErrors(t *testing.T) {
	_, client := newFakeBackend(t)
	ctx := context.Background()

	resp, err := client.Login(ctx, LoginRequest{Email: "a@b.co", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "tok" || !resp.User.IsDriver() {
		t.Errorf("unexpected response %+v", resp)
	}

	_, err = client.Login(ctx, LoginRequest{Email: "a@b.co", Password: "nope"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if MessageOf(err, "") != "Invalid credentials" {
		t.Errorf("expected server message, got %v", err)
	}

	err = client.Register(ctx, RegisterRequest{Name: "A"})
	if err == nil || err.Error() != "phone must be unique; email must be an email" {
		t.Errorf("expected joined validation messages, got %v", err)
	}

	_, err = client.GetLoad(ctx, "missing")
	if !errors.Is(err, ErrNotFound) || err.Error() != "Load not found" {
		t.Errorf("expected not found with error field, got %v", err)
	}
}

func TestClient_ListLoadsQueryAndDecode(t *testing.T) {
	fb, client := newFakeBackend(t)

	page, err := client.ListLoads(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Loads) != 1 || page.Loads[0].Price != 1500 || page.Pagination.Pages != 2 {
		t.Errorf("unexpected page %+v", page)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.received["page"] != "2" || fb.received["limit"] != "20" {
		t.Errorf("unexpected query %v", fb.received)
	}
	if fb.auth[0] != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", fb.auth[0])
	}
}

func TestClient_PostsCarryFreshIdempotencyKeys(t *testing.T) {
	fb, client := newFakeBackend(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Apply(ctx, ApplyRequest{LoadID: "l1", Role: domain.RoleDriver})
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
			t.Fatalf("expected 409, got %v", err)
		}
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.keys) != 2 || fb.keys[0] == "" || fb.keys[0] == fb.keys[1] {
		t.Errorf("expected two distinct idempotency keys, got %v", fb.keys)
	}
	if fb.received["role"] != "DRIVER" {
		t.Errorf("expected DRIVER role, got %v", fb.received["role"])
	}
}

func TestClient_ActiveJourney(t *testing.T) {
	_, client := newFakeBackend(t)

	j, err := client.ActiveJourney(context.Background(), "none")
	if err != nil || j != nil {
		t.Errorf("expected nil journey on 404, got %+v %v", j, err)
	}

	j, err = client.ActiveJourney(context.Background(), "l1")
	if err != nil || j == nil || j.Status != domain.JourneyStatusActive {
		t.Errorf("expected active journey, got %+v %v", j, err)
	}
}

func TestClient_SendLocationFlattensSample(t *testing.T) {
	fb, client := newFakeBackend(t)

	err := client.SendLocation(context.Background(), "j1", domain.LocationSample{
		Latitude: 43.2, Longitude: 76.9, Accuracy: 4, Speed: 0, Timestamp: 1767225600000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	body := fb.received["location"].(map[string]any)
	if body["journeyId"] != "j1" || body["latitude"] != 43.2 || body["timestamp"] != float64(1767225600000) {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["speed"]; !ok {
		t.Error("expected speed to be sent even when zero")
	}
}

func TestClient_SubmitVerificationMultipart(t *testing.T) {
	fb, client := newFakeBackend(t)

	err := client.SubmitVerification(context.Background(), []Upload{
		{Type: domain.DocumentLicenseFront, Data: strings.NewReader("front")},
		{Type: domain.DocumentSelfie, Data: strings.NewReader("face")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.forms["license-front"] != "front" || fb.forms["selfie"] != "face" {
		t.Errorf("unexpected parts %v", fb.forms)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, nil)
	_, err := client.MyApplications(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}
