package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/service"
)

// SessionHandler handles sign-in, registration and profile requests.
type SessionHandler struct {
	sessions *service.SessionService
	alerts   *service.AlertService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, alerts *service.AlertService) *SessionHandler {
	return &SessionHandler{sessions: sessions, alerts: alerts}
}

// LoginRequest is the HTTP request body for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest is the HTTP request body for a profile update.
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

// GetSession handles GET /v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	respondJSON(c, http.StatusOK, SessionResponse{
		Authenticated: h.sessions.IsAuthenticated(c.Request.Context()),
		User:          h.sessions.Current(),
	})
}

// Login handles POST /v1/session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	user, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.alerts, "session_sign_in", err)
		return
	}

	respondJSON(c, http.StatusOK, SessionResponse{Authenticated: true, User: user})
}

// Register handles POST /v1/session/register
func (h *SessionHandler) Register(c *gin.Context) {
	var form service.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBadRequest(c)
		return
	}

	if err := h.sessions.Register(c.Request.Context(), form); err != nil {
		respondError(c, h.alerts, "session_register", err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"registered": true})
}

// Logout handles POST /v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	h.sessions.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// UpdateProfile handles PUT /v1/session/profile
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	user, err := h.sessions.UpdateProfile(c.Request.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		respondError(c, h.alerts, "session_update_profile", err)
		return
	}

	respondJSON(c, http.StatusOK, user)
}
