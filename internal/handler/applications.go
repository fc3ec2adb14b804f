package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/service"
)

// ApplicationHandler handles HTTP requests for the driver's applications.
type ApplicationHandler struct {
	applications *service.ApplicationService
	alerts       *service.AlertService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService, alerts *service.AlertService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, alerts: alerts}
}

// ListMine handles GET /v1/applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	h.list(c, "applications_list", h.applications.ListMine)
}

// ListAccepted handles GET /v1/applications/accepted
func (h *ApplicationHandler) ListAccepted(c *gin.Context) {
	h.list(c, "applications_accepted", h.applications.ListAccepted)
}

// History handles GET /v1/applications/history
func (h *ApplicationHandler) History(c *gin.Context) {
	h.list(c, "applications_history", h.applications.History)
}

func (h *ApplicationHandler) list(c *gin.Context, action string, fetch func(context.Context) ([]domain.Application, error)) {
	apps, err := fetch(c.Request.Context())
	if err != nil {
		respondError(c, h.alerts, action, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	respondJSON(c, http.StatusOK, gin.H{"applications": apps})
}
