package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/service"
)

// AlertHandler lets the UI shell read and dismiss alerts.
type AlertHandler struct {
	alerts *service.AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts handles GET /v1/alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	alerts := h.alerts.Recent()
	if alerts == nil {
		alerts = []service.Alert{}
	}
	respondJSON(c, http.StatusOK, gin.H{"alerts": alerts})
}

// DismissAlert handles DELETE /v1/alerts/:id
func (h *AlertHandler) DismissAlert(c *gin.Context) {
	if !h.alerts.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "alert not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
