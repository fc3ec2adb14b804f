package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/service"
)

// JourneyHandler handles HTTP requests for the journey screen.
type JourneyHandler struct {
	journeys *service.JourneyService
	alerts   *service.AlertService
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(journeys *service.JourneyService, alerts *service.AlertService) *JourneyHandler {
	return &JourneyHandler{journeys: journeys, alerts: alerts}
}

// OpenJourneyRequest is the HTTP request body for opening the journey screen.
type OpenJourneyRequest struct {
	LoadID string `json:"loadId"`
}

// Open handles POST /v1/journey/open
func (h *JourneyHandler) Open(c *gin.Context) {
	var req OpenJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	snap, err := h.journeys.Open(c.Request.Context(), req.LoadID)
	if err != nil {
		respondError(c, h.alerts, "journey_open", err)
		return
	}

	respondJSON(c, http.StatusOK, snap)
}

// Current handles GET /v1/journey
func (h *JourneyHandler) Current(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.journeys.Snapshot())
}

// Start handles POST /v1/journey/start
func (h *JourneyHandler) Start(c *gin.Context) {
	if _, err := h.journeys.Start(c.Request.Context()); err != nil {
		respondError(c, h.alerts, "journey_start", err)
		return
	}

	respondJSON(c, http.StatusOK, h.journeys.Snapshot())
}

// Stop handles POST /v1/journey/stop
func (h *JourneyHandler) Stop(c *gin.Context) {
	if _, err := h.journeys.Stop(c.Request.Context()); err != nil {
		respondError(c, h.alerts, "journey_stop", err)
		return
	}

	respondJSON(c, http.StatusOK, h.journeys.Snapshot())
}

// Close handles DELETE /v1/journey
func (h *JourneyHandler) Close(c *gin.Context) {
	h.journeys.Close(c.Request.Context())
	c.Status(http.StatusNoContent)
}
