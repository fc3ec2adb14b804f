package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/domain"
	"haul/internal/service"
)

// LoadHandler handles HTTP requests for the load directory.
type LoadHandler struct {
	loads        *service.LoadService
	applications *service.ApplicationService
	alerts       *service.AlertService
}

// NewLoadHandler creates a new LoadHandler.
func NewLoadHandler(loads *service.LoadService, applications *service.ApplicationService, alerts *service.AlertService) *LoadHandler {
	return &LoadHandler{loads: loads, applications: applications, alerts: alerts}
}

// SearchRequest is the HTTP request body for setting the search text.
type SearchRequest struct {
	Query string `json:"query"`
}

// LoadListResponse is the HTTP response for the load directory.
type LoadListResponse struct {
	Loads         []domain.Load     `json:"loads"`
	Fetched       int               `json:"fetched"`
	ActiveFilters int               `json:"activeFilters"`
	Pagination    domain.Pagination `json:"pagination"`
}

// LoadDetailResponse is the HTTP response for a single load.
type LoadDetailResponse struct {
	Load    *domain.Load `json:"load"`
	Applied bool         `json:"applied"`
}

// ListLoads handles GET /v1/loads
func (h *LoadHandler) ListLoads(c *gin.Context) {
	h.respondList(c)
}

// Refresh handles POST /v1/loads/refresh
func (h *LoadHandler) Refresh(c *gin.Context) {
	if err := h.loads.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.alerts, "loads_refresh", err)
		return
	}
	h.respondList(c)
}

// LoadMore handles POST /v1/loads/more
func (h *LoadHandler) LoadMore(c *gin.Context) {
	if _, err := h.loads.LoadMore(c.Request.Context()); err != nil {
		respondError(c, h.alerts, "loads_load_more", err)
		return
	}
	h.respondList(c)
}

// SetSearch handles PUT /v1/loads/search
func (h *LoadHandler) SetSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	h.loads.SetSearch(req.Query)
	h.respondList(c)
}

// SetFilters handles PUT /v1/loads/filters
func (h *LoadHandler) SetFilters(c *gin.Context) {
	var filters service.LoadFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		respondBadRequest(c)
		return
	}

	h.loads.SetFilters(filters)
	h.respondList(c)
}

// ClearFilters handles DELETE /v1/loads/filters
func (h *LoadHandler) ClearFilters(c *gin.Context) {
	h.loads.ClearFilters()
	h.respondList(c)
}

// GetLoad handles GET /v1/loads/:id
func (h *LoadHandler) GetLoad(c *gin.Context) {
	ctx := c.Request.Context()
	loadID := c.Param("id")

	load, err := h.loads.Get(ctx, loadID)
	if err != nil {
		respondError(c, h.alerts, "loads_get", err)
		return
	}

	applied, err := h.applications.HasApplied(ctx, loadID)
	if err != nil {
		respondError(c, h.alerts, "loads_get", err)
		return
	}

	respondJSON(c, http.StatusOK, LoadDetailResponse{Load: load, Applied: applied})
}

// Apply handles POST /v1/loads/:id/apply
func (h *LoadHandler) Apply(c *gin.Context) {
	app, err := h.applications.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.alerts, "loads_apply", err)
		return
	}

	respondJSON(c, http.StatusCreated, app)
}

func (h *LoadHandler) respondList(c *gin.Context) {
	respondJSON(c, http.StatusOK, LoadListResponse{
		Loads:         h.loads.Visible(),
		Fetched:       len(h.loads.All()),
		ActiveFilters: h.loads.ActiveFilterCount(),
		Pagination:    h.loads.Pagination(),
	})
}
