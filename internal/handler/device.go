package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"haul/internal/location"
	"haul/internal/service"
)

// DeviceHandler receives position fixes and permission grants from the UI shell.
type DeviceHandler struct {
	feed   *location.DeviceFeed
	alerts *service.AlertService
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(feed *location.DeviceFeed, alerts *service.AlertService) *DeviceHandler {
	return &DeviceHandler{feed: feed, alerts: alerts}
}

// PositionRequest is a fix reported by the device.
type PositionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"` // milliseconds since the Unix epoch, optional
}

// PermissionsRequest carries the permission grants reported by the device.
type PermissionsRequest struct {
	Foreground location.PermissionStatus `json:"foreground"`
	Background location.PermissionStatus `json:"background"`
}

// PushPosition handles POST /v1/device/position
func (h *DeviceHandler) PushPosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	fix := location.Fix{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Speed:     req.Speed,
	}
	if req.Timestamp > 0 {
		fix.Timestamp = time.UnixMilli(req.Timestamp)
	}

	if err := h.feed.Push(fix); err != nil {
		respondError(c, h.alerts, "device_position", err)
		return
	}

	respondJSON(c, http.StatusAccepted, gin.H{"requestedAccuracy": h.feed.RequestedAccuracy()})
}

// SetPermissions handles PUT /v1/device/permissions
func (h *DeviceHandler) SetPermissions(c *gin.Context) {
	var req PermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}
	if !validPermission(req.Foreground) || !validPermission(req.Background) {
		respondBadRequest(c)
		return
	}

	h.feed.SetPermissions(req.Foreground, req.Background)
	c.Status(http.StatusNoContent)
}

// GetDevice handles GET /v1/device
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"requestedAccuracy": h.feed.RequestedAccuracy()})
}

func validPermission(p location.PermissionStatus) bool {
	switch p {
	case "", location.PermissionUndetermined, location.PermissionGranted, location.PermissionDenied:
		return true
	}
	return false
}
