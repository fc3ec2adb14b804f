package location

import (
	"context"
	"errors"
	"time"
)

// Accuracy is the precision requested from the device positioning service.
type Accuracy string

const (
	AccuracyBalanced Accuracy = "balanced"
	AccuracyHigh     Accuracy = "high"
)

// PermissionStatus mirrors the device's location permission state.
type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

var (
	// ErrPermissionDenied is returned when foreground location access is not granted.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrNoFix is returned when the device has not reported a position yet.
	ErrNoFix = errors.New("no position fix available")

	// ErrStaleFix is returned when the latest fix is older than the allowed age.
	ErrStaleFix = errors.New("position fix is stale")

	// ErrInvalidFix is returned for coordinates outside the valid range.
	ErrInvalidFix = errors.New("invalid position fix")
)

// Fix is one reading of the device position.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Provider is the device location API.
type Provider interface {
	RequestForegroundPermission(ctx context.Context) (PermissionStatus, error)
	RequestBackgroundPermission(ctx context.Context) (PermissionStatus, error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Fix, error)
}

// ValidCoordinates reports whether lat/lng fall inside the WGS84 range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
