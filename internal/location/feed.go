package location

import (
	"context"
	"sync"
	"time"
)

// DeviceFeed is a Provider fed by the UI shell: the shell pushes the fixes and
// permission grants it receives from the operating system, and the agent reads
// the latest one when it samples.
type DeviceFeed struct {
	mu         sync.RWMutex
	fix        *Fix
	foreground PermissionStatus
	background PermissionStatus
	requested  Accuracy
	maxAge     time.Duration
	now        func() time.Time
}

// NewDeviceFeed creates a DeviceFeed. Fixes older than maxAge are rejected;
// zero disables the age check.
func NewDeviceFeed(maxAge time.Duration) *DeviceFeed {
	return &DeviceFeed{
		foreground: PermissionUndetermined,
		background: PermissionUndetermined,
		requested:  AccuracyBalanced,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Push records a new fix reported by the device.
func (d *DeviceFeed) Push(fix Fix) error {
	if !ValidCoordinates(fix.Latitude, fix.Longitude) {
		return ErrInvalidFix
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = d.now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.fix = &fix
	return nil
}

// SetPermissions records the permission grants reported by the device.
// Empty values leave the current status untouched.
func (d *DeviceFeed) SetPermissions(foreground, background PermissionStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if foreground != "" {
		d.foreground = foreground
	}
	if background != "" {
		d.background = background
	}
}

// RequestedAccuracy returns the accuracy most recently asked for by a sampler,
// so the shell can run the positioning hardware accordingly.
func (d *DeviceFeed) RequestedAccuracy() Accuracy {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.requested
}

func (d *DeviceFeed) RequestForegroundPermission(ctx context.Context) (PermissionStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.foreground, nil
}

func (d *DeviceFeed) RequestBackgroundPermission(ctx context.Context) (PermissionStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.background, nil
}

func (d *DeviceFeed) CurrentPosition(ctx context.Context, accuracy Accuracy) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.requested = accuracy
	if d.foreground != PermissionGranted {
		return Fix{}, ErrPermissionDenied
	}
	if d.fix == nil {
		return Fix{}, ErrNoFix
	}
	if d.maxAge > 0 && d.now().Sub(d.fix.Timestamp) > d.maxAge {
		return Fix{}, ErrStaleFix
	}
	return *d.fix, nil
}

var _ Provider = (*DeviceFeed)(nil)
