package domain

import "time"

// JourneyStatus represents the current status of a journey.
type JourneyStatus string

const (
	JourneyStatusActive    JourneyStatus = "ACTIVE"
	JourneyStatusPaused    JourneyStatus = "PAUSED"
	JourneyStatusCompleted JourneyStatus = "COMPLETED"
)

// Journey represents one delivery run of an accepted load.
type Journey struct {
	ID               string        `json:"id"`
	LoadID           string        `json:"loadId"`
	DriverID         string        `json:"driverId"`
	StartTime        time.Time     `json:"startTime"`
	EndTime          *time.Time    `json:"endTime,omitempty"`
	Status           JourneyStatus `json:"status"`
	CurrentLatitude  *float64      `json:"currentLatitude,omitempty"`
	CurrentLongitude *float64      `json:"currentLongitude,omitempty"`
}

// LocationSample is a single device position reading. It is sent once and
// not retained after transmission.
type LocationSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Speed     float64 `json:"speed"`
	// Timestamp is milliseconds since the Unix epoch, as reported by the device.
	Timestamp int64 `json:"timestamp"`
}

// Position is the last known coordinate pair shown to the driver.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
