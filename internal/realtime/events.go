package realtime

import "encoding/json"

// Event names a message on the realtime channel.
type Event string

const (
	EventLocationUpdate Event = "location-update"
	EventJourneyStatus  Event = "journey-status"
	EventNewMessage     Event = "new-message"
	EventJoinJourney    Event = "join-journey"
	EventLeaveJourney   Event = "leave-journey"
	EventSendMessage    Event = "send-message"
)

// Envelope is the JSON frame exchanged with the backend.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Mode is the health of the realtime channel as seen by consumers.
type Mode string

const (
	ModeConnected Mode = "CONNECTED"
	ModeDegraded  Mode = "DEGRADED"
)

// JourneyRoom is the payload of join-journey and leave-journey.
type JourneyRoom struct {
	JourneyID string `json:"journeyId"`
}

// JourneyStatusUpdate is the payload of journey-status.
type JourneyStatusUpdate struct {
	JourneyID string `json:"journeyId"`
	Status    string `json:"status"`
}
