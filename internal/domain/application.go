package domain

import "time"

// ApplicationStatus represents the review state of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusAccepted ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// Application links a driver to a load. The shipper transitions its status
// server-side; the client never mutates it after creation.
type Application struct {
	ID          string            `json:"id"`
	LoadID      string            `json:"loadId"`
	ApplicantID string            `json:"applicantId"`
	Role        string            `json:"role"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	Load        *Load             `json:"load,omitempty"`
}
