package domain

import (
	"strings"
	"time"
)

// RoleDriver is the only role allowed to sign in to the driver agent.
const RoleDriver = "DRIVER"

// User represents the signed-in identity.
type User struct {
	ID     string   `json:"id"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name"`
	Phone  string   `json:"phone"`
	Role   string   `json:"role"`
	Rating *float64 `json:"rating,omitempty"`
}

// IsDriver reports whether the user holds the driver role.
func (u User) IsDriver() bool {
	return strings.EqualFold(u.Role, RoleDriver)
}

// Reviewer is the author of a review.
type Reviewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Review is a rating left for a user after a completed load.
type Review struct {
	ID        string    `json:"id"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Reviewer  Reviewer  `json:"reviewer"`
}
