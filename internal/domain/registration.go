package domain

import (
	"fmt"
	"time"
)

type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusApproved  RegistrationStatus = "approved"
	RegistrationStatusRejected  RegistrationStatus = "rejected"
	RegistrationStatusCompleted RegistrationStatus = "completed"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	switch RegistrationStatus(s) {
	case RegistrationStatusPending,
		RegistrationStatusApproved,
		RegistrationStatusRejected,
		RegistrationStatusCompleted,
		RegistrationStatusCancelled:
		return RegistrationStatus(s), nil
	default:
		return "", fmt.Errorf("unknown registration status %q", s)
	}
}

type Registration struct {
	ID            uint               `json:"id"`
	EventID       uint               `json:"event_id"`
	VolunteerID   uint               `json:"volunteer_id"`
	Status        RegistrationStatus `json:"status"`
	CancelRequest bool               `json:"cancel_request"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Event     *Event `json:"event,omitempty"`
	Volunteer *User  `json:"volunteer,omitempty"`
}
