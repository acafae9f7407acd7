package domain

import (
	"fmt"
	"time"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusRejected  EventStatus = "rejected"
	EventStatusCompleted EventStatus = "completed"
)

func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(s) {
	case EventStatusPending, EventStatusApproved, EventStatusRejected, EventStatusCompleted:
		return EventStatus(s), nil
	default:
		return "", fmt.Errorf("unknown event status %q", s)
	}
}

const (
	// ManagerCompletionBonus is paid to the creator when an event completes.
	ManagerCompletionBonus = 20
	// VolunteerCompletionBonus is paid to every approved volunteer when an event completes.
	VolunteerCompletionBonus = 10
	// DefaultCategoryPoints applies to categories missing from the table.
	DefaultCategoryPoints = 10
)

const (
	CategoryEmergency    = "Emergency"
	CategoryTechnical    = "Technical"
	CategoryEnvironment  = "Environment"
	CategoryHealthcare   = "Healthcare"
	CategoryEducation    = "Education"
	CategoryCommunity    = "Community"
	CategoryCorporate    = "Corporate"
	CategoryEventSupport = "EventSupport"
	CategoryOnline       = "Online"
)

var categoryPoints = map[string]int{
	CategoryEmergency:    35,
	CategoryTechnical:    25,
	CategoryEnvironment:  25,
	CategoryHealthcare:   20,
	CategoryEducation:    20,
	CategoryCommunity:    15,
	CategoryCorporate:    15,
	CategoryEventSupport: 10,
	CategoryOnline:       10,
}

// Categories lists the fixed event categories.
func Categories() []string {
	return []string{
		CategoryEmergency,
		CategoryTechnical,
		CategoryEnvironment,
		CategoryHealthcare,
		CategoryEducation,
		CategoryCommunity,
		CategoryCorporate,
		CategoryEventSupport,
		CategoryOnline,
	}
}

func CategoryPoints(category string) int {
	if p, ok := categoryPoints[category]; ok {
		return p
	}
	return DefaultCategoryPoints
}

type Event struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Date            time.Time   `json:"date"`
	EndDate         time.Time   `json:"end_date"`
	Location        string      `json:"location"`
	Category        string      `json:"category"`
	Points          int         `json:"points"`
	CoverImage      string      `json:"cover_image,omitempty"`
	Images          []string    `json:"images"`
	Status          EventStatus `json:"status"`
	CreatorID       uint        `json:"creator_id"`
	MaxParticipants int         `json:"max_participants"` // 0 means unlimited
	Likes           int         `json:"likes"`
	Shares          int         `json:"shares"`
	Views           int         `json:"views"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	ParticipantCount int `json:"participant_count"`
}

func (e Event) HasCapacity() bool {
	return e.MaxParticipants > 0
}

// Assets returns every stored image reference of the event.
func (e Event) Assets() []string {
	refs := make([]string, 0, len(e.Images)+1)
	if e.CoverImage != "" {
		refs = append(refs, e.CoverImage)
	}
	return append(refs, e.Images...)
}

// CompletionResult describes the payout applied by a completion.
type CompletionResult struct {
	EventID        uint   `json:"event_id"`
	CreatorID      uint   `json:"creator_id"`
	CreatorBonus   int    `json:"creator_bonus"`
	VolunteerIDs   []uint `json:"volunteer_ids"`
	VolunteerBonus int    `json:"volunteer_bonus"`
}
