package domain

import "time"

type Post struct {
	ID        uint      `json:"id"`
	EventID   uint      `json:"event_id"`
	AuthorID  uint      `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	EventID   uint      `json:"event_id"`
	AuthorID  uint      `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventActionType string

const (
	EventActionLike  EventActionType = "like"
	EventActionShare EventActionType = "share"
	EventActionView  EventActionType = "view"
)

// EventCounters is the state of the like/share/view counters after an action.
type EventCounters struct {
	EventID uint `json:"event_id"`
	Likes   int  `json:"likes"`
	Shares  int  `json:"shares"`
	Views   int  `json:"views"`
	Liked   bool `json:"liked"`
}

type Stats struct {
	UsersByRole           map[Role]int64               `json:"users_by_role"`
	EventsByStatus        map[EventStatus]int64        `json:"events_by_status"`
	RegistrationsByStatus map[RegistrationStatus]int64 `json:"registrations_by_status"`
}
