package domain

import "time"

type NotificationType string

const (
	NotificationRegistrationApproved  NotificationType = "registration_approved"
	NotificationRegistrationRejected  NotificationType = "registration_rejected"
	NotificationRegistrationCompleted NotificationType = "registration_completed"
	NotificationNewRegistration       NotificationType = "new_registration"
	NotificationCancelRequested       NotificationType = "cancel_requested"
	NotificationCancelApproved        NotificationType = "cancel_approved"
	NotificationCancelRejected        NotificationType = "cancel_rejected"
	NotificationEventApproved         NotificationType = "event_approved"
	NotificationEventRejected         NotificationType = "event_rejected"
	NotificationEventCompleted        NotificationType = "event_completed"
)

type Notification struct {
	ID        uint             `json:"id"`
	UserID    uint             `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Subscription is a web push endpoint registered by a browser.
type Subscription struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
