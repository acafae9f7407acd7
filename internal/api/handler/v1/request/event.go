package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EventRequest is bound from either multipart form fields or JSON. Images
// travel as multipart files and are handled separately.
type EventRequest struct {
	Name            string    `json:"name" form:"name"`
	Description     string    `json:"description" form:"description"`
	Date            time.Time `json:"date" form:"date"`
	EndDate         time.Time `json:"end_date" form:"end_date"`
	Location        string    `json:"location" form:"location"`
	Category        string    `json:"category" form:"category"`
	MaxParticipants *int      `json:"max_participants,omitempty" form:"max_participants"`
}

func (req *EventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Description, validation.Required),
		validation.Field(&req.Date, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.Location, validation.Required),
		validation.Field(&req.Category, validation.Required),
	)
}
