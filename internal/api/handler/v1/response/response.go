package response

import (
	"time"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type OtpResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CancelResponse struct {
	Deleted      bool                 `json:"deleted"`
	Registration *domain.Registration `json:"registration,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type VAPIDKeyResponse struct {
	PublicKey string `json:"public_key"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
