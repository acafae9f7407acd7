package service

import (
	"errors"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
)

// Notifier queues a notification for a user. Implementations must not block.
type Notifier interface {
	Notify(userID uint, typ domain.NotificationType, message string)
}

func validationErr(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func isManagerOf(caller domain.User, event domain.Event) bool {
	return caller.ID == event.CreatorID || caller.Role == domain.RoleAdmin
}
