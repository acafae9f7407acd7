package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleVolunteer    Role = "VOLUNTEER"
	RoleEventManager Role = "EVENTMANAGER"
	RoleAdmin        Role = "ADMIN"
)

// ParseRole only accepts the exact enumeration values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVolunteer:
		return RoleVolunteer, nil
	case RoleEventManager:
		return RoleEventManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanManageEvents reports whether the role may create and manage events.
func (r Role) CanManageEvents() bool {
	switch r {
	case RoleEventManager, RoleAdmin:
		return true
	case RoleVolunteer:
		return false
	default:
		return false
	}
}

type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(s) {
	case UserStatusActive:
		return UserStatusActive, nil
	case UserStatusLocked:
		return UserStatusLocked, nil
	default:
		return "", fmt.Errorf("unknown user status %q", s)
	}
}

type User struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	Points    int        `json:"points"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u User) IsLocked() bool {
	return u.Status == UserStatusLocked
}
