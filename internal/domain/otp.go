package domain

import (
	"fmt"
	"time"
)

type OtpPurpose string

const (
	OtpPurposeRegister OtpPurpose = "REGISTER"
	OtpPurposeReset    OtpPurpose = "RESET"
)

func ParseOtpPurpose(s string) (OtpPurpose, error) {
	switch OtpPurpose(s) {
	case OtpPurposeRegister:
		return OtpPurposeRegister, nil
	case OtpPurposeReset:
		return OtpPurposeReset, nil
	default:
		return "", fmt.Errorf("unknown otp purpose %q", s)
	}
}

type Otp struct {
	ID        uint
	Email     string
	Code      string
	Purpose   OtpPurpose
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (o Otp) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
