package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/mailer"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/otpcode"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = errors.New("wrong password")
	ErrUserLocked      = errors.New("account is locked")
	ErrInvalidOtp      = errors.New("invalid otp")
	ErrOtpExpired      = errors.New("otp expired")
	ErrRoleNotAllowed  = errors.New("role cannot be chosen at signup")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, email, hash string) error
}

type OtpRepository interface {
	Replace(ctx context.Context, otp domain.Otp) (domain.Otp, error)
	FindLatest(ctx context.Context, email string, purpose domain.OtpPurpose) (domain.Otp, error)
	Attempt(ctx context.Context, id uint, limit int) error
	Consume(ctx context.Context, id uint) error
}

type AuthService struct {
	repo        AuthUserRepository
	otps        OtpRepository
	mailer      mailer.Mailer
	ttl         time.Duration
	issuer      string
	maxAttempts int
	now         func() time.Time
}

func NewAuthService(repo AuthUserRepository, otps OtpRepository, m mailer.Mailer, conf *config.OtpConfig) *AuthService {
	ttl, issuer, maxAttempts := 5*time.Minute, "VolunteerHub", 5
	if conf != nil {
		if conf.TTL > 0 {
			ttl = conf.TTL
		}
		if conf.Issuer != "" {
			issuer = conf.Issuer
		}
		if conf.MaxAttempts > 0 {
			maxAttempts = conf.MaxAttempts
		}
	}
	if m == nil {
		m = mailer.LogMailer{}
	}

	return &AuthService{
		repo:        repo,
		otps:        otps,
		mailer:      m,
		ttl:         ttl,
		issuer:      issuer,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// RequestOtp issues a fresh code for (email, purpose), replacing older ones.
func (s *AuthService) RequestOtp(ctx context.Context, email string, purpose domain.OtpPurpose) (time.Time, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && purpose == domain.OtpPurposeRegister:
		return time.Time{}, ErrUserEmailExists
	case errors.Is(err, repository.ErrUserNotFound) && purpose == domain.OtpPurposeReset:
		return time.Time{}, ErrUserNotFound
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return time.Time{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	now := s.now()
	code, err := otpcode.Generate(s.issuer, email, s.ttl, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("otpcode.Generate -> %w", err)
	}

	stored, err := s.otps.Replace(ctx, domain.Otp{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("s.otps.Replace -> %w", err)
	}

	if err = s.mailer.SendOtp(ctx, mailer.OtpMessage{
		Email:     email,
		Code:      code,
		Purpose:   string(purpose),
		ExpiresAt: stored.ExpiresAt,
	}); err != nil {
		return time.Time{}, fmt.Errorf("s.mailer.SendOtp -> %w", err)
	}

	return stored.ExpiresAt, nil
}

func (s *AuthService) Signup(ctx context.Context, user domain.User, code string) (domain.User, error) {
	if user.Role != domain.RoleVolunteer && user.Role != domain.RoleEventManager {
		return domain.User{}, ErrRoleNotAllowed
	}

	if _, err := s.repo.FindByEmail(ctx, user.Email); err == nil {
		return domain.User{}, ErrUserEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err := s.verifyOtp(ctx, user.Email, domain.OtpPurposeRegister, code); err != nil {
		return domain.User{}, err
	}

	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}
	if user.IsLocked() {
		return domain.User{}, ErrUserLocked
	}

	return user, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, password string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err := s.verifyOtp(ctx, email, domain.OtpPurposeReset, code); err != nil {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	if err = s.repo.UpdatePassword(ctx, email, hash); err != nil {
		return fmt.Errorf("s.repo.UpdatePassword -> %w", err)
	}

	return nil
}

// verifyOtp checks the latest code for (email, purpose) and consumes it. Every
// try counts against the code, which is dropped after maxAttempts tries.
func (s *AuthService) verifyOtp(ctx context.Context, email string, purpose domain.OtpPurpose, code string) error {
	stored, err := s.otps.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return ErrInvalidOtp
		}
		return fmt.Errorf("s.otps.FindLatest -> %w", err)
	}

	if stored.Expired(s.now()) {
		return ErrOtpExpired
	}
	if err = s.otps.Attempt(ctx, stored.ID, s.maxAttempts); err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return ErrInvalidOtp
		}
		return fmt.Errorf("s.otps.Attempt -> %w", err)
	}
	if !otpcode.Equal(stored.Code, code) {
		return ErrInvalidOtp
	}

	if err = s.otps.Consume(ctx, stored.ID); err != nil {
		if errors.Is(err, repository.ErrOtpNotFound) {
			return ErrInvalidOtp
		}
		return fmt.Errorf("s.otps.Consume -> %w", err)
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}
