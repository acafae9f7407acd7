package repository

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

var ErrOtpNotFound = dao.ErrOtpNotFound

type OtpDAO interface {
	Replace(ctx context.Context, otp dao.Otp) (dao.Otp, error)
	FindLatest(ctx context.Context, email, purpose string) (dao.Otp, error)
	Attempt(ctx context.Context, id uint, limit int) error
	Consume(ctx context.Context, id uint) error
}

type OtpRepository struct {
	dao OtpDAO
}

func NewOtpRepository(dao OtpDAO) *OtpRepository {
	return &OtpRepository{
		dao: dao,
	}
}

func (r *OtpRepository) Replace(ctx context.Context, otp domain.Otp) (domain.Otp, error) {
	stored, err := r.dao.Replace(ctx, dao.Otp{
		Email:     otp.Email,
		Purpose:   string(otp.Purpose),
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt.UTC(),
	})
	if err != nil {
		return domain.Otp{}, fmt.Errorf("r.dao.Replace -> %w", err)
	}

	return r.daoToDomain(stored), nil
}

func (r *OtpRepository) FindLatest(ctx context.Context, email string, purpose domain.OtpPurpose) (domain.Otp, error) {
	found, err := r.dao.FindLatest(ctx, email, string(purpose))
	if err != nil {
		return domain.Otp{}, fmt.Errorf("r.dao.FindLatest -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *OtpRepository) Attempt(ctx context.Context, id uint, limit int) error {
	if err := r.dao.Attempt(ctx, id, limit); err != nil {
		return fmt.Errorf("r.dao.Attempt -> %w", err)
	}

	return nil
}

func (r *OtpRepository) Consume(ctx context.Context, id uint) error {
	if err := r.dao.Consume(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Consume -> %w", err)
	}

	return nil
}

func (r *OtpRepository) daoToDomain(o dao.Otp) domain.Otp {
	return domain.Otp{
		ID:        o.ID,
		Email:     o.Email,
		Code:      o.Code,
		Purpose:   domain.OtpPurpose(o.Purpose),
		Attempts:  o.Attempts,
		ExpiresAt: o.ExpiresAt,
		CreatedAt: o.CreatedAt,
	}
}
