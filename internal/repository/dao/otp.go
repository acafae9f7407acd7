package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrOtpNotFound = errors.New("otp not found")

type Otp struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"not null;index:idx_otps_email_purpose"`
	Purpose   string    `gorm:"not null;index:idx_otps_email_purpose"`
	Code      string    `gorm:"not null"`
	Attempts  int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

type OtpDAO struct {
	db *gorm.DB
}

func NewOtpDAO(db *gorm.DB) *OtpDAO {
	return &OtpDAO{
		db: db,
	}
}

// Replace deletes any previous code for (email, purpose) and stores the new one.
func (d *OtpDAO) Replace(ctx context.Context, otp Otp) (Otp, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ?", otp.Email, otp.Purpose).
			Delete(&Otp{}).Error; err != nil {
			return err
		}

		return tx.Create(&otp).Error
	})
	if err != nil {
		return Otp{}, err
	}

	return otp, nil
}

func (d *OtpDAO) FindLatest(ctx context.Context, email, purpose string) (Otp, error) {
	var otp Otp

	result := d.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("id DESC").
		First(&otp)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Otp{}, ErrOtpNotFound
		}

		return Otp{}, result.Error
	}

	return otp, nil
}

// Attempt counts one verification try against the code. Once limit tries have
// been used the code is deleted and ErrOtpNotFound is returned.
func (d *OtpDAO) Attempt(ctx context.Context, id uint, limit int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Otp{}).
			Where("id = ? AND attempts < ?", id, limit).
			Update("attempts", gorm.Expr("attempts + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		if err := tx.Delete(&Otp{}, id).Error; err != nil {
			return err
		}

		return ErrOtpNotFound
	})
}

// Consume deletes the code. A code that was already consumed yields ErrOtpNotFound.
func (d *OtpDAO) Consume(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Otp{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOtpNotFound
	}

	return nil
}
