package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

var (
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationExists       = errors.New("already registered for this event")
	ErrCapacityExceeded         = errors.New("event capacity exceeded")
	ErrEventNotOpen             = errors.New("event is not open for registration")
	ErrRegistrationStateChanged = errors.New("registration state changed")
)

type Registration struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       uint   `gorm:"not null;uniqueIndex:idx_registrations_event_volunteer"`
	VolunteerID   uint   `gorm:"not null;uniqueIndex:idx_registrations_event_volunteer;index"`
	Status        string `gorm:"not null;index"`
	CancelRequest bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Event     Event `gorm:"foreignKey:EventID"`
	Volunteer User  `gorm:"foreignKey:VolunteerID"`
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// Register inserts a pending registration. The event must be approved, the
// pair must be new and, when the event has a capacity, the number of pending
// and approved registrations must stay below it. On postgres the event row is
// locked for the duration of the check.
func (d *RegistrationDAO) Register(ctx context.Context, eventID, volunteerID uint) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if isPostgres(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var event Event
		if err := q.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != string(domain.EventStatusApproved) {
			return ErrEventNotOpen
		}

		var existing int64
		if err := tx.Model(&Registration{}).
			Where("event_id = ? AND volunteer_id = ?", eventID, volunteerID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrRegistrationExists
		}

		if event.MaxParticipants > 0 {
			var active int64
			if err := tx.Model(&Registration{}).
				Where("event_id = ? AND status IN ?", eventID, []string{
					string(domain.RegistrationStatusPending),
					string(domain.RegistrationStatusApproved),
				}).
				Count(&active).Error; err != nil {
				return err
			}
			if active >= int64(event.MaxParticipants) {
				return ErrCapacityExceeded
			}
		}

		reg = Registration{
			EventID:     eventID,
			VolunteerID: volunteerID,
			Status:      string(domain.RegistrationStatusPending),
		}
		if err := tx.Omit(clause.Associations).Create(&reg).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrRegistrationExists
			}
			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByEventAndVolunteer(ctx context.Context, eventID, volunteerID uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND volunteer_id = ?", eventID, volunteerID).
		First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) ListByVolunteer(ctx context.Context, volunteerID uint) ([]Registration, error) {
	var regs []Registration

	result := d.db.WithContext(ctx).
		Preload("Event").
		Where("volunteer_id = ?", volunteerID).
		Order("created_at DESC").Order("id DESC").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

func (d *RegistrationDAO) ListByEvent(ctx context.Context, eventID uint) ([]Registration, error) {
	var regs []Registration

	result := d.db.WithContext(ctx).
		Preload("Volunteer").
		Where("event_id = ?", eventID).
		Order("created_at").Order("id").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

// HasParticipant reports whether the user holds an approved or completed
// registration for the event.
func (d *RegistrationDAO) HasParticipant(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND volunteer_id = ? AND status IN ?", eventID, userID, []string{
			string(domain.RegistrationStatusApproved),
			string(domain.RegistrationStatusCompleted),
		}).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// DeletePending removes a registration that is still pending.
func (d *RegistrationDAO) DeletePending(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(domain.RegistrationStatusPending)).
		Delete(&Registration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRegistrationStateChanged
	}

	return nil
}

// Transition applies values to the registration only if every condition
// still holds, which keeps concurrent managers from racing each other.
func (d *RegistrationDAO) Transition(ctx context.Context, id uint, conditions, values map[string]any) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		reg, err = transition(tx, id, conditions, values)
		return err
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// Complete marks an approved registration without a pending cancellation as
// completed and pays the volunteer bonus while the event is still approved.
// Event completion pays approved registrations only, so each volunteer is paid
// once. The event row is locked first on postgres so both paths serialize.
func (d *RegistrationDAO) Complete(ctx context.Context, id uint, bonus int) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Registration
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		q := tx
		if isPostgres(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var event Event
		if err := q.First(&event, current.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var err error
		reg, err = transition(tx, id,
			map[string]any{"status": string(domain.RegistrationStatusApproved), "cancel_request": false},
			map[string]any{"status": string(domain.RegistrationStatusCompleted)},
		)
		if err != nil {
			return err
		}

		if event.Status != string(domain.EventStatusApproved) {
			return nil
		}

		return tx.Model(&User{}).Where("id = ?", reg.VolunteerID).
			UpdateColumn("points", gorm.Expr("points + ?", bonus)).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func transition(tx *gorm.DB, id uint, conditions, values map[string]any) (Registration, error) {
	result := tx.Model(&Registration{}).
		Where("id = ?", id).
		Where(conditions).
		Updates(values)
	if result.Error != nil {
		return Registration{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Registration{}, ErrRegistrationStateChanged
	}

	var reg Registration
	if err := tx.First(&reg, id).Error; err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func (d *RegistrationDAO) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(d.db.WithContext(ctx), &Registration{}, "status")
}
