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
	ErrEventNotFound       = errors.New("event not found")
	ErrEventNotPending     = errors.New("event is not pending")
	ErrInvalidEventAction  = errors.New("invalid event action")
	ErrEventNotCompletable = errors.New("event cannot be completed")
)

type Event struct {
	ID              uint      `gorm:"primaryKey"`
	Name            string    `gorm:"not null"`
	Description     string    `gorm:"type:text;not null"`
	Date            time.Time `gorm:"not null"`
	EndDate         time.Time `gorm:"not null;index"`
	Location        string    `gorm:"not null"`
	Category        string    `gorm:"not null"`
	Points          int       `gorm:"not null"`
	CoverImage      string
	Images          []string `gorm:"type:text;serializer:json"`
	Status          string   `gorm:"not null;index"`
	CreatorID       uint     `gorm:"not null;index"`
	MaxParticipants int      `gorm:"not null;default:0"`
	Likes           int      `gorm:"not null;default:0"`
	Shares          int      `gorm:"not null;default:0"`
	Views           int      `gorm:"not null;default:0"`
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EventAction struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   uint   `gorm:"not null;uniqueIndex:idx_event_actions_event_user_type"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_event_actions_event_user_type"`
	Type      string `gorm:"not null;uniqueIndex:idx_event_actions_event_user_type"`
	CreatedAt time.Time
}

// Completion is what a successful approved -> completed flip paid out.
type Completion struct {
	EventID      uint
	CreatorID    uint
	VolunteerIDs []uint
}

type EventCounters struct {
	EventID uint
	Likes   int
	Shares  int
	Views   int
	Liked   bool
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// List returns events newest first. Empty filters are ignored.
func (d *EventDAO) List(ctx context.Context, status string, creatorID uint) ([]Event, error) {
	var events []Event

	q := d.db.WithContext(ctx).Order("date DESC").Order("id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if creatorID != 0 {
		q = q.Where("creator_id = ?", creatorID)
	}
	if result := q.Find(&events); result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// UpdatePending overwrites the editable fields of an event that is still pending.
func (d *EventDAO) UpdatePending(ctx context.Context, event Event) (Event, error) {
	var updated Event

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND status = ?", event.ID, string(domain.EventStatusPending)).
			Select("name", "description", "date", "end_date", "location", "category",
				"points", "cover_image", "images", "max_participants").
			Updates(&event)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return d.missingOr(tx, event.ID, ErrEventNotPending)
		}

		return tx.First(&updated, event.ID).Error
	})
	if err != nil {
		return Event{}, err
	}

	return updated, nil
}

// Review moves a pending event to approved or rejected.
func (d *EventDAO) Review(ctx context.Context, id uint, status string) (Event, error) {
	var reviewed Event

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND status = ?", id, string(domain.EventStatusPending)).
			Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return d.missingOr(tx, id, ErrEventNotPending)
		}

		return tx.First(&reviewed, id).Error
	})
	if err != nil {
		return Event{}, err
	}

	return reviewed, nil
}

// Complete flips an approved event to completed and pays the creator and
// every approved volunteer in the same transaction. When the flip matches
// no row nothing is paid and ErrEventNotCompletable is returned.
func (d *EventDAO) Complete(ctx context.Context, id uint, now time.Time, creatorBonus, volunteerBonus int) (Completion, error) {
	var completion Completion

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND status = ?", id, string(domain.EventStatusApproved)).
			Updates(map[string]any{
				"status":       string(domain.EventStatusCompleted),
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotCompletable
		}

		var event Event
		if err := tx.First(&event, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&User{}).Where("id = ?", event.CreatorID).
			UpdateColumn("points", gorm.Expr("points + ?", creatorBonus)).Error; err != nil {
			return err
		}

		var volunteerIDs []uint
		if err := tx.Model(&Registration{}).
			Where("event_id = ? AND status = ?", id, string(domain.RegistrationStatusApproved)).
			Order("volunteer_id").
			Pluck("volunteer_id", &volunteerIDs).Error; err != nil {
			return err
		}

		if len(volunteerIDs) > 0 {
			if err := tx.Model(&User{}).Where("id IN ?", volunteerIDs).
				UpdateColumn("points", gorm.Expr("points + ?", volunteerBonus)).Error; err != nil {
				return err
			}
		}

		completion = Completion{
			EventID:      id,
			CreatorID:    event.CreatorID,
			VolunteerIDs: volunteerIDs,
		}

		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	return completion, nil
}

// FindDue lists approved events whose end date is before now.
func (d *EventDAO) FindDue(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint

	result := d.db.WithContext(ctx).Model(&Event{}).
		Where("status = ? AND end_date < ?", string(domain.EventStatusApproved), now).
		Order("id").
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// Delete removes the event together with its comments, posts, actions and
// registrations. The deleted row is returned so callers can clean up assets.
func (d *EventDAO) Delete(ctx context.Context, id uint) (Event, error) {
	var event Event

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		for _, model := range []any{&Comment{}, &Post{}, &EventAction{}, &Registration{}} {
			if err := tx.Where("event_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&Event{}, id).Error
	})
	if err != nil {
		return Event{}, err
	}

	return event, nil
}

// ParticipantCounts counts approved and completed registrations per event.
func (d *EventDAO) ParticipantCounts(ctx context.Context, ids []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uint
		Count   int
	}
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ? AND status IN ?", ids, []string{
			string(domain.RegistrationStatusApproved),
			string(domain.RegistrationStatusCompleted),
		}).
		Group("event_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	for _, r := range rows {
		counts[r.EventID] = r.Count
	}

	return counts, nil
}

// RecordAction applies a like, share or view by a user. Shares and views
// count once per user; likes toggle.
func (d *EventDAO) RecordAction(ctx context.Context, eventID, userID uint, actionType string) (EventCounters, error) {
	column, ok := map[string]string{
		string(domain.EventActionLike):  "likes",
		string(domain.EventActionShare): "shares",
		string(domain.EventActionView):  "views",
	}[actionType]
	if !ok {
		return EventCounters{}, ErrInvalidEventAction
	}

	var counters EventCounters

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		q := tx
		if isPostgres(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&event, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var existing EventAction
		found := true
		if err := tx.Where("event_id = ? AND user_id = ? AND type = ?", eventID, userID, actionType).
			First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		delta := 0
		switch {
		case !found:
			if err := tx.Create(&EventAction{EventID: eventID, UserID: userID, Type: actionType}).Error; err != nil {
				return err
			}
			delta = 1
		case actionType == string(domain.EventActionLike):
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			delta = -1
		}

		if delta != 0 {
			if err := tx.Model(&Event{}).Where("id = ?", eventID).
				UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
				return err
			}
		}

		if err := tx.First(&event, eventID).Error; err != nil {
			return err
		}

		var liked int64
		if err := tx.Model(&EventAction{}).
			Where("event_id = ? AND user_id = ? AND type = ?", eventID, userID, string(domain.EventActionLike)).
			Count(&liked).Error; err != nil {
			return err
		}

		counters = EventCounters{
			EventID: event.ID,
			Likes:   event.Likes,
			Shares:  event.Shares,
			Views:   event.Views,
			Liked:   liked > 0,
		}

		return nil
	})
	if err != nil {
		return EventCounters{}, err
	}

	return counters, nil
}

func (d *EventDAO) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(d.db.WithContext(ctx), &Event{}, "status")
}

// missingOr reports ErrEventNotFound when the event is gone and otherwise the
// supplied state error.
func (d *EventDAO) missingOr(tx *gorm.DB, id uint, stateErr error) error {
	var count int64
	if err := tx.Model(&Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrEventNotFound
	}

	return stateErr
}
