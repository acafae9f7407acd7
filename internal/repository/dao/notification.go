package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Type      string `gorm:"not null"`
	Message   string `gorm:"type:text;not null"`
	Read      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

type Subscription struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Endpoint  string `gorm:"type:text;not null;uniqueIndex"`
	P256dh    string `gorm:"not null"`
	Auth      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NotificationDAO struct {
	db *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{
		db: db,
	}
}

func (d *NotificationDAO) Insert(ctx context.Context, n Notification) (Notification, error) {
	result := d.db.WithContext(ctx).Create(&n)
	if result.Error != nil {
		return Notification{}, result.Error
	}

	return n, nil
}

func (d *NotificationDAO) ListByUser(ctx context.Context, userID uint) ([]Notification, error) {
	var ns []Notification

	result := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&ns)
	if result.Error != nil {
		return nil, result.Error
	}

	return ns, nil
}

func (d *NotificationDAO) MarkRead(ctx context.Context, id, userID uint) error {
	result := d.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

func (d *NotificationDAO) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *NotificationDAO) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// UpsertSubscription stores the subscription keyed by endpoint. An existing
// endpoint is reassigned to the new user and keys.
func (d *NotificationDAO) UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	result := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(&sub)
	if result.Error != nil {
		return Subscription{}, result.Error
	}

	var stored Subscription
	if err := d.db.WithContext(ctx).Where("endpoint = ?", sub.Endpoint).First(&stored).Error; err != nil {
		return Subscription{}, err
	}

	return stored, nil
}

func (d *NotificationDAO) ListSubscriptions(ctx context.Context, userID uint) ([]Subscription, error) {
	var subs []Subscription

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&subs)
	if result.Error != nil {
		return nil, result.Error
	}

	return subs, nil
}

// DeleteSubscription removes the endpoint. A non-zero userID restricts the
// delete to subscriptions owned by that user.
func (d *NotificationDAO) DeleteSubscription(ctx context.Context, endpoint string, userID uint) error {
	q := d.db.WithContext(ctx).Where("endpoint = ?", endpoint)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}

	result := q.Delete(&Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}
