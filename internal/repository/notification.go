package repository

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

var (
	ErrNotificationNotFound = dao.ErrNotificationNotFound
	ErrSubscriptionNotFound = dao.ErrSubscriptionNotFound
)

type NotificationDAO interface {
	Insert(ctx context.Context, n dao.Notification) (dao.Notification, error)
	ListByUser(ctx context.Context, userID uint) ([]dao.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	UpsertSubscription(ctx context.Context, sub dao.Subscription) (dao.Subscription, error)
	ListSubscriptions(ctx context.Context, userID uint) ([]dao.Subscription, error)
	DeleteSubscription(ctx context.Context, endpoint string, userID uint) error
}

type NotificationRepository struct {
	dao NotificationDAO
}

func NewNotificationRepository(dao NotificationDAO) *NotificationRepository {
	return &NotificationRepository{
		dao: dao,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	created, err := r.dao.Insert(ctx, dao.Notification{
		UserID:  n.UserID,
		Type:    string(n.Type),
		Message: n.Message,
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Notification, error) {
	found, err := r.dao.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByUser -> %w", err)
	}

	ns := make([]domain.Notification, len(found))
	for i, n := range found {
		ns[i] = r.daoToDomain(n)
	}

	return ns, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	if err := r.dao.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("r.dao.MarkRead -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := r.dao.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.MarkAllRead -> %w", err)
	}

	return n, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	n, err := r.dao.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountUnread -> %w", err)
	}

	return n, nil
}

func (r *NotificationRepository) SaveSubscription(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	saved, err := r.dao.UpsertSubscription(ctx, dao.Subscription{
		UserID:   sub.UserID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("r.dao.UpsertSubscription -> %w", err)
	}

	return r.subscriptionDaoToDomain(saved), nil
}

func (r *NotificationRepository) ListSubscriptions(ctx context.Context, userID uint) ([]domain.Subscription, error) {
	found, err := r.dao.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListSubscriptions -> %w", err)
	}

	subs := make([]domain.Subscription, len(found))
	for i, s := range found {
		subs[i] = r.subscriptionDaoToDomain(s)
	}

	return subs, nil
}

func (r *NotificationRepository) DeleteSubscription(ctx context.Context, endpoint string, userID uint) error {
	if err := r.dao.DeleteSubscription(ctx, endpoint, userID); err != nil {
		return fmt.Errorf("r.dao.DeleteSubscription -> %w", err)
	}

	return nil
}

func (r *NotificationRepository) daoToDomain(n dao.Notification) domain.Notification {
	return domain.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      domain.NotificationType(n.Type),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (r *NotificationRepository) subscriptionDaoToDomain(s dao.Subscription) domain.Subscription {
	return domain.Subscription{
		ID:        s.ID,
		UserID:    s.UserID,
		Endpoint:  s.Endpoint,
		P256dh:    s.P256dh,
		Auth:      s.Auth,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
