package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/webpush"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrNotificationNotFound = repository.ErrNotificationNotFound
	ErrSubscriptionNotFound = repository.ErrSubscriptionNotFound
)

const (
	persistAttempts = 3
	pushTimeout     = 10 * time.Second
)

// NotificationTopic is the event bus topic carrying a user's notifications.
func NotificationTopic(userID uint) string {
	return fmt.Sprintf("notifications:%d", userID)
}

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	SaveSubscription(ctx context.Context, sub domain.Subscription) (domain.Subscription, error)
	ListSubscriptions(ctx context.Context, userID uint) ([]domain.Subscription, error)
	DeleteSubscription(ctx context.Context, endpoint string, userID uint) error
}

// Dispatcher delivers notifications in the background. Jobs are persisted,
// published on the event bus and pushed to every browser subscription of
// the recipient.
type Dispatcher struct {
	repo    NotificationRepository
	bus     EventBus.Bus
	sender  webpush.Sender
	workers int
	backoff time.Duration

	jobs   chan domain.Notification
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(repo NotificationRepository, bus EventBus.Bus, sender webpush.Sender, conf *config.NotificationConfig) *Dispatcher {
	workers, queueSize := 4, 256
	if conf != nil {
		if conf.Workers > 0 {
			workers = conf.Workers
		}
		if conf.QueueSize > 0 {
			queueSize = conf.QueueSize
		}
	}
	if sender == nil {
		sender = webpush.NoopSender{}
	}

	return &Dispatcher{
		repo:    repo,
		bus:     bus,
		sender:  sender,
		workers: workers,
		backoff: 200 * time.Millisecond,
		jobs:    make(chan domain.Notification, queueSize),
	}
}

// Start launches the worker pool. Workers run until Stop drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.jobs {
				d.deliver(ctx, n)
			}
		}()
	}
}

// Stop refuses new jobs and waits for the queued ones to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Notify enqueues without blocking. When the queue is full the
// notification is dropped.
func (d *Dispatcher) Notify(userID uint, typ domain.NotificationType, message string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		zap.L().Warn("dispatcher stopped, dropping notification",
			zap.Uint("user_id", userID), zap.String("type", string(typ)))
		return
	}

	select {
	case d.jobs <- domain.Notification{UserID: userID, Type: typ, Message: message}:
	default:
		zap.L().Warn("notification queue full, dropping notification",
			zap.Uint("user_id", userID), zap.String("type", string(typ)))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification) {
	saved, err := d.persist(ctx, n)
	if err != nil {
		zap.L().Error("failed to persist notification",
			zap.Uint("user_id", n.UserID), zap.String("type", string(n.Type)), zap.Error(err))
		saved = n
		saved.CreatedAt = time.Now()
	}

	if d.bus != nil {
		d.bus.Publish(NotificationTopic(saved.UserID), saved)
	}

	d.push(ctx, saved)
}

func (d *Dispatcher) persist(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	var lastErr error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		saved, err := d.repo.Create(ctx, n)
		if err == nil {
			return saved, nil
		}
		lastErr = err

		if attempt < persistAttempts {
			zap.L().Warn("retrying notification persist",
				zap.Int("attempt", attempt), zap.Uint("user_id", n.UserID), zap.Error(err))
			time.Sleep(time.Duration(attempt) * d.backoff)
		}
	}

	return domain.Notification{}, fmt.Errorf("d.repo.Create -> %w", lastErr)
}

type pushPayload struct {
	ID      uint   `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (d *Dispatcher) push(ctx context.Context, n domain.Notification) {
	subs, err := d.repo.ListSubscriptions(ctx, n.UserID)
	if err != nil {
		zap.L().Warn("failed to load push subscriptions", zap.Uint("user_id", n.UserID), zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{ID: n.ID, Type: string(n.Type), Message: n.Message})
	if err != nil {
		zap.L().Error("failed to encode push payload", zap.Error(err))
		return
	}

	for _, sub := range subs {
		sendCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err := d.sender.Send(sendCtx, webpush.Subscription{
			Endpoint: sub.Endpoint,
			P256dh:   sub.P256dh,
			Auth:     sub.Auth,
		}, payload)
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, webpush.ErrSubscriptionGone):
			if err := d.repo.DeleteSubscription(ctx, sub.Endpoint, 0); err != nil && !errors.Is(err, repository.ErrSubscriptionNotFound) {
				zap.L().Warn("failed to delete gone subscription", zap.Uint("subscription_id", sub.ID), zap.Error(err))
			} else {
				zap.L().Info("deleted gone push subscription", zap.Uint("subscription_id", sub.ID))
			}
		default:
			zap.L().Warn("push delivery failed", zap.Uint("subscription_id", sub.ID), zap.Error(err))
		}
	}
}

type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{
		repo: repo,
	}
}

func (s *NotificationService) ListMine(ctx context.Context, caller domain.User) ([]domain.Notification, error) {
	ns, err := s.repo.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByUser -> %w", err)
	}

	return ns, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, caller domain.User, id uint) error {
	if err := s.repo.MarkRead(ctx, id, caller.ID); err != nil {
		return fmt.Errorf("s.repo.MarkRead -> %w", err)
	}

	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller domain.User) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, caller.ID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.MarkAllRead -> %w", err)
	}

	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller domain.User) (int64, error) {
	n, err := s.repo.CountUnread(ctx, caller.ID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.CountUnread -> %w", err)
	}

	return n, nil
}

func (s *NotificationService) Subscribe(ctx context.Context, caller domain.User, sub domain.Subscription) (domain.Subscription, error) {
	sub.UserID = caller.ID

	saved, err := s.repo.SaveSubscription(ctx, sub)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("s.repo.SaveSubscription -> %w", err)
	}

	return saved, nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, caller domain.User, endpoint string) error {
	if err := s.repo.DeleteSubscription(ctx, endpoint, caller.ID); err != nil {
		return fmt.Errorf("s.repo.DeleteSubscription -> %w", err)
	}

	return nil
}
