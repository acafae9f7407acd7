package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/config"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/webpush"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/testutil"
)

type fakeSender struct {
	mu   sync.Mutex
	gone map[string]bool
	sent map[string][][]byte
}

func (s *fakeSender) Send(_ context.Context, sub webpush.Subscription, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gone[sub.Endpoint] {
		return webpush.ErrSubscriptionGone
	}
	if s.sent == nil {
		s.sent = make(map[string][][]byte)
	}
	s.sent[sub.Endpoint] = append(s.sent[sub.Endpoint], payload)
	return nil
}

func (s *fakeSender) payloads(endpoint string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[endpoint]
}

// flakyRepo fails the first failures calls to Create.
type flakyRepo struct {
	NotificationRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()

	if fail {
		return domain.Notification{}, errors.New("database is locked")
	}
	return r.NotificationRepository.Create(ctx, n)
}

func newNotificationRepo(t *testing.T) *repository.NotificationRepository {
	t.Helper()
	return repository.NewNotificationRepository(dao.NewNotificationDAO(testutil.NewSQLiteDB(t)))
}

func TestDispatcher_Deliver(t *testing.T) {
	ctx := context.Background()
	repo := newNotificationRepo(t)
	bus := EventBus.New()
	sender := &fakeSender{gone: map[string]bool{"https://push.example.com/gone": true}}

	for _, endpoint := range []string{"https://push.example.com/live", "https://push.example.com/gone"} {
		_, err := repo.SaveSubscription(ctx, domain.Subscription{UserID: 7, Endpoint: endpoint, P256dh: "key", Auth: "auth"})
		require.NoError(t, err)
	}

	published := make(chan domain.Notification, 1)
	require.NoError(t, bus.Subscribe(NotificationTopic(7), func(n domain.Notification) {
		published <- n
	}))

	d := NewDispatcher(repo, bus, sender, &config.NotificationConfig{Workers: 2, QueueSize: 8})
	d.Start(ctx)
	d.Notify(7, domain.NotificationEventApproved, "Your event was approved")
	d.Stop()

	select {
	case n := <-published:
		assert.NotZero(t, n.ID)
		assert.Equal(t, domain.NotificationEventApproved, n.Type)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}

	stored, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Your event was approved", stored[0].Message)
	assert.False(t, stored[0].Read)

	payloads := sender.payloads("https://push.example.com/live")
	require.Len(t, payloads, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(payloads[0], &body))
	assert.Equal(t, "event_approved", body["type"])
	assert.Equal(t, "Your event was approved", body["message"])

	subs, err := repo.ListSubscriptions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example.com/live", subs[0].Endpoint)
}

func TestDispatcher_PersistRetry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		failures int
		stored   int
	}{
		{name: "recovers", failures: 2, stored: 1},
		{name: "gives up", failures: persistAttempts, stored: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &flakyRepo{NotificationRepository: newNotificationRepo(t), failures: tt.failures}

			bus := EventBus.New()
			var published int
			require.NoError(t, bus.Subscribe(NotificationTopic(3), func(domain.Notification) { published++ }))

			d := NewDispatcher(repo, bus, nil, &config.NotificationConfig{Workers: 1, QueueSize: 1})
			d.backoff = 0
			d.Start(ctx)
			d.Notify(3, domain.NotificationEventRejected, "rejected")
			d.Stop()

			stored, err := repo.ListByUser(ctx, 3)
			require.NoError(t, err)
			assert.Len(t, stored, tt.stored)
			assert.Equal(t, 1, published)
			assert.Equal(t, min(tt.failures+1, persistAttempts), repo.calls)
		})
	}
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	d := NewDispatcher(newNotificationRepo(t), nil, nil, &config.NotificationConfig{Workers: 1, QueueSize: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			d.Notify(1, domain.NotificationEventApproved, "hello")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Len(t, d.jobs, 1)

	d.Start(context.Background())
	d.Stop()
	d.Notify(1, domain.NotificationEventApproved, "after stop")
	d.Stop()
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	repo := newNotificationRepo(t)
	svc := NewNotificationService(repo)
	owner := domain.User{ID: 1}
	stranger := domain.User{ID: 2}

	var ids []uint
	for _, msg := range []string{"one", "two", "three"} {
		n, err := repo.Create(ctx, domain.Notification{UserID: owner.ID, Type: domain.NotificationNewRegistration, Message: msg})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	assert.ErrorIs(t, svc.MarkRead(ctx, stranger, ids[0]), ErrNotificationNotFound)
	require.NoError(t, svc.MarkRead(ctx, owner, ids[0]))

	count, err = svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	marked, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	list, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Message)
	for _, n := range list {
		assert.True(t, n.Read)
	}

	sub, err := svc.Subscribe(ctx, owner, domain.Subscription{Endpoint: "https://push.example.com/a", P256dh: "k1", Auth: "a1"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, sub.UserID)

	// The same browser signing in as someone else moves the endpoint.
	moved, err := svc.Subscribe(ctx, stranger, domain.Subscription{Endpoint: "https://push.example.com/a", P256dh: "k2", Auth: "a2"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, moved.ID)
	assert.Equal(t, stranger.ID, moved.UserID)
	assert.Equal(t, "k2", moved.P256dh)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, owner, "https://push.example.com/a"), ErrSubscriptionNotFound)
	assert.NoError(t, svc.Unsubscribe(ctx, stranger, "https://push.example.com/a"))
}
