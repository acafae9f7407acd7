package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/testutil"
)

type sentNotification struct {
	UserID  uint
	Type    domain.NotificationType
	Message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(userID uint, typ domain.NotificationType, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: typ, Message: message})
}

func (n *fakeNotifier) ofType(typ domain.NotificationType) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []sentNotification
	for _, s := range n.sent {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

type fakeStorage struct {
	mu      sync.Mutex
	removed []string
}

func (s *fakeStorage) Save(_ context.Context, filename string, _ io.Reader) (string, error) {
	return "/uploads/" + filename, nil
}

func (s *fakeStorage) Remove(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, ref)
	return nil
}

func (s *fakeStorage) removedRefs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

type testEnv struct {
	db       *gorm.DB
	users    *repository.UserRepository
	events   *repository.EventRepository
	regs     *repository.RegistrationRepository
	posts    *repository.PostRepository
	notifier *fakeNotifier
	store    *fakeStorage

	eventSvc *EventService
	regSvc   *RegistrationService
	postSvc  *PostService

	seq int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(dao.NewUserDAO(db)),
		events:   repository.NewEventRepository(dao.NewEventDAO(db)),
		regs:     repository.NewRegistrationRepository(dao.NewRegistrationDAO(db)),
		posts:    repository.NewPostRepository(dao.NewPostDAO(db)),
		notifier: &fakeNotifier{},
		store:    &fakeStorage{},
	}
	env.eventSvc = NewEventService(env.events, env.store, env.notifier)
	env.regSvc = NewRegistrationService(env.regs, env.events, env.notifier)
	env.postSvc = NewPostService(env.posts, env.events, env.regs)

	return env
}

func (e *testEnv) createUser(t *testing.T, role domain.Role) domain.User {
	t.Helper()

	e.seq++
	u, err := e.users.Create(context.Background(), domain.User{
		Email:    fmt.Sprintf("user%d@example.com", e.seq),
		Password: "hash",
		Name:     fmt.Sprintf("User %d", e.seq),
		Role:     role,
	})
	require.NoError(t, err)

	return u
}

func (e *testEnv) reloadUser(t *testing.T, id uint) domain.User {
	t.Helper()

	u, err := e.users.FindByID(context.Background(), id)
	require.NoError(t, err)

	return u
}

func validInput(category string, capacity *int) EventInput {
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return EventInput{
		Name:            "Beach cleanup",
		Description:     "Collect plastic along the shore.",
		Date:            start,
		EndDate:         start.Add(3 * time.Hour),
		Location:        "North beach",
		Category:        category,
		MaxParticipants: capacity,
	}
}

func intPtr(v int) *int {
	return &v
}

// createApprovedEvent creates an event as manager and approves it as admin.
func (e *testEnv) createApprovedEvent(t *testing.T, manager domain.User, in EventInput) domain.Event {
	t.Helper()

	ctx := context.Background()
	event, err := e.eventSvc.CreateEvent(ctx, manager, in)
	require.NoError(t, err)

	admin := e.createUser(t, domain.RoleAdmin)
	event, err = e.eventSvc.ApproveEvent(ctx, admin, event.ID)
	require.NoError(t, err)

	return event
}
