package dao_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/testutil"
)

func TestEventDAO_CompleteOnce(t *testing.T) {
	testCompleteOnce(t, testutil.NewSQLiteDB(t))
}

func testCompleteOnce(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	events := dao.NewEventDAO(db)

	manager := seedUser(t, db, domain.RoleEventManager)
	paid := seedUser(t, db, domain.RoleVolunteer)
	waiting := seedUser(t, db, domain.RoleVolunteer)
	event := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)
	seedRegistration(t, db, event.ID, paid.ID, domain.RegistrationStatusApproved)
	seedRegistration(t, db, event.ID, waiting.ID, domain.RegistrationStatusPending)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c, err := events.Complete(ctx, event.ID, time.Now().UTC(), 20, 10)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				assert.Equal(t, []uint{paid.ID}, c.VolunteerIDs)
				assert.Equal(t, manager.ID, c.CreatorID)
				return
			}
			assert.ErrorIs(t, err, dao.ErrEventNotCompletable)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 20, points(t, db, manager.ID))
	assert.Equal(t, 10, points(t, db, paid.ID))
	assert.Equal(t, 0, points(t, db, waiting.ID))

	stored, err := events.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.EventStatusCompleted), stored.Status)
	require.NotNil(t, stored.CompletedAt)
}

func TestEventDAO_CompleteRequiresApproved(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	events := dao.NewEventDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)

	for _, status := range []domain.EventStatus{domain.EventStatusPending, domain.EventStatusRejected} {
		event := seedEvent(t, db, manager.ID, status, 0)
		_, err := events.Complete(context.Background(), event.ID, time.Now().UTC(), 20, 10)
		assert.ErrorIs(t, err, dao.ErrEventNotCompletable)
	}
	assert.Equal(t, 0, points(t, db, manager.ID))
}

func TestEventDAO_ReviewAndUpdatePending(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	events := dao.NewEventDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)
	event := seedEvent(t, db, manager.ID, domain.EventStatusPending, 0)

	event.Name = "Renamed shift"
	updated, err := events.UpdatePending(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "Renamed shift", updated.Name)

	reviewed, err := events.Review(ctx, event.ID, string(domain.EventStatusApproved))
	require.NoError(t, err)
	assert.Equal(t, string(domain.EventStatusApproved), reviewed.Status)

	_, err = events.Review(ctx, event.ID, string(domain.EventStatusRejected))
	assert.ErrorIs(t, err, dao.ErrEventNotPending)

	_, err = events.UpdatePending(ctx, event)
	assert.ErrorIs(t, err, dao.ErrEventNotPending)

	_, err = events.Review(ctx, 777, string(domain.EventStatusApproved))
	assert.ErrorIs(t, err, dao.ErrEventNotFound)
}

func TestEventDAO_FindDue(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	events := dao.NewEventDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)

	due := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)
	seedEvent(t, db, manager.ID, domain.EventStatusPending, 0)
	later := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)
	require.NoError(t, db.Model(&dao.Event{}).Where("id = ?", later.ID).
		Update("end_date", due.EndDate.Add(48*time.Hour)).Error)

	ids, err := events.FindDue(ctx, due.EndDate.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []uint{due.ID}, ids)
}

func TestEventDAO_RecordAction(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	events := dao.NewEventDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)
	user := seedUser(t, db, domain.RoleVolunteer)
	event := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)

	c, err := events.RecordAction(ctx, event.ID, user.ID, string(domain.EventActionLike))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Likes)
	assert.True(t, c.Liked)

	c, err = events.RecordAction(ctx, event.ID, manager.ID, string(domain.EventActionLike))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Likes)

	c, err = events.RecordAction(ctx, event.ID, user.ID, string(domain.EventActionLike))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Likes)
	assert.False(t, c.Liked)

	_, err = events.RecordAction(ctx, event.ID, user.ID, "retweet")
	assert.ErrorIs(t, err, dao.ErrInvalidEventAction)

	_, err = events.RecordAction(ctx, 404, user.ID, string(domain.EventActionView))
	assert.ErrorIs(t, err, dao.ErrEventNotFound)
}

func TestEventDAO_ParticipantCounts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	events := dao.NewEventDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)
	first := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)
	second := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)

	statuses := []domain.RegistrationStatus{
		domain.RegistrationStatusApproved,
		domain.RegistrationStatusCompleted,
		domain.RegistrationStatusPending,
		domain.RegistrationStatusCancelled,
		domain.RegistrationStatusRejected,
	}
	for _, status := range statuses {
		v := seedUser(t, db, domain.RoleVolunteer)
		seedRegistration(t, db, first.ID, v.ID, status)
	}

	counts, err := events.ParticipantCounts(context.Background(), []uint{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[first.ID])
	assert.Equal(t, 0, counts[second.ID])
}
