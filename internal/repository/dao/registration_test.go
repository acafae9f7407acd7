package dao_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
	"github.com/volunteerhub/volunteerhub-api/internal/testutil"
)

func TestRegistrationDAO_RegisterCapacity(t *testing.T) {
	testRegisterCapacity(t, testutil.NewSQLiteDB(t))
}

func testRegisterCapacity(t *testing.T, db *gorm.DB) {
	ctx := context.Background()
	regs := dao.NewRegistrationDAO(db)

	manager := seedUser(t, db, domain.RoleEventManager)
	event := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 2)

	volunteers := make([]dao.User, 6)
	for i := range volunteers {
		volunteers[i] = seedUser(t, db, domain.RoleVolunteer)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for _, v := range volunteers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()

			_, err := regs.Register(ctx, event.ID, id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
				return
			}
			assert.ErrorIs(t, err, dao.ErrCapacityExceeded)
		}(v.ID)
	}
	wg.Wait()

	assert.Equal(t, 2, created)

	var count int64
	require.NoError(t, db.Model(&dao.Registration{}).Where("event_id = ?", event.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRegistrationDAO_Register(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	regs := dao.NewRegistrationDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)
	volunteer := seedUser(t, db, domain.RoleVolunteer)

	pending := seedEvent(t, db, manager.ID, domain.EventStatusPending, 0)
	_, err := regs.Register(ctx, pending.ID, volunteer.ID)
	assert.ErrorIs(t, err, dao.ErrEventNotOpen)

	_, err = regs.Register(ctx, 999, volunteer.ID)
	assert.ErrorIs(t, err, dao.ErrEventNotFound)

	open := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 1)
	reg, err := regs.Register(ctx, open.ID, volunteer.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RegistrationStatusPending), reg.Status)

	_, err = regs.Register(ctx, open.ID, volunteer.ID)
	assert.ErrorIs(t, err, dao.ErrRegistrationExists)

	// Rejected and cancelled rows do not hold a seat.
	_, err = regs.Transition(ctx, reg.ID,
		map[string]any{"status": string(domain.RegistrationStatusPending)},
		map[string]any{"status": string(domain.RegistrationStatusRejected)})
	require.NoError(t, err)

	other := seedUser(t, db, domain.RoleVolunteer)
	_, err = regs.Register(ctx, open.ID, other.ID)
	assert.NoError(t, err)
}

func TestRegistrationDAO_Transition(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	regs := dao.NewRegistrationDAO(db)
	manager := seedUser(t, db, domain.RoleEventManager)
	volunteer := seedUser(t, db, domain.RoleVolunteer)
	event := seedEvent(t, db, manager.ID, domain.EventStatusApproved, 0)
	reg := seedRegistration(t, db, event.ID, volunteer.ID, domain.RegistrationStatusApproved)

	flag := func() (dao.Registration, error) {
		return regs.Transition(ctx, reg.ID,
			map[string]any{"status": string(domain.RegistrationStatusApproved), "cancel_request": false},
			map[string]any{"cancel_request": true})
	}

	flagged, err := flag()
	require.NoError(t, err)
	assert.True(t, flagged.CancelRequest)

	_, err = flag()
	assert.ErrorIs(t, err, dao.ErrRegistrationStateChanged)

	assert.ErrorIs(t, regs.DeletePending(ctx, reg.ID), dao.ErrRegistrationStateChanged)

	ok, err := regs.HasParticipant(ctx, event.ID, volunteer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	counts, err := regs.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[string(domain.RegistrationStatusApproved)])
}
