package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewUserService(env.users, env.store)
	user := env.createUser(t, domain.RoleVolunteer)

	updated, err := svc.UpdateProfile(ctx, user, "Sam", "+84 900 000 000", "/uploads/a1.png")
	require.NoError(t, err)
	assert.Equal(t, "Sam", updated.Name)
	assert.Equal(t, "/uploads/a1.png", updated.Avatar)
	assert.Empty(t, env.store.removedRefs())

	updated, err = svc.UpdateProfile(ctx, updated, "Sam", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a1.png", updated.Avatar)
	assert.Empty(t, updated.Phone)

	updated, err = svc.UpdateProfile(ctx, updated, "Sam", "", "/uploads/a2.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a2.png", updated.Avatar)
	assert.Equal(t, []string{"/uploads/a1.png"}, env.store.removedRefs())
}

func TestUserService_Admin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewUserService(env.users, env.store)
	admin := env.createUser(t, domain.RoleAdmin)
	volunteer := env.createUser(t, domain.RoleVolunteer)

	_, err := svc.ChangeRole(ctx, volunteer, volunteer.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.ChangeRole(ctx, admin, admin.ID, domain.RoleVolunteer)
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	_, err = svc.SetStatus(ctx, admin, admin.ID, domain.UserStatusLocked)
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	promoted, err := svc.ChangeRole(ctx, admin, volunteer.ID, domain.RoleEventManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEventManager, promoted.Role)

	locked, err := svc.SetStatus(ctx, admin, volunteer.ID, domain.UserStatusLocked)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked())

	_, err = svc.SetStatus(ctx, admin, 4242, domain.UserStatusActive)
	assert.ErrorIs(t, err, ErrUserNotFound)

	managers, err := svc.ListUsers(ctx, domain.RoleEventManager)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, volunteer.ID, managers[0].ID)

	all, err := svc.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStatsService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	volunteer := env.createUser(t, domain.RoleVolunteer)

	event := env.createApprovedEvent(t, manager, validInput(domain.CategoryOnline, nil))
	_, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryOnline, nil))
	require.NoError(t, err)
	_, err = env.regSvc.Register(ctx, volunteer, event.ID)
	require.NoError(t, err)

	stats, err := NewStatsService(env.users, env.events, env.regs).Get(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.UsersByRole[domain.RoleVolunteer])
	assert.EqualValues(t, 1, stats.UsersByRole[domain.RoleEventManager])
	assert.EqualValues(t, 1, stats.UsersByRole[domain.RoleAdmin])
	assert.EqualValues(t, 1, stats.EventsByStatus[domain.EventStatusApproved])
	assert.EqualValues(t, 1, stats.EventsByStatus[domain.EventStatusPending])
	assert.EqualValues(t, 1, stats.RegistrationsByStatus[domain.RegistrationStatusPending])
}
