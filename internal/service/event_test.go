package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

func TestEventService_CreateEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)

	tests := []struct {
		category string
		points   int
	}{
		{category: domain.CategoryEmergency, points: 35},
		{category: domain.CategoryTechnical, points: 25},
		{category: domain.CategoryHealthcare, points: 20},
		{category: domain.CategoryCommunity, points: 15},
		{category: domain.CategoryOnline, points: 10},
		{category: "Gardening", points: domain.DefaultCategoryPoints},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			event, err := env.eventSvc.CreateEvent(ctx, manager, validInput(tt.category, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.points, event.Points)
			assert.Equal(t, domain.EventStatusPending, event.Status)
			assert.Equal(t, manager.ID, event.CreatorID)
			assert.Equal(t, 0, event.MaxParticipants)
		})
	}
}

func TestEventService_CreateEvent_VolunteerForbidden(t *testing.T) {
	env := newTestEnv(t)
	volunteer := env.createUser(t, domain.RoleVolunteer)

	in := validInput(domain.CategoryEducation, nil)
	in.CoverImage = "/uploads/cover.png"

	_, err := env.eventSvc.CreateEvent(context.Background(), volunteer, in)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, []string{"/uploads/cover.png"}, env.store.removedRefs())
}

func TestEventService_CreateEvent_Validation(t *testing.T) {
	env := newTestEnv(t)
	manager := env.createUser(t, domain.RoleEventManager)

	tests := []struct {
		name   string
		mutate func(in *EventInput)
	}{
		{name: "short name", mutate: func(in *EventInput) { in.Name = "ab" }},
		{name: "short description", mutate: func(in *EventInput) { in.Description = "too short" }},
		{name: "end before start", mutate: func(in *EventInput) { in.EndDate = in.Date.Add(-time.Hour) }},
		{name: "end equals start", mutate: func(in *EventInput) { in.EndDate = in.Date }},
		{name: "zero capacity", mutate: func(in *EventInput) { in.MaxParticipants = intPtr(0) }},
		{name: "negative capacity", mutate: func(in *EventInput) { in.MaxParticipants = intPtr(-3) }},
		{name: "missing location", mutate: func(in *EventInput) { in.Location = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(domain.CategoryEducation, nil)
			in.Images = []string{"/uploads/" + tt.name + ".png"}
			tt.mutate(&in)

			_, err := env.eventSvc.CreateEvent(context.Background(), manager, in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, env.store.removedRefs(), "/uploads/"+tt.name+".png")
		})
	}
}

func TestEventService_UpdateEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	other := env.createUser(t, domain.RoleEventManager)

	in := validInput(domain.CategoryOnline, intPtr(5))
	in.CoverImage = "/uploads/old-cover.png"
	in.Images = []string{"/uploads/old-1.png"}
	event, err := env.eventSvc.CreateEvent(ctx, manager, in)
	require.NoError(t, err)

	t.Run("other manager is forbidden", func(t *testing.T) {
		_, err := env.eventSvc.UpdateEvent(ctx, other, event.ID, validInput(domain.CategoryOnline, nil))
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("creator replaces cover and category", func(t *testing.T) {
		next := validInput(domain.CategoryEmergency, intPtr(5))
		next.Name = "Flood relief"
		next.CoverImage = "/uploads/new-cover.png"

		updated, err := env.eventSvc.UpdateEvent(ctx, manager, event.ID, next)
		require.NoError(t, err)
		assert.Equal(t, "Flood relief", updated.Name)
		assert.Equal(t, 35, updated.Points)
		assert.Equal(t, 5, updated.MaxParticipants)
		assert.Equal(t, "/uploads/new-cover.png", updated.CoverImage)
		assert.Equal(t, []string{"/uploads/old-1.png"}, updated.Images)
		assert.Contains(t, env.store.removedRefs(), "/uploads/old-cover.png")
		assert.NotContains(t, env.store.removedRefs(), "/uploads/old-1.png")
	})

	t.Run("absent capacity makes the event unlimited", func(t *testing.T) {
		updated, err := env.eventSvc.UpdateEvent(ctx, manager, event.ID, validInput(domain.CategoryEmergency, nil))
		require.NoError(t, err)
		assert.Equal(t, 0, updated.MaxParticipants)

		_, err = env.eventSvc.UpdateEvent(ctx, manager, event.ID, validInput(domain.CategoryEmergency, intPtr(0)))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("approved event cannot be edited", func(t *testing.T) {
		admin := env.createUser(t, domain.RoleAdmin)
		_, err := env.eventSvc.ApproveEvent(ctx, admin, event.ID)
		require.NoError(t, err)

		next := validInput(domain.CategoryOnline, nil)
		next.CoverImage = "/uploads/late.png"
		_, err = env.eventSvc.UpdateEvent(ctx, manager, event.ID, next)
		assert.ErrorIs(t, err, ErrEventNotPending)
		assert.Contains(t, env.store.removedRefs(), "/uploads/late.png")
	})
}

func TestEventService_Review(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	admin := env.createUser(t, domain.RoleAdmin)

	event, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryCommunity, nil))
	require.NoError(t, err)

	_, err = env.eventSvc.ApproveEvent(ctx, manager, event.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	approved, err := env.eventSvc.ApproveEvent(ctx, admin, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusApproved, approved.Status)

	_, err = env.eventSvc.RejectEvent(ctx, admin, event.ID)
	assert.ErrorIs(t, err, ErrEventNotPending)

	_, err = env.eventSvc.ApproveEvent(ctx, admin, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)

	sent := env.notifier.ofType(domain.NotificationEventApproved)
	require.Len(t, sent, 1)
	assert.Equal(t, manager.ID, sent[0].UserID)

	other, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryCommunity, nil))
	require.NoError(t, err)
	rejected, err := env.eventSvc.RejectEvent(ctx, admin, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusRejected, rejected.Status)
	assert.Len(t, env.notifier.ofType(domain.NotificationEventRejected), 1)
}

func TestEventService_CompleteEvent_PaysOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	v1 := env.createUser(t, domain.RoleVolunteer)
	v2 := env.createUser(t, domain.RoleVolunteer)
	v3 := env.createUser(t, domain.RoleVolunteer)

	event := env.createApprovedEvent(t, manager, validInput(domain.CategoryEnvironment, nil))

	for _, v := range []domain.User{v1, v2, v3} {
		_, err := env.regSvc.Register(ctx, v, event.ID)
		require.NoError(t, err)
	}
	regs, err := env.regs.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	for _, r := range regs[:2] {
		_, err = env.regSvc.UpdateStatus(ctx, manager, r.ID, domain.RegistrationStatusApproved)
		require.NoError(t, err)
	}

	_, err = env.eventSvc.CompleteEvent(ctx, v1, event.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	res, err := env.eventSvc.CompleteEvent(ctx, manager, event.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{v1.ID, v2.ID}, res.VolunteerIDs)

	_, err = env.eventSvc.CompleteEvent(ctx, manager, event.ID)
	assert.ErrorIs(t, err, ErrEventAlreadyCompleted)

	assert.Equal(t, domain.ManagerCompletionBonus, env.reloadUser(t, manager.ID).Points)
	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, v1.ID).Points)
	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, v2.ID).Points)
	assert.Equal(t, 0, env.reloadUser(t, v3.ID).Points)

	completed, err := env.events.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	assert.Len(t, env.notifier.ofType(domain.NotificationEventCompleted), 2)
}

func TestEventService_CompleteEvent_AttendanceMarkedFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	early := env.createUser(t, domain.RoleVolunteer)
	late := env.createUser(t, domain.RoleVolunteer)

	event := env.createApprovedEvent(t, manager, validInput(domain.CategoryCommunity, nil))

	regIDs := map[uint]uint{}
	for _, v := range []domain.User{early, late} {
		reg, err := env.regSvc.Register(ctx, v, event.ID)
		require.NoError(t, err)
		_, err = env.regSvc.UpdateStatus(ctx, manager, reg.ID, domain.RegistrationStatusApproved)
		require.NoError(t, err)
		regIDs[v.ID] = reg.ID
	}

	// Attendance marked while the event runs pays right away.
	_, err := env.regSvc.Complete(ctx, manager, regIDs[early.ID])
	require.NoError(t, err)
	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, early.ID).Points)

	res, err := env.eventSvc.CompleteEvent(ctx, manager, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{late.ID}, res.VolunteerIDs)

	// Marking attendance after the payout does not pay again.
	_, err = env.regSvc.Complete(ctx, manager, regIDs[late.ID])
	require.NoError(t, err)

	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, early.ID).Points)
	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, late.ID).Points)
	assert.Equal(t, domain.ManagerCompletionBonus, env.reloadUser(t, manager.ID).Points)
}

func TestEventService_CompleteEvent_NotApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)

	event, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryOnline, nil))
	require.NoError(t, err)

	_, err = env.eventSvc.CompleteEvent(ctx, manager, event.ID)
	assert.ErrorIs(t, err, ErrEventNotApproved)
	assert.Equal(t, 0, env.reloadUser(t, manager.ID).Points)
}

func TestEventService_CompleteDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	volunteer := env.createUser(t, domain.RoleVolunteer)

	past := env.createApprovedEvent(t, manager, validInput(domain.CategoryOnline, nil))
	future := env.createApprovedEvent(t, manager, validInput(domain.CategoryOnline, nil))

	reg, err := env.regSvc.Register(ctx, volunteer, past.ID)
	require.NoError(t, err)
	_, err = env.regSvc.UpdateStatus(ctx, manager, reg.ID, domain.RegistrationStatusApproved)
	require.NoError(t, err)

	// Pretend a week went by: only the first event has ended.
	env.eventSvc.now = func() time.Time { return past.EndDate.Add(time.Minute) }
	require.NoError(t, env.db.Model(&dao.Event{}).Where("id = ?", future.ID).
		Update("end_date", past.EndDate.Add(time.Hour).UTC()).Error)

	n, err := env.eventSvc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.eventSvc.CompleteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, domain.ManagerCompletionBonus, env.reloadUser(t, manager.ID).Points)
	assert.Equal(t, domain.VolunteerCompletionBonus, env.reloadUser(t, volunteer.ID).Points)

	stillOpen, err := env.events.FindByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusApproved, stillOpen.Status)
}

func TestEventService_DeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	volunteer := env.createUser(t, domain.RoleVolunteer)
	stranger := env.createUser(t, domain.RoleEventManager)

	in := validInput(domain.CategoryOnline, nil)
	in.CoverImage = "/uploads/c.png"
	in.Images = []string{"/uploads/g1.png", "/uploads/g2.png"}
	event := env.createApprovedEvent(t, manager, in)

	reg, err := env.regSvc.Register(ctx, volunteer, event.ID)
	require.NoError(t, err)
	_, err = env.regSvc.UpdateStatus(ctx, manager, reg.ID, domain.RegistrationStatusApproved)
	require.NoError(t, err)
	post, err := env.postSvc.CreatePost(ctx, volunteer, event.ID, "Great day")
	require.NoError(t, err)
	_, err = env.postSvc.CreateComment(ctx, manager, post.ID, "Thanks!")
	require.NoError(t, err)
	_, err = env.eventSvc.LikeEvent(ctx, volunteer, event.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.eventSvc.DeleteEvent(ctx, stranger, event.ID), ErrPermissionDenied)
	require.NoError(t, env.eventSvc.DeleteEvent(ctx, manager, event.ID))

	_, err = env.events.FindByID(ctx, event.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	for _, model := range []any{&dao.Registration{}, &dao.Post{}, &dao.Comment{}, &dao.EventAction{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Where("event_id = ?", event.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	assert.ElementsMatch(t, []string{"/uploads/c.png", "/uploads/g1.png", "/uploads/g2.png"}, env.store.removedRefs())
}

func TestEventService_Actions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	volunteer := env.createUser(t, domain.RoleVolunteer)
	event := env.createApprovedEvent(t, manager, validInput(domain.CategoryOnline, nil))

	c, err := env.eventSvc.LikeEvent(ctx, volunteer, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Likes)
	assert.True(t, c.Liked)

	c, err = env.eventSvc.LikeEvent(ctx, volunteer, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Likes)
	assert.False(t, c.Liked)

	for i := 0; i < 2; i++ {
		c, err = env.eventSvc.ShareEvent(ctx, volunteer, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Shares)

		c, err = env.eventSvc.ViewEvent(ctx, volunteer, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Views)
	}

	c, err = env.eventSvc.ViewEvent(ctx, manager, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Views)

	pending, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryOnline, nil))
	require.NoError(t, err)
	_, err = env.eventSvc.LikeEvent(ctx, volunteer, pending.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_Reads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	admin := env.createUser(t, domain.RoleAdmin)
	volunteer := env.createUser(t, domain.RoleVolunteer)

	approved := env.createApprovedEvent(t, manager, validInput(domain.CategoryOnline, nil))
	pending, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryOnline, nil))
	require.NoError(t, err)

	reg, err := env.regSvc.Register(ctx, volunteer, approved.ID)
	require.NoError(t, err)
	_, err = env.regSvc.UpdateStatus(ctx, manager, reg.ID, domain.RegistrationStatusApproved)
	require.NoError(t, err)

	public, err := env.eventSvc.ListPublicEvents(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)
	assert.Equal(t, 1, public[0].ParticipantCount)

	_, err = env.eventSvc.GetPublicEvent(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	got, err := env.eventSvc.GetPublicEvent(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount)

	mine, err := env.eventSvc.ListManagedEvents(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = env.eventSvc.ListManagedEvents(ctx, volunteer)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	onlyPending, err := env.eventSvc.ListEvents(ctx, admin, domain.EventStatusPending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)

	_, err = env.eventSvc.GetEvent(ctx, volunteer, pending.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.eventSvc.GetEvent(ctx, admin, pending.ID)
	assert.NoError(t, err)
}
