package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
)

func TestPostService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)
	participant := env.createUser(t, domain.RoleVolunteer)
	applicant := env.createUser(t, domain.RoleVolunteer)
	admin := env.createUser(t, domain.RoleAdmin)

	event := env.createApprovedEvent(t, manager, validInput(domain.CategoryCommunity, nil))

	reg, err := env.regSvc.Register(ctx, participant, event.ID)
	require.NoError(t, err)
	_, err = env.regSvc.UpdateStatus(ctx, manager, reg.ID, domain.RegistrationStatusApproved)
	require.NoError(t, err)
	_, err = env.regSvc.Register(ctx, applicant, event.ID)
	require.NoError(t, err)

	t.Run("audience", func(t *testing.T) {
		_, err := env.postSvc.CreatePost(ctx, applicant, event.ID, "Can I join?")
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = env.postSvc.CreatePost(ctx, participant, event.ID, "")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.postSvc.CreatePost(ctx, participant, event.ID, strings.Repeat("x", 5001))
		assert.ErrorIs(t, err, ErrValidation)
	})

	post, err := env.postSvc.CreatePost(ctx, participant, event.ID, "See you there")
	require.NoError(t, err)
	assert.Equal(t, participant.ID, post.AuthorID)

	fromManager, err := env.postSvc.CreatePost(ctx, manager, event.ID, "Bring gloves")
	require.NoError(t, err)

	posts, err := env.postSvc.ListPosts(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, fromManager.ID, posts[0].ID)

	comment, err := env.postSvc.CreateComment(ctx, manager, post.ID, "Great!")
	require.NoError(t, err)
	assert.Equal(t, event.ID, comment.EventID)

	_, err = env.postSvc.CreateComment(ctx, applicant, post.ID, "Me too")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	comments, err := env.postSvc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	assert.ErrorIs(t, env.postSvc.DeleteComment(ctx, participant, comment.ID), ErrPermissionDenied)
	require.NoError(t, env.postSvc.DeleteComment(ctx, admin, comment.ID))

	_, err = env.postSvc.CreateComment(ctx, participant, post.ID, "Bye")
	require.NoError(t, err)

	assert.ErrorIs(t, env.postSvc.DeletePost(ctx, manager, post.ID), ErrPermissionDenied)
	require.NoError(t, env.postSvc.DeletePost(ctx, participant, post.ID))

	_, err = env.postSvc.ListComments(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_ClosedEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.createUser(t, domain.RoleEventManager)

	pending, err := env.eventSvc.CreateEvent(ctx, manager, validInput(domain.CategoryOnline, nil))
	require.NoError(t, err)

	_, err = env.postSvc.CreatePost(ctx, manager, pending.ID, "Too early")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = env.postSvc.ListPosts(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
