package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/pkg/storage"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrUserNotFound     = repository.ErrUserNotFound
	ErrCannotModifySelf = errors.New("admins cannot change their own role or status")
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) (domain.User, error)
	UpdateRole(ctx context.Context, id uint, role domain.Role) (domain.User, error)
	UpdateStatus(ctx context.Context, id uint, status domain.UserStatus) (domain.User, error)
}

type UserService struct {
	repo  UserRepository
	store storage.Storage
}

func NewUserService(repo UserRepository, store storage.Storage) *UserService {
	return &UserService{
		repo:  repo,
		store: store,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// UpdateProfile saves name and phone and, when avatar is set, swaps the
// stored avatar for the newly uploaded one.
func (s *UserService) UpdateProfile(ctx context.Context, caller domain.User, name, phone, avatar string) (domain.User, error) {
	next := caller
	next.Name = name
	next.Phone = phone
	next.Avatar = avatar

	updated, err := s.repo.UpdateProfile(ctx, next)
	if err != nil {
		s.removeAvatar(ctx, caller.ID, avatar)
		return domain.User{}, fmt.Errorf("s.repo.UpdateProfile -> %w", err)
	}

	if avatar != "" && caller.Avatar != "" && caller.Avatar != avatar {
		s.removeAvatar(ctx, caller.ID, caller.Avatar)
	}

	return updated, nil
}

func (s *UserService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return users, nil
}

func (s *UserService) ChangeRole(ctx context.Context, caller domain.User, id uint, role domain.Role) (domain.User, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.User{}, ErrPermissionDenied
	}
	if caller.ID == id {
		return domain.User{}, ErrCannotModifySelf
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateRole -> %w", err)
	}

	return user, nil
}

func (s *UserService) SetStatus(ctx context.Context, caller domain.User, id uint, status domain.UserStatus) (domain.User, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.User{}, ErrPermissionDenied
	}
	if caller.ID == id {
		return domain.User{}, ErrCannotModifySelf
	}

	user, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	return user, nil
}

func (s *UserService) removeAvatar(ctx context.Context, userID uint, ref string) {
	if s.store == nil || ref == "" {
		return
	}

	if err := s.store.Remove(context.WithoutCancel(ctx), ref); err != nil {
		zap.L().Warn("failed to remove avatar", zap.Uint("user_id", userID), zap.String("ref", ref), zap.Error(err))
	}
}
