package service

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository"
)

var (
	ErrPostNotFound    = repository.ErrPostNotFound
	ErrCommentNotFound = repository.ErrCommentNotFound
)

type PostRepository interface {
	CreatePost(ctx context.Context, post domain.Post) (domain.Post, error)
	FindPostByID(ctx context.Context, id uint) (domain.Post, error)
	ListPostsByEvent(ctx context.Context, eventID uint) ([]domain.Post, error)
	DeletePost(ctx context.Context, id uint) error
	CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	FindCommentByID(ctx context.Context, id uint) (domain.Comment, error)
	ListCommentsByPost(ctx context.Context, postID uint) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

type ParticipationChecker interface {
	HasParticipant(ctx context.Context, eventID, userID uint) (bool, error)
}

type PostService struct {
	repo   PostRepository
	events RegistrationEventRepository
	regs   ParticipationChecker
}

func NewPostService(repo PostRepository, events RegistrationEventRepository, regs ParticipationChecker) *PostService {
	return &PostService{
		repo:   repo,
		events: events,
		regs:   regs,
	}
}

func validateContent(content string) error {
	return validation.Validate(content, validation.Required, validation.RuneLength(1, 5000))
}

func (s *PostService) CreatePost(ctx context.Context, caller domain.User, eventID uint, content string) (domain.Post, error) {
	if err := validateContent(content); err != nil {
		return domain.Post{}, validationErr(fmt.Errorf("content: %w", err))
	}
	if err := s.checkAudience(ctx, caller, eventID); err != nil {
		return domain.Post{}, err
	}

	post, err := s.repo.CreatePost(ctx, domain.Post{EventID: eventID, AuthorID: caller.ID, Content: content})
	if err != nil {
		return domain.Post{}, fmt.Errorf("s.repo.CreatePost -> %w", err)
	}

	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, eventID uint) ([]domain.Post, error) {
	if _, err := s.openEvent(ctx, eventID); err != nil {
		return nil, err
	}

	posts, err := s.repo.ListPostsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPostsByEvent -> %w", err)
	}

	return posts, nil
}

func (s *PostService) DeletePost(ctx context.Context, caller domain.User, id uint) error {
	post, err := s.repo.FindPostByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindPostByID -> %w", err)
	}
	if post.AuthorID != caller.ID && caller.Role != domain.RoleAdmin {
		return ErrPermissionDenied
	}

	if err = s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("s.repo.DeletePost -> %w", err)
	}

	return nil
}

func (s *PostService) CreateComment(ctx context.Context, caller domain.User, postID uint, content string) (domain.Comment, error) {
	if err := validateContent(content); err != nil {
		return domain.Comment{}, validationErr(fmt.Errorf("content: %w", err))
	}

	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("s.repo.FindPostByID -> %w", err)
	}
	if err = s.checkAudience(ctx, caller, post.EventID); err != nil {
		return domain.Comment{}, err
	}

	comment, err := s.repo.CreateComment(ctx, domain.Comment{
		PostID:   postID,
		EventID:  post.EventID,
		AuthorID: caller.ID,
		Content:  content,
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("s.repo.CreateComment -> %w", err)
	}

	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if _, err := s.repo.FindPostByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("s.repo.FindPostByID -> %w", err)
	}

	comments, err := s.repo.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListCommentsByPost -> %w", err)
	}

	return comments, nil
}

func (s *PostService) DeleteComment(ctx context.Context, caller domain.User, id uint) error {
	comment, err := s.repo.FindCommentByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindCommentByID -> %w", err)
	}
	if comment.AuthorID != caller.ID && caller.Role != domain.RoleAdmin {
		return ErrPermissionDenied
	}

	if err = s.repo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("s.repo.DeleteComment -> %w", err)
	}

	return nil
}

// openEvent returns the event when it accepts community content.
func (s *PostService) openEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.Status != domain.EventStatusApproved && event.Status != domain.EventStatusCompleted {
		return domain.Event{}, ErrEventNotFound
	}

	return event, nil
}

// checkAudience allows the event creator and volunteers holding an approved
// or completed registration.
func (s *PostService) checkAudience(ctx context.Context, caller domain.User, eventID uint) error {
	event, err := s.openEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID == caller.ID {
		return nil
	}

	ok, err := s.regs.HasParticipant(ctx, eventID, caller.ID)
	if err != nil {
		return fmt.Errorf("s.regs.HasParticipant -> %w", err)
	}
	if !ok {
		return ErrPermissionDenied
	}

	return nil
}
