package repository

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/repository/dao"
)

var (
	ErrPostNotFound    = dao.ErrPostNotFound
	ErrCommentNotFound = dao.ErrCommentNotFound
)

type PostDAO interface {
	InsertPost(ctx context.Context, post dao.Post) (dao.Post, error)
	FindPostByID(ctx context.Context, id uint) (dao.Post, error)
	ListPostsByEvent(ctx context.Context, eventID uint) ([]dao.Post, error)
	DeletePost(ctx context.Context, id uint) error
	InsertComment(ctx context.Context, comment dao.Comment) (dao.Comment, error)
	FindCommentByID(ctx context.Context, id uint) (dao.Comment, error)
	ListCommentsByPost(ctx context.Context, postID uint) ([]dao.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

type PostRepository struct {
	dao PostDAO
}

func NewPostRepository(dao PostDAO) *PostRepository {
	return &PostRepository{
		dao: dao,
	}
}

func (r *PostRepository) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	created, err := r.dao.InsertPost(ctx, dao.Post{
		EventID:  post.EventID,
		AuthorID: post.AuthorID,
		Content:  post.Content,
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("r.dao.InsertPost -> %w", err)
	}

	return r.postDaoToDomain(created), nil
}

func (r *PostRepository) FindPostByID(ctx context.Context, id uint) (domain.Post, error) {
	found, err := r.dao.FindPostByID(ctx, id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("r.dao.FindPostByID -> %w", err)
	}

	return r.postDaoToDomain(found), nil
}

func (r *PostRepository) ListPostsByEvent(ctx context.Context, eventID uint) ([]domain.Post, error) {
	found, err := r.dao.ListPostsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListPostsByEvent -> %w", err)
	}

	posts := make([]domain.Post, len(found))
	for i, p := range found {
		posts[i] = r.postDaoToDomain(p)
	}

	return posts, nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id uint) error {
	if err := r.dao.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeletePost -> %w", err)
	}

	return nil
}

func (r *PostRepository) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	created, err := r.dao.InsertComment(ctx, dao.Comment{
		PostID:   comment.PostID,
		EventID:  comment.EventID,
		AuthorID: comment.AuthorID,
		Content:  comment.Content,
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("r.dao.InsertComment -> %w", err)
	}

	return r.commentDaoToDomain(created), nil
}

func (r *PostRepository) FindCommentByID(ctx context.Context, id uint) (domain.Comment, error) {
	found, err := r.dao.FindCommentByID(ctx, id)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("r.dao.FindCommentByID -> %w", err)
	}

	return r.commentDaoToDomain(found), nil
}

func (r *PostRepository) ListCommentsByPost(ctx context.Context, postID uint) ([]domain.Comment, error) {
	found, err := r.dao.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListCommentsByPost -> %w", err)
	}

	comments := make([]domain.Comment, len(found))
	for i, c := range found {
		comments[i] = r.commentDaoToDomain(c)
	}

	return comments, nil
}

func (r *PostRepository) DeleteComment(ctx context.Context, id uint) error {
	if err := r.dao.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeleteComment -> %w", err)
	}

	return nil
}

func (r *PostRepository) postDaoToDomain(p dao.Post) domain.Post {
	return domain.Post{
		ID:        p.ID,
		EventID:   p.EventID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r *PostRepository) commentDaoToDomain(c dao.Comment) domain.Comment {
	return domain.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		EventID:   c.EventID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
