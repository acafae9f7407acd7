package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/request"
	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

type PostService interface {
	CreatePost(ctx context.Context, caller domain.User, eventID uint, content string) (domain.Post, error)
	ListPosts(ctx context.Context, eventID uint) ([]domain.Post, error)
	DeletePost(ctx context.Context, caller domain.User, id uint) error
	CreateComment(ctx context.Context, caller domain.User, postID uint, content string) (domain.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, caller domain.User, id uint) error
}

type PostHandler struct {
	svc  PostService
	uSvc UserService
}

func NewPostHandler(svc PostService, uSvc UserService) *PostHandler {
	return &PostHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *PostHandler) caller(ctx *gin.Context, param string) (domain.User, uint, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	id, respErr := parseID(ctx, param)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	return user, id, true
}

func bindContent(ctx *gin.Context) (string, bool) {
	var req request.ContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return "", false
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return "", false
	}

	return req.Content, true
}

// HandleListPosts godoc
// @Summary      List the posts of an event, newest first
// @Tags         posts
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {array}    domain.Post
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/posts [get]
func (h *PostHandler) HandleListPosts(ctx *gin.Context) {
	_, eventID, ok := h.caller(ctx, "eventID")
	if !ok {
		return
	}

	posts, err := h.svc.ListPosts(ctx.Request.Context(), eventID)
	if err != nil {
		renderEventErr(ctx, "v1.HandleListPosts -> h.svc.ListPosts", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, posts)
}

// HandleCreatePost godoc
// @Summary      Post on an event's board
// @Tags         posts
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Param        request   body      request.ContentRequest true "request body"
// @Success      201      {object}   domain.Post
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/posts [post]
func (h *PostHandler) HandleCreatePost(ctx *gin.Context) {
	user, eventID, ok := h.caller(ctx, "eventID")
	if !ok {
		return
	}

	content, ok := bindContent(ctx)
	if !ok {
		return
	}

	post, err := h.svc.CreatePost(ctx.Request.Context(), user, eventID, content)
	if err != nil {
		renderEventErr(ctx, "v1.HandleCreatePost -> h.svc.CreatePost", eventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, post)
}

// HandleDeletePost godoc
// @Summary      Delete a post and its comments
// @Tags         posts
// @Param        postID   path      int  true  "post ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /posts/{postID} [delete]
func (h *PostHandler) HandleDeletePost(ctx *gin.Context) {
	user, id, ok := h.caller(ctx, "postID")
	if !ok {
		return
	}

	if err := h.svc.DeletePost(ctx.Request.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("post", "ID", id))
			return
		}
		renderServiceErr(ctx, "v1.HandleDeletePost -> h.svc.DeletePost", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListComments godoc
// @Summary      List the comments of a post, newest first
// @Tags         posts
// @Produce      json
// @Param        postID   path      int  true  "post ID"
// @Success      200      {array}    domain.Comment
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /posts/{postID}/comments [get]
func (h *PostHandler) HandleListComments(ctx *gin.Context) {
	_, postID, ok := h.caller(ctx, "postID")
	if !ok {
		return
	}

	comments, err := h.svc.ListComments(ctx.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("post", "ID", postID))
			return
		}
		renderServiceErr(ctx, "v1.HandleListComments -> h.svc.ListComments", err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}

// HandleCreateComment godoc
// @Summary      Comment on a post
// @Tags         posts
// @Produce      json
// @Param        postID   path      int  true  "post ID"
// @Param        request   body      request.ContentRequest true "request body"
// @Success      201      {object}   domain.Comment
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /posts/{postID}/comments [post]
func (h *PostHandler) HandleCreateComment(ctx *gin.Context) {
	user, postID, ok := h.caller(ctx, "postID")
	if !ok {
		return
	}

	content, ok := bindContent(ctx)
	if !ok {
		return
	}

	comment, err := h.svc.CreateComment(ctx.Request.Context(), user, postID, content)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("post", "ID", postID))
			return
		}
		renderServiceErr(ctx, "v1.HandleCreateComment -> h.svc.CreateComment", err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

// HandleDeleteComment godoc
// @Summary      Delete a comment
// @Tags         posts
// @Param        commentID   path      int  true  "comment ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /comments/{commentID} [delete]
func (h *PostHandler) HandleDeleteComment(ctx *gin.Context) {
	user, id, ok := h.caller(ctx, "commentID")
	if !ok {
		return
	}

	if err := h.svc.DeleteComment(ctx.Request.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("comment", "ID", id))
			return
		}
		renderServiceErr(ctx, "v1.HandleDeleteComment -> h.svc.DeleteComment", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
