package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/request"
	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/api/middleware"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

var errMissingCaller = errors.New("missing authenticated user")

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	UpdateProfile(ctx context.Context, caller domain.User, name, phone, avatar string) (domain.User, error)
}

type UserHandler struct {
	svc      UserService
	uploader *Uploader
}

func NewUserHandler(svc UserService, uploader *Uploader) *UserHandler {
	return &UserHandler{
		svc:      svc,
		uploader: uploader,
	}
}

// getUserFromContext reloads the authenticated user so that role changes and
// locks take effect without waiting for the token to expire.
func getUserFromContext(ctx *gin.Context, uSvc UserService) (domain.User, *response.Err) {
	id := ctx.GetUint(middleware.CtxKeyUserID)
	if id == 0 {
		return domain.User{}, response.ErrUnauthorized(errMissingCaller)
	}

	user, err := uSvc.GetUser(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.User{}, response.ErrUnauthorized(service.ErrUserNotFound)
		}
		err = fmt.Errorf("getUserFromContext -> uSvc.GetUser -> %w", err)
		return domain.User{}, response.ErrInternalServerError(err)
	}

	if user.IsLocked() {
		return domain.User{}, response.ErrPermissionDenied(service.ErrUserLocked)
	}

	return user, nil
}

func parseID(ctx *gin.Context, param string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s %q", param, ctx.Param(param)))
	}

	return uint(id), nil
}

// HandleGetMe godoc
// @Summary      Get the authenticated user
// @Tags         users
// @Produce      json
// @Success      200      {object}   domain.User
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateMe godoc
// @Summary      Update the authenticated user's profile
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        name     formData   string true  "name"
// @Param        phone    formData   string false "phone"
// @Param        avatar   formData   file   false "avatar image"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /users/me [put]
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateProfileRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	avatar, err := h.uploader.StageOne(ctx, "avatar")
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateMe -> h.uploader.StageOne", err)
		return
	}

	updated, err := h.svc.UpdateProfile(ctx.Request.Context(), user, req.Name, req.Phone, avatar)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateMe -> h.svc.UpdateProfile", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleGetUser godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        userID   path      int  true  "user ID"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /users/{userID} [get]
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.svc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	id, respErr := parseID(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", id))
			return
		}
		renderServiceErr(ctx, "v1.HandleGetUser -> h.svc.GetUser", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}
