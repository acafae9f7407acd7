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

type AdminUserService interface {
	UserService
	ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error)
	ChangeRole(ctx context.Context, caller domain.User, id uint, role domain.Role) (domain.User, error)
	SetStatus(ctx context.Context, caller domain.User, id uint, status domain.UserStatus) (domain.User, error)
}

type StatsService interface {
	Get(ctx context.Context) (domain.Stats, error)
}

type AdminHandler struct {
	uSvc  AdminUserService
	stats StatsService
}

func NewAdminHandler(uSvc AdminUserService, stats StatsService) *AdminHandler {
	return &AdminHandler{
		uSvc:  uSvc,
		stats: stats,
	}
}

func (h *AdminHandler) target(ctx *gin.Context) (domain.User, uint, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	id, respErr := parseID(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	return user, id, true
}

func renderUserErr(ctx *gin.Context, op string, id uint, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		response.RenderErr(ctx, response.ErrNotFound("user", "ID", id))
		return
	}

	renderServiceErr(ctx, op, err)
}

// HandleListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        role   query      string  false  "VOLUNTEER, EVENTMANAGER or ADMIN"
// @Success      200      {array}    domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *AdminHandler) HandleListUsers(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var role domain.Role
	if raw := ctx.Query("role"); raw != "" {
		parsed, err := domain.ParseRole(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		role = parsed
	}

	users, err := h.uSvc.ListUsers(ctx.Request.Context(), role)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListUsers -> h.uSvc.ListUsers", err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleChangeRole godoc
// @Summary      Change a user's role
// @Tags         admin
// @Produce      json
// @Param        userID   path      int  true  "user ID"
// @Param        request   body      request.ChangeRoleRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/users/{userID}/role [put]
func (h *AdminHandler) HandleChangeRole(ctx *gin.Context) {
	user, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req request.ChangeRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.uSvc.ChangeRole(ctx.Request.Context(), user, id, domain.Role(req.Role))
	if err != nil {
		renderUserErr(ctx, "v1.HandleChangeRole -> h.uSvc.ChangeRole", id, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleSetStatus godoc
// @Summary      Lock or unlock a user
// @Tags         admin
// @Produce      json
// @Param        userID   path      int  true  "user ID"
// @Param        request   body      request.SetStatusRequest true "request body"
// @Success      200      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/users/{userID}/status [put]
func (h *AdminHandler) HandleSetStatus(ctx *gin.Context) {
	user, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req request.SetStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.uSvc.SetStatus(ctx.Request.Context(), user, id, domain.UserStatus(req.Status))
	if err != nil {
		renderUserErr(ctx, "v1.HandleSetStatus -> h.uSvc.SetStatus", id, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleGetStats godoc
// @Summary      Count users, events and registrations
// @Tags         admin
// @Produce      json
// @Success      200      {object}   domain.Stats
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *AdminHandler) HandleGetStats(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	stats, err := h.stats.Get(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetStats -> h.stats.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
