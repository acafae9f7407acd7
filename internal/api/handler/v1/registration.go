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

type RegistrationService interface {
	Register(ctx context.Context, caller domain.User, eventID uint) (domain.Registration, error)
	Cancel(ctx context.Context, caller domain.User, eventID uint) (domain.Registration, bool, error)
	UpdateStatus(ctx context.Context, caller domain.User, id uint, status domain.RegistrationStatus) (domain.Registration, error)
	Complete(ctx context.Context, caller domain.User, id uint) (domain.Registration, error)
	ResolveCancelRequest(ctx context.Context, caller domain.User, id uint, approve bool) (domain.Registration, error)
	ListMine(ctx context.Context, caller domain.User) ([]domain.Registration, error)
	ListForEvent(ctx context.Context, caller domain.User, eventID uint) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *RegistrationHandler) caller(ctx *gin.Context, param string) (domain.User, uint, bool) {
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

func renderRegistrationErr(ctx *gin.Context, op string, id uint, err error) {
	if errors.Is(err, service.ErrRegistrationNotFound) {
		response.RenderErr(ctx, response.ErrNotFound("registration", "ID", id))
		return
	}

	renderServiceErr(ctx, op, err)
}

// HandleRegister godoc
// @Summary      Register the caller for an approved event
// @Tags         registrations
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      201      {object}   domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/{eventID} [post]
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, eventID, ok := h.caller(ctx, "eventID")
	if !ok {
		return
	}

	reg, err := h.svc.Register(ctx.Request.Context(), user, eventID)
	if err != nil {
		renderEventErr(ctx, "v1.HandleRegister -> h.svc.Register", eventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, reg)
}

// HandleCancel godoc
// @Summary      Cancel the caller's registration
// @Description  A pending registration is deleted. An approved one is flagged for the manager to decide.
// @Tags         registrations
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   response.CancelResponse
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/{eventID} [delete]
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	user, eventID, ok := h.caller(ctx, "eventID")
	if !ok {
		return
	}

	reg, deleted, err := h.svc.Cancel(ctx.Request.Context(), user, eventID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCancel -> h.svc.Cancel", err)
		return
	}

	resp := response.CancelResponse{Deleted: deleted}
	if !deleted {
		resp.Registration = &reg
	}

	ctx.JSON(http.StatusOK, resp)
}

// HandleListMyRegistrations godoc
// @Summary      List the caller's registrations
// @Tags         registrations
// @Produce      json
// @Success      200      {array}    domain.Registration
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/me [get]
func (h *RegistrationHandler) HandleListMyRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	regs, err := h.svc.ListMine(ctx.Request.Context(), user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListMyRegistrations -> h.svc.ListMine", err)
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleListEventRegistrations godoc
// @Summary      List registrations for an event
// @Tags         registrations
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {array}    domain.Registration
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/registrations [get]
func (h *RegistrationHandler) HandleListEventRegistrations(ctx *gin.Context) {
	user, eventID, ok := h.caller(ctx, "eventID")
	if !ok {
		return
	}

	regs, err := h.svc.ListForEvent(ctx.Request.Context(), user, eventID)
	if err != nil {
		renderEventErr(ctx, "v1.HandleListEventRegistrations -> h.svc.ListForEvent", eventID, err)
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleUpdateRegistrationStatus godoc
// @Summary      Approve or reject a pending registration
// @Tags         registrations
// @Produce      json
// @Param        registrationID   path      int  true  "registration ID"
// @Param        request   body      request.RegistrationStatusRequest true "request body"
// @Success      200      {object}   domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/{registrationID}/status [put]
func (h *RegistrationHandler) HandleUpdateRegistrationStatus(ctx *gin.Context) {
	user, id, ok := h.caller(ctx, "registrationID")
	if !ok {
		return
	}

	var req request.RegistrationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.UpdateStatus(ctx.Request.Context(), user, id, domain.RegistrationStatus(req.Status))
	if err != nil {
		renderRegistrationErr(ctx, "v1.HandleUpdateRegistrationStatus -> h.svc.UpdateStatus", id, err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleCompleteRegistration godoc
// @Summary      Mark an approved registration as completed
// @Tags         registrations
// @Produce      json
// @Param        registrationID   path      int  true  "registration ID"
// @Success      200      {object}   domain.Registration
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/{registrationID}/complete [put]
func (h *RegistrationHandler) HandleCompleteRegistration(ctx *gin.Context) {
	user, id, ok := h.caller(ctx, "registrationID")
	if !ok {
		return
	}

	reg, err := h.svc.Complete(ctx.Request.Context(), user, id)
	if err != nil {
		renderRegistrationErr(ctx, "v1.HandleCompleteRegistration -> h.svc.Complete", id, err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleResolveCancelRequest godoc
// @Summary      Approve or reject a volunteer's cancellation request
// @Tags         registrations
// @Produce      json
// @Param        registrationID   path      int  true  "registration ID"
// @Param        request   body      request.CancelDecisionRequest true "request body"
// @Success      200      {object}   domain.Registration
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /registrations/{registrationID}/cancel-request [put]
func (h *RegistrationHandler) HandleResolveCancelRequest(ctx *gin.Context) {
	user, id, ok := h.caller(ctx, "registrationID")
	if !ok {
		return
	}

	var req request.CancelDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.ResolveCancelRequest(ctx.Request.Context(), user, id, *req.Approve)
	if err != nil {
		renderRegistrationErr(ctx, "v1.HandleResolveCancelRequest -> h.svc.ResolveCancelRequest", id, err)
		return
	}

	ctx.JSON(http.StatusOK, reg)
}
