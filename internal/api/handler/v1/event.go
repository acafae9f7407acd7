package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/request"
	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, caller domain.User, in service.EventInput) (domain.Event, error)
	UpdateEvent(ctx context.Context, caller domain.User, id uint, in service.EventInput) (domain.Event, error)
	ApproveEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error)
	RejectEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error)
	CompleteEvent(ctx context.Context, caller domain.User, id uint) (domain.CompletionResult, error)
	DeleteEvent(ctx context.Context, caller domain.User, id uint) error
	ListPublicEvents(ctx context.Context) ([]domain.Event, error)
	GetPublicEvent(ctx context.Context, id uint) (domain.Event, error)
	ListManagedEvents(ctx context.Context, caller domain.User) ([]domain.Event, error)
	ListEvents(ctx context.Context, caller domain.User, status domain.EventStatus) ([]domain.Event, error)
	GetEvent(ctx context.Context, caller domain.User, id uint) (domain.Event, error)
	LikeEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error)
	ShareEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error)
	ViewEvent(ctx context.Context, caller domain.User, id uint) (domain.EventCounters, error)
}

type EventHandler struct {
	svc      EventService
	uSvc     UserService
	uploader *Uploader
}

func NewEventHandler(svc EventService, uSvc UserService, uploader *Uploader) *EventHandler {
	return &EventHandler{
		svc:      svc,
		uSvc:     uSvc,
		uploader: uploader,
	}
}

// caller resolves the authenticated user and the eventID path param.
func (h *EventHandler) caller(ctx *gin.Context) (domain.User, uint, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	id, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, 0, false
	}

	return user, id, true
}

func renderEventErr(ctx *gin.Context, op string, id uint, err error) {
	if errors.Is(err, service.ErrEventNotFound) {
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", id))
		return
	}

	renderServiceErr(ctx, op, err)
}

// bindEvent binds and validates the form, then stages the uploaded images.
func (h *EventHandler) bindEvent(ctx *gin.Context) (service.EventInput, bool) {
	var req request.EventRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return service.EventInput{}, false
	}

	// An empty form value binds to 0; it stands for no capacity.
	if v, ok := ctx.GetPostForm("max_participants"); ok && strings.TrimSpace(v) == "" {
		req.MaxParticipants = nil
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return service.EventInput{}, false
	}

	cover, err := h.uploader.StageOne(ctx, "coverImage")
	if err != nil {
		renderServiceErr(ctx, "v1.bindEvent -> h.uploader.StageOne", err)
		return service.EventInput{}, false
	}

	images, err := h.uploader.Stage(ctx, "images", maxGalleryImages)
	if err != nil {
		h.uploader.Discard(ctx.Request.Context(), []string{cover})
		renderServiceErr(ctx, "v1.bindEvent -> h.uploader.Stage", err)
		return service.EventInput{}, false
	}

	return service.EventInput{
		Name:            req.Name,
		Description:     req.Description,
		Date:            req.Date,
		EndDate:         req.EndDate,
		Location:        req.Location,
		Category:        req.Category,
		MaxParticipants: req.MaxParticipants,
		CoverImage:      cover,
		Images:          images,
	}, true
}

// HandleListPublicEvents godoc
// @Summary      List approved events
// @Tags         events
// @Produce      json
// @Success      200      {array}    domain.Event
// @Failure      500      {object}   response.Err
// @Router       /events/public [get]
func (h *EventHandler) HandleListPublicEvents(ctx *gin.Context) {
	events, err := h.svc.ListPublicEvents(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListPublicEvents -> h.svc.ListPublicEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetPublicEvent godoc
// @Summary      Get an approved event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/public/{eventID} [get]
func (h *EventHandler) HandleGetPublicEvent(ctx *gin.Context) {
	id, respErr := parseID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.GetPublicEvent(ctx.Request.Context(), id)
	if err != nil {
		renderEventErr(ctx, "v1.HandleGetPublicEvent -> h.svc.GetPublicEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  The event starts pending until an admin reviews it.
// @Tags         events
// @Accept       multipart/form-data
// @Produce      json
// @Param        name              formData   string true  "name"
// @Param        description       formData   string true  "description"
// @Param        date              formData   string true  "start, RFC3339"
// @Param        end_date          formData   string true  "end, RFC3339"
// @Param        location          formData   string true  "location"
// @Param        category          formData   string true  "category"
// @Param        max_participants  formData   int    false "capacity, empty or absent for unlimited"
// @Param        coverImage        formData   file   false "cover image"
// @Param        images            formData   file   false "gallery images"
// @Success      201      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events [post]
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	in, ok := h.bindEvent(ctx)
	if !ok {
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), user, in)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateEvent -> h.svc.CreateEvent", err)
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleListMyEvents godoc
// @Summary      List events created by the caller
// @Tags         events
// @Produce      json
// @Success      200      {array}    domain.Event
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/mine [get]
func (h *EventHandler) HandleListMyEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.ListManagedEvents(ctx.Request.Context(), user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListMyEvents -> h.svc.ListManagedEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event in any status
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.Event
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), user, id)
	if err != nil {
		renderEventErr(ctx, "v1.HandleGetEvent -> h.svc.GetEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleUpdateEvent godoc
// @Summary      Update a pending event
// @Tags         events
// @Accept       multipart/form-data
// @Produce      json
// @Param        eventID           path       int    true  "event ID"
// @Param        name              formData   string true  "name"
// @Param        description       formData   string true  "description"
// @Param        date              formData   string true  "start, RFC3339"
// @Param        end_date          formData   string true  "end, RFC3339"
// @Param        location          formData   string true  "location"
// @Param        category          formData   string true  "category"
// @Param        max_participants  formData   int    false "capacity, empty or absent for unlimited"
// @Param        coverImage        formData   file   false "cover image"
// @Param        images            formData   file   false "gallery images"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [put]
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	in, ok := h.bindEvent(ctx)
	if !ok {
		return
	}

	event, err := h.svc.UpdateEvent(ctx.Request.Context(), user, id, in)
	if err != nil {
		renderEventErr(ctx, "v1.HandleUpdateEvent -> h.svc.UpdateEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event with its registrations, posts and comments
// @Tags         events
// @Param        eventID   path      int  true  "event ID"
// @Success      204
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [delete]
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), user, id); err != nil {
		renderEventErr(ctx, "v1.HandleDeleteEvent -> h.svc.DeleteEvent", id, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCompleteEvent godoc
// @Summary      Complete an approved event and pay out points
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.CompletionResult
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/complete [put]
func (h *EventHandler) HandleCompleteEvent(ctx *gin.Context) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	res, err := h.svc.CompleteEvent(ctx.Request.Context(), user, id)
	if err != nil {
		renderEventErr(ctx, "v1.HandleCompleteEvent -> h.svc.CompleteEvent", id, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// HandleLikeEvent godoc
// @Summary      Toggle the caller's like on an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.EventCounters
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/like [post]
func (h *EventHandler) HandleLikeEvent(ctx *gin.Context) {
	h.handleAction(ctx, "v1.HandleLikeEvent -> h.svc.LikeEvent", h.svc.LikeEvent)
}

// HandleShareEvent godoc
// @Summary      Record a share of an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.EventCounters
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/share [post]
func (h *EventHandler) HandleShareEvent(ctx *gin.Context) {
	h.handleAction(ctx, "v1.HandleShareEvent -> h.svc.ShareEvent", h.svc.ShareEvent)
}

// HandleViewEvent godoc
// @Summary      Record a view of an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.EventCounters
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/view [post]
func (h *EventHandler) HandleViewEvent(ctx *gin.Context) {
	h.handleAction(ctx, "v1.HandleViewEvent -> h.svc.ViewEvent", h.svc.ViewEvent)
}

func (h *EventHandler) handleAction(
	ctx *gin.Context,
	op string,
	act func(context.Context, domain.User, uint) (domain.EventCounters, error),
) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	counters, err := act(ctx.Request.Context(), user, id)
	if err != nil {
		renderEventErr(ctx, op, id, err)
		return
	}

	ctx.JSON(http.StatusOK, counters)
}

// HandleAdminListEvents godoc
// @Summary      List events in any status
// @Tags         admin
// @Produce      json
// @Param        status   query      string  false  "pending, approved, rejected or completed"
// @Success      200      {array}    domain.Event
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/events [get]
func (h *EventHandler) HandleAdminListEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var status domain.EventStatus
	if raw := ctx.Query("status"); raw != "" {
		parsed, err := domain.ParseEventStatus(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		status = parsed
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), user, status)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleAdminListEvents -> h.svc.ListEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleApproveEvent godoc
// @Summary      Approve a pending event
// @Tags         admin
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.Event
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/events/{eventID}/approve [put]
func (h *EventHandler) HandleApproveEvent(ctx *gin.Context) {
	h.handleReview(ctx, "v1.HandleApproveEvent -> h.svc.ApproveEvent", h.svc.ApproveEvent)
}

// HandleRejectEvent godoc
// @Summary      Reject a pending event
// @Tags         admin
// @Produce      json
// @Param        eventID   path      int  true  "event ID"
// @Success      200      {object}   domain.Event
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /admin/events/{eventID}/reject [put]
func (h *EventHandler) HandleRejectEvent(ctx *gin.Context) {
	h.handleReview(ctx, "v1.HandleRejectEvent -> h.svc.RejectEvent", h.svc.RejectEvent)
}

func (h *EventHandler) handleReview(
	ctx *gin.Context,
	op string,
	review func(context.Context, domain.User, uint) (domain.Event, error),
) {
	user, id, ok := h.caller(ctx)
	if !ok {
		return
	}

	event, err := review(ctx.Request.Context(), user, id)
	if err != nil {
		renderEventErr(ctx, fmt.Sprintf("%s(%d)", op, id), id, err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}
