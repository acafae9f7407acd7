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

type NotificationService interface {
	ListMine(ctx context.Context, caller domain.User) ([]domain.Notification, error)
	MarkRead(ctx context.Context, caller domain.User, id uint) error
	MarkAllRead(ctx context.Context, caller domain.User) (int64, error)
	UnreadCount(ctx context.Context, caller domain.User) (int64, error)
	Subscribe(ctx context.Context, caller domain.User, sub domain.Subscription) (domain.Subscription, error)
	Unsubscribe(ctx context.Context, caller domain.User, endpoint string) error
}

type NotificationHandler struct {
	svc            NotificationService
	uSvc           UserService
	vapidPublicKey string
}

func NewNotificationHandler(svc NotificationService, uSvc UserService, vapidPublicKey string) *NotificationHandler {
	return &NotificationHandler{
		svc:            svc,
		uSvc:           uSvc,
		vapidPublicKey: vapidPublicKey,
	}
}

// HandleListNotifications godoc
// @Summary      List the caller's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Success      200      {array}    domain.Notification
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) HandleListNotifications(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	notifications, err := h.svc.ListMine(ctx.Request.Context(), user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListNotifications -> h.svc.ListMine", err)
		return
	}

	ctx.JSON(http.StatusOK, notifications)
}

// HandleUnreadCount godoc
// @Summary      Count the caller's unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200      {object}   response.CountResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) HandleUnreadCount(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	count, err := h.svc.UnreadCount(ctx.Request.Context(), user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUnreadCount -> h.svc.UnreadCount", err)
		return
	}

	ctx.JSON(http.StatusOK, response.CountResponse{Count: count})
}

// HandleMarkRead godoc
// @Summary      Mark one notification as read
// @Tags         notifications
// @Param        notificationID   path      int  true  "notification ID"
// @Success      204
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /notifications/{notificationID}/read [put]
func (h *NotificationHandler) HandleMarkRead(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	id, respErr := parseID(ctx, "notificationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.MarkRead(ctx.Request.Context(), user, id); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("notification", "ID", id))
			return
		}
		renderServiceErr(ctx, "v1.HandleMarkRead -> h.svc.MarkRead", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleMarkAllRead godoc
// @Summary      Mark all of the caller's notifications as read
// @Tags         notifications
// @Produce      json
// @Success      200      {object}   response.CountResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) HandleMarkAllRead(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	count, err := h.svc.MarkAllRead(ctx.Request.Context(), user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleMarkAllRead -> h.svc.MarkAllRead", err)
		return
	}

	ctx.JSON(http.StatusOK, response.CountResponse{Count: count})
}

// HandleVAPIDPublicKey godoc
// @Summary      Get the VAPID public key used for web push
// @Tags         subscriptions
// @Produce      json
// @Success      200      {object}   response.VAPIDKeyResponse
// @Failure      404      {object}   response.Err
// @Security     BearerAuth
// @Router       /subscriptions/vapid-public-key [get]
func (h *NotificationHandler) HandleVAPIDPublicKey(ctx *gin.Context) {
	if h.vapidPublicKey == "" {
		response.RenderErr(ctx, response.ErrResourceNotFound(errors.New("web push is not configured")))
		return
	}

	ctx.JSON(http.StatusOK, response.VAPIDKeyResponse{PublicKey: h.vapidPublicKey})
}

// HandleSubscribe godoc
// @Summary      Register a browser push subscription for the caller
// @Tags         subscriptions
// @Produce      json
// @Param        request   body      request.SubscribeRequest true "request body"
// @Success      201      {object}   domain.Subscription
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /subscriptions [post]
func (h *NotificationHandler) HandleSubscribe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub, err := h.svc.Subscribe(ctx.Request.Context(), user, domain.Subscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSubscribe -> h.svc.Subscribe", err)
		return
	}

	ctx.JSON(http.StatusCreated, sub)
}

// HandleUnsubscribe godoc
// @Summary      Remove one of the caller's push subscriptions
// @Tags         subscriptions
// @Param        request   body      request.UnsubscribeRequest true "request body"
// @Success      204
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Security     BearerAuth
// @Router       /subscriptions [delete]
func (h *NotificationHandler) HandleUnsubscribe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UnsubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.Unsubscribe(ctx.Request.Context(), user, req.Endpoint); err != nil {
		renderServiceErr(ctx, "v1.HandleUnsubscribe -> h.svc.Unsubscribe", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
