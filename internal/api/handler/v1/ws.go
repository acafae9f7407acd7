package v1

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/volunteerhub/volunteerhub-api/internal/api/handler/v1/response"
	"github.com/volunteerhub/volunteerhub-api/internal/domain"
	"github.com/volunteerhub/volunteerhub-api/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type Client struct {
	conn   *websocket.Conn
	send   chan domain.Notification
	userID uint
}

// LiveFeedHandler streams notifications to connected browsers. It holds one
// event bus subscription per user with at least one open connection.
type LiveFeedHandler struct {
	bus      EventBus.Bus
	uSvc     UserService
	upgrader websocket.Upgrader

	clientsMutex sync.Mutex
	clients      map[uint]map[*Client]struct{}
	handlers     map[uint]func(domain.Notification)
}

func NewLiveFeedHandler(bus EventBus.Bus, uSvc UserService, allowedOrigins []string) *LiveFeedHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &LiveFeedHandler{
		bus:  bus,
		uSvc: uSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		clients:  make(map[uint]map[*Client]struct{}),
		handlers: make(map[uint]func(domain.Notification)),
	}
}

// HandleLiveFeed godoc
// @Summary      Stream the caller's notifications over a websocket
// @Description  Browsers pass the token in the access_token query param.
// @Tags         notifications
// @Param        access_token   query      string  true  "JWT"
// @Success      101      {string}   string "Switching Protocols"
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Router       /notifications/ws [get]
func (h *LiveFeedHandler) HandleLiveFeed(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan domain.Notification, sendBuffer),
		userID: user.ID,
	}
	if err := h.register(client); err != nil {
		zap.L().Error("failed to subscribe live feed", zap.Uint("user_id", user.ID), zap.Error(err))
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
	h.unregister(client)
}

func (h *LiveFeedHandler) register(c *Client) error {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if _, ok := h.handlers[c.userID]; !ok {
		uid := c.userID
		handler := func(n domain.Notification) { h.broadcast(uid, n) }
		// A sync handler would take clientsMutex under the bus lock, the
		// reverse of the order used here.
		if err := h.bus.SubscribeAsync(service.NotificationTopic(uid), handler, true); err != nil {
			return fmt.Errorf("h.bus.SubscribeAsync -> %w", err)
		}
		h.handlers[uid] = handler
		h.clients[uid] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}

	return nil
}

func (h *LiveFeedHandler) unregister(c *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)

	if len(conns) > 0 {
		return
	}
	delete(h.clients, c.userID)
	if handler, ok := h.handlers[c.userID]; ok {
		if err := h.bus.Unsubscribe(service.NotificationTopic(c.userID), handler); err != nil {
			zap.L().Warn("failed to unsubscribe live feed", zap.Uint("user_id", c.userID), zap.Error(err))
		}
		delete(h.handlers, c.userID)
	}
}

// broadcast never blocks the publisher. A client whose buffer is full misses
// the message and catches up from the notification list.
func (h *LiveFeedHandler) broadcast(userID uint, n domain.Notification) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- n:
		default:
			zap.L().Warn("live feed client is slow, dropping notification",
				zap.Uint("user_id", userID), zap.Uint("notification_id", n.ID))
		}
	}
}

// Connections reports the number of open live feed connections of a user.
func (h *LiveFeedHandler) Connections(userID uint) int {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	return len(h.clients[userID])
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case n, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only consumes control frames. It returns when the peer goes away.
func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Info("live feed connection closed", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}
