package handler

import (
	"strings"

	"ai-companion-be/internal/pkg/logger"
	internalWS "ai-companion-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedHandler upgrades to a websocket that streams new companions.
type FeedHandler struct {
	hub      *internalWS.Hub
	key      string
	sentinel string
	logger   logger.ILogger
}

func NewFeedHandler(hub *internalWS.Hub, key, sentinel string, log logger.ILogger) *FeedHandler {
	return &FeedHandler{
		hub:      hub,
		key:      key,
		sentinel: sentinel,
		logger:   log,
	}
}

func (h *FeedHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/companions", h.ServeWs)
}

func (h *FeedHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	subject := strings.ToLower(strings.TrimSpace(c.Query(h.key)))
	if subject == "" || strings.EqualFold(subject, h.sentinel) {
		subject = h.sentinel
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("FeedHandler", "Starting WebSocket session", map[string]interface{}{"subject": subject})
		internalWS.ServeWs(h.hub, conn, subject)
		h.logger.Info("FeedHandler", "WebSocket session ended", map[string]interface{}{"subject": subject})
	})(c)
}
