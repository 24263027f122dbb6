package handler

import (
	"context"

	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/internal/pkg/serverutils"
	"dataset-explorer-be/internal/service"
	internalWS "dataset-explorer-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChatHandler streams chat view snapshots to the browser.
type ChatHandler struct {
	chat   service.IChatService
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewChatHandler(chat service.IChatService, hub *internalWS.Hub, log logger.ILogger) *ChatHandler {
	return &ChatHandler{chat: chat, hub: hub, logger: log}
}

// bearerToken reads the token from the query (browsers) or the Authorization header (tooling).
func bearerToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// ServeWs authenticates the handshake and upgrades. With ?view=<id> the current snapshot
// of that view is written first so the client never starts blank.
func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := serverutils.ParseToken(tokenStr)
	if err != nil {
		h.logger.Warn("ChatHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		viewID := conn.Query("view")
		h.logger.Info("ChatHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID, "view_id": viewID})

		if viewID != "" {
			if snap, err := h.chat.GetView(context.Background(), userID, viewID); err == nil {
				_ = conn.WriteJSON(internalWS.Envelope{Type: service.ChatViewFrame, Data: snap})
			}
		}

		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("ChatHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/chat/v1/ws", h.ServeWs)
}
