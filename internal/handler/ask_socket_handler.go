package handler

import (
	"strings"

	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/pkg/serverutils"
	internalWS "lucide-core/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// AskSocketHandler upgrades window connections to the observer socket.
type AskSocketHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewAskSocketHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *AskSocketHandler {
	return &AskSocketHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake. Browsers cannot set headers on a
// websocket, so the query token comes first.
func (h *AskSocketHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenStr = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (query 'token' or header 'Authorization')"))
	}

	userIDStr, err := serverutils.ParseUserToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("ASK_SOCKET", "Invalid token in handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid user ID format in token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ASK_SOCKET", "Window session started", map[string]interface{}{"user_id": userID.String()})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("ASK_SOCKET", "Window session ended", map[string]interface{}{"user_id": userID.String()})
	})(c)
}

func (h *AskSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/ask", h.ServeWs)
}
