package handler

import (
	"strconv"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/service"
	internalWS "invoicing-agent-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// VoiceHandler upgrades voice front-end connections. Each connection gets its
// own agent session for as long as it stays open.
type VoiceHandler struct {
	service service.IAgentService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewVoiceHandler(service service.IAgentService, hub *internalWS.Hub, log logger.ILogger) *VoiceHandler {
	return &VoiceHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *VoiceHandler) ServeWs(c *fiber.Ctx) error {
	workspaceID, err := strconv.ParseUint(c.Query("workspace_id"), 10, 64)
	if err != nil || workspaceID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Query 'workspace_id' must be a positive integer")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("VoiceHandler", "Starting voice session", map[string]interface{}{"workspace_id": workspaceID})
		internalWS.ServeWs(h.hub, conn, h.service, uint(workspaceID), h.logger)
		h.logger.Info("VoiceHandler", "Voice session ended", map[string]interface{}{"workspace_id": workspaceID})
	})(c)
}

func (h *VoiceHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/agent/v1/ws", h.ServeWs)
}
