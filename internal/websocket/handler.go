package websocket

import (
	"context"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one voice connection: it opens an agent session, serves frames
// until the peer goes away, then ends the session.
func ServeWs(hub *Hub, conn *websocket.Conn, svc service.IAgentService, workspaceID uint, log logger.ILogger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := svc.StartSession(ctx, workspaceID)
	if err != nil {
		log.Error("WSClient", "Failed to start session", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
		conn.Close()
		return
	}
	defer func() {
		_ = svc.EndSession(context.Background(), session.Id)
	}()

	client := &Client{
		Hub:         hub,
		Conn:        conn,
		WorkspaceID: workspaceID,
		SessionID:   session.Id,
		Send:        make(chan []byte, sendBuffer),
		service:     svc,
		logger:      log,
	}
	hub.Register(client)
	client.enqueue(client.encodeFrame(outboundFrame{Type: FrameSessionStarted, SessionID: session.Id}))

	go client.writePump()
	client.readPump(ctx)
}
