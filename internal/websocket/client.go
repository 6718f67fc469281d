package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"invoicing-agent-be/internal/dto"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/service"
	"invoicing-agent-be/pkg/agent/tools"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Frame types exchanged with the voice front end.
const (
	FrameToolCall       = "tool_call"
	FrameUtterance      = "utterance"
	FrameSessionStarted = "session_started"
	FrameToolResult     = "tool_result"
	FrameReply          = "reply"
	FrameInvoiceCreated = "invoice_created"
	FrameError          = "error"
)

type inboundFrame struct {
	Type      string          `json:"type"`
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Text      string          `json:"text"`
}

type outboundFrame struct {
	Type      string                      `json:"type"`
	SessionID string                      `json:"session_id,omitempty"`
	CallID    string                      `json:"call_id,omitempty"`
	Result    interface{}                 `json:"result,omitempty"`
	Error     *dto.ToolErrorResponse      `json:"error,omitempty"`
	Text      string                      `json:"text,omitempty"`
	ToolCalls []dto.ToolCallTraceResponse `json:"tool_calls,omitempty"`
	Message   string                      `json:"message,omitempty"`
}

// Client is one voice connection. It owns exactly one agent session.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	WorkspaceID uint
	SessionID   string

	// Buffered channel of outbound messages.
	Send chan []byte

	service service.IAgentService
	logger  logger.ILogger
}

// readPump reads frames and handles them one at a time, so tool calls from a
// single connection are applied in the order they were sent.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.keepAlive(ctx)
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WSClient", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if out := c.handleFrame(ctx, raw); out != nil {
			c.enqueue(out)
		}
	}
}

// keepAlive ties the session's lifetime to the connection rather than to the
// last frame.
func (c *Client) keepAlive(ctx context.Context) {
	if err := c.service.KeepAlive(ctx, c.SessionID); err != nil {
		c.logger.Warn("WSClient", "Session expired on an open connection", map[string]interface{}{
			"session_id": c.SessionID,
			"error":      err.Error(),
		})
	}
}

// handleFrame runs one inbound frame against the session and returns the
// encoded reply frame.
func (c *Client) handleFrame(ctx context.Context, raw []byte) []byte {
	var in inboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return c.encodeFrame(outboundFrame{Type: FrameError, Message: "Frames must be JSON objects."})
	}

	switch in.Type {
	case FrameToolCall:
		res, err := c.service.InvokeTool(ctx, c.SessionID, in.Name, in.Arguments)
		if err != nil {
			if errors.Is(err, service.ErrToolNotFound) {
				return c.encodeFrame(outboundFrame{
					Type:   FrameToolResult,
					CallID: in.CallID,
					Error:  &dto.ToolErrorResponse{Kind: string(tools.KindValidationFailed), Message: "There is no tool called " + in.Name + "."},
				})
			}
			c.logger.Warn("WSClient", "Tool call failed", map[string]interface{}{
				"session_id": c.SessionID,
				"tool":       in.Name,
				"error":      err.Error(),
			})
			return c.encodeFrame(outboundFrame{Type: FrameError, CallID: in.CallID, Message: spokenError(err)})
		}
		return c.encodeFrame(outboundFrame{
			Type:   FrameToolResult,
			CallID: in.CallID,
			Result: res.Result,
			Error:  res.Error,
		})

	case FrameUtterance:
		if in.Text == "" {
			return c.encodeFrame(outboundFrame{Type: FrameError, Message: "Utterance text is empty."})
		}
		reply, err := c.service.Converse(ctx, c.SessionID, in.Text)
		if err != nil {
			c.logger.Warn("WSClient", "Utterance failed", map[string]interface{}{
				"session_id": c.SessionID,
				"error":      err.Error(),
			})
			return c.encodeFrame(outboundFrame{Type: FrameError, Message: spokenError(err)})
		}
		return c.encodeFrame(outboundFrame{Type: FrameReply, Text: reply.Text, ToolCalls: reply.ToolCalls})
	}

	return c.encodeFrame(outboundFrame{Type: FrameError, Message: "Unknown frame type " + in.Type + "."})
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		c.logger.Warn("WSClient", "Send buffer full, dropping frame", map[string]interface{}{"session_id": c.SessionID})
	}
}

const (
	msgSessionGone  = "This conversation has expired. Please reconnect to start a new one."
	msgTryAgain     = "I couldn't process that just now. Please try again."
	msgEncodeFailed = "I couldn't send that result. Please try again."
)

func spokenError(err error) string {
	if errors.Is(err, service.ErrSessionNotFound) {
		return msgSessionGone
	}
	return msgTryAgain
}

// encodeFrame marshals f. A frame that cannot be encoded is replaced by an
// error frame carrying the same call id.
func (c *Client) encodeFrame(f outboundFrame) []byte {
	data, err := json.Marshal(f)
	if err == nil {
		return data
	}
	c.logger.Error("WSClient", "Failed to encode frame", map[string]interface{}{
		"session_id": c.SessionID,
		"frame_type": f.Type,
		"error":      err.Error(),
	})
	data, _ = json.Marshal(outboundFrame{Type: FrameError, CallID: f.CallID, Message: msgEncodeFailed})
	return data
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per message; the front end parses each as a JSON object.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
