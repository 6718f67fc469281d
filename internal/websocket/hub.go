package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub tracks the live voice connections of this instance, grouped by
// workspace, and relays invoice events to them. With Redis configured the
// events also reach connections held by other instances.
type Hub struct {
	// Registered clients map: WorkspaceID -> connections in that workspace
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Tags our own Redis publications so they are not delivered twice.
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin            string          `json:"origin"`
	TargetWorkspaceID uint            `json:"target_workspace_id"`
	Message           json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register/unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.WorkspaceID] = append(h.clients[client.WorkspaceID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"workspace_id": client.WorkspaceID,
				"session_id":   client.SessionID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.WorkspaceID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.WorkspaceID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.WorkspaceID]) == 0 {
					delete(h.clients, client.WorkspaceID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
				"workspace_id": client.WorkspaceID,
				"session_id":   client.SessionID,
			})
		}
	}
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// ConnectionCount reports the connections held by this instance.
func (h *Hub) ConnectionCount(workspaceID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[workspaceID])
}

// BroadcastInvoice sends an invoice_created frame to every connection of the
// workspace, on this instance and, through Redis, on the others.
func (h *Hub) BroadcastInvoice(workspaceID uint, event events.BaseEvent) {
	data, err := json.Marshal(map[string]interface{}{
		"type": FrameInvoiceCreated,
		"data": event.Data,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal invoice frame", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(workspaceID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:            h.instanceID,
			TargetWorkspaceID: workspaceID,
			Message:           data,
		})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to Redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliver(workspaceID uint, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[workspaceID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{
				"workspace_id": workspaceID,
				"session_id":   client.SessionID,
			})
		}
	}
}

// subscribeToRedis delivers frames published by other instances to local
// connections of the target workspace.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.TargetWorkspaceID, payload.Message)
		}
	}
}
