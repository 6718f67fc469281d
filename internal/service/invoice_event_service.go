package service

import (
	"context"
	"encoding/json"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const eventLogModule = "INVOICE_EVENTS"

// EventPublisher forwards events out of the process (NATS in production).
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// InvoiceBroadcaster pushes invoice events to the workspace's live connections.
type InvoiceBroadcaster interface {
	BroadcastInvoice(workspaceID uint, event events.BaseEvent)
}

// InvoiceEventPublisher puts committed invoices on the in-process bus. It is
// the commit observer handed to the toolkit.
type InvoiceEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewInvoiceEventPublisher(publisher message.Publisher, topic string, log logger.ILogger) *InvoiceEventPublisher {
	return &InvoiceEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    log,
	}
}

func (p *InvoiceEventPublisher) InvoiceCreated(_ context.Context, e tools.InvoiceCreated) {
	evt := events.NewInvoiceCreated(e.InvoiceID, e.InvoiceNumber, e.WorkspaceID, e.Total, e.SessionID, e.CreatedAt)

	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error(eventLogModule, "Failed to marshal invoice event", map[string]interface{}{
			"invoice_id": e.InvoiceID,
			"error":      err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error(eventLogModule, "Failed to publish invoice event", map[string]interface{}{
			"invoice_id": e.InvoiceID,
			"error":      err.Error(),
		})
	}
}

type IInvoiceEventConsumer interface {
	Consume(ctx context.Context) error
}

type invoiceEventConsumer struct {
	subscriber  message.Subscriber
	topic       string
	publisher   EventPublisher
	broadcaster InvoiceBroadcaster
	logger      logger.ILogger
}

// NewInvoiceEventConsumer fans bus messages out to NATS and the websocket hub.
// Either sink may be nil.
func NewInvoiceEventConsumer(
	subscriber message.Subscriber,
	topic string,
	publisher EventPublisher,
	broadcaster InvoiceBroadcaster,
	log logger.ILogger,
) IInvoiceEventConsumer {
	return &invoiceEventConsumer{
		subscriber:  subscriber,
		topic:       topic,
		publisher:   publisher,
		broadcaster: broadcaster,
		logger:      log,
	}
}

func (c *invoiceEventConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *invoiceEventConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var evt events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.logger.Error(eventLogModule, "Failed to unmarshal invoice event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // poison message, retrying will not help
		return
	}

	if c.broadcaster != nil {
		if ws, ok := workspaceOf(evt); ok {
			c.broadcaster.BroadcastInvoice(ws, evt)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, evt); err != nil {
			c.logger.Warn(eventLogModule, "Failed to forward invoice event to NATS", map[string]interface{}{
				"message_id": msg.UUID,
				"error":      err.Error(),
			})
		}
	}

	c.logger.Info(eventLogModule, "Invoice event dispatched", map[string]interface{}{
		"type":           evt.Type,
		"invoice_number": evt.Data["invoice_number"],
	})
	msg.Ack()
}

// workspaceOf reads the workspace id back out of a JSON-decoded payload.
func workspaceOf(evt events.BaseEvent) (uint, bool) {
	switch v := evt.Data["workspace_id"].(type) {
	case float64:
		return uint(v), v > 0
	case uint:
		return v, v > 0
	}
	return 0, false
}
