package events

import "time"

const (
	// InvoiceCreatedType is emitted once per committed invoice. Idempotent
	// replays do not emit it.
	InvoiceCreatedType = "INVOICE_CREATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INVOICE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewInvoiceCreated builds the event announced after a commit.
func NewInvoiceCreated(invoiceID uint, invoiceNumber string, workspaceID uint, total float64, sessionID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: InvoiceCreatedType,
		Data: map[string]interface{}{
			"invoice_id":     invoiceID,
			"invoice_number": invoiceNumber,
			"workspace_id":   workspaceID,
			"total":          total,
			"session_id":     sessionID,
		},
		OccurredAt: at,
	}
}
