package store

import (
	"math"
	"sync"
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/pkg/llm"
)

// Session is the in-memory state of one voice conversation. It lives in the
// session cache and is discarded when the connection ends.
type Session struct {
	ID          string `json:"id"`
	WorkspaceID uint   `json:"workspace_id"`

	// THE WORKBENCH (invoice being assembled, nil until first selection or item)
	CurrentInvoice *DraftInvoice `json:"current_invoice"`

	// Fingerprint of the previous commit, used to collapse a repeated createInvoice.
	LastCreatedInvoice *CreatedInvoice `json:"last_created_invoice"`

	// Chat history kept for the LLM driver.
	History []llm.Message `json:"-"`

	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	mu sync.Mutex
}

type DraftInvoice struct {
	CustomerID *uint           `json:"customer_id,omitempty"`
	BusinessID *uint           `json:"business_id,omitempty"`
	Items      []DraftLineItem `json:"items"`
	Subtotal   float64         `json:"subtotal"`
	TotalTax   float64         `json:"total_tax"`
	Discount   float64         `json:"discount"`
	Total      float64         `json:"total"`
	DueDate    string          `json:"due_date,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

type DraftLineItem struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Quantity     float64             `json:"quantity"`
	QuantityUnit entity.QuantityUnit `json:"quantity_unit"`
	UnitPrice    float64             `json:"unit_price"`
	Discount     float64             `json:"discount"`
	DiscountType entity.DiscountType `json:"discount_type"`
	Tax          float64             `json:"tax"`
	VatEnabled   bool                `json:"vat_enabled"`
	Total        float64             `json:"total"`
}

type CreatedInvoice struct {
	ID             uint      `json:"id"`
	InvoiceNumber  string    `json:"invoice_number"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"created_at"`
	IdempotencyKey string    `json:"idempotency_key"`

	// Draft is the committed draft, kept so a repeated createInvoice can be
	// matched after the workbench was cleared.
	Draft *DraftInvoice `json:"-"`
}

func NewSession(id string, workspaceID uint, now time.Time) *Session {
	return &Session{
		ID:           id,
		WorkspaceID:  workspaceID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Lock serializes tool calls on the session. Handlers for one connection may
// run on different goroutines, so every mutation happens under this lock.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// EnsureDraft returns the current draft, creating an empty one if needed.
func (s *Session) EnsureDraft() *DraftInvoice {
	if s.CurrentInvoice == nil {
		s.CurrentInvoice = &DraftInvoice{Items: []DraftLineItem{}}
	}
	return s.CurrentInvoice
}

func (s *Session) ClearDraft() {
	s.CurrentInvoice = nil
}

func (s *Session) Touch(now time.Time) {
	s.LastActiveAt = now
}

// Recalculate derives subtotal and total from the items. Item totals carry no
// tax or discount; those are applied when the invoice is committed.
func (d *DraftInvoice) Recalculate() {
	var subtotal float64
	for _, it := range d.Items {
		subtotal += it.Total
	}
	d.Subtotal = subtotal
	d.Total = subtotal
}

// IndexOf finds an item with the same description, quantity, price and unit.
func (d *DraftInvoice) IndexOf(description string, quantity, unitPrice float64, unit entity.QuantityUnit) int {
	for i, it := range d.Items {
		if it.Description == description &&
			sameAmount(it.Quantity, quantity) &&
			sameAmount(it.UnitPrice, unitPrice) &&
			it.QuantityUnit == unit {
			return i
		}
	}
	return -1
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
