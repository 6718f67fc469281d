package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/store"
)

type AddInvoiceItemParams struct {
	Description  string  `json:"description" validate:"required,max=255"`
	Quantity     float64 `json:"quantity" validate:"gt=0,lte=1000000"`
	UnitPrice    float64 `json:"unitPrice" validate:"gt=0,lte=1000000000"`
	QuantityUnit string  `json:"quantityUnit" validate:"omitempty,oneof=DAYS HOURS UNITS"`
}

func (p *AddInvoiceItemParams) normalize() {
	p.Description = strings.TrimSpace(p.Description)
	p.QuantityUnit = strings.ToUpper(strings.TrimSpace(p.QuantityUnit))
	if p.QuantityUnit == "" {
		p.QuantityUnit = string(entity.QuantityUnitUnits)
	}
}

type AddInvoiceItemResult struct {
	Success      bool    `json:"success"`
	ItemNumber   int     `json:"itemNumber"`
	ItemTotal    float64 `json:"itemTotal"`
	RunningTotal float64 `json:"runningTotal"`
	Message      string  `json:"message"`
}

func (k *Toolkit) AddInvoiceItem(ctx context.Context, s *store.Session, p *AddInvoiceItemParams) (*AddInvoiceItemResult, error) {
	unit := entity.QuantityUnit(p.QuantityUnit)
	lineTotal := p.Quantity * p.UnitPrice
	if math.IsInf(lineTotal, 0) || math.IsNaN(lineTotal) {
		return nil, ValidationFailed("That amount is too large for one line item.")
	}
	draft := s.EnsureDraft()

	// Tool-calling models sometimes repeat a call within one turn.
	if idx := draft.IndexOf(p.Description, p.Quantity, p.UnitPrice, unit); idx >= 0 {
		return &AddInvoiceItemResult{
			Success:      true,
			ItemNumber:   idx + 1,
			ItemTotal:    round2(draft.Items[idx].Total),
			RunningTotal: round2(draft.Total),
			Message:      fmt.Sprintf("%s is already on the invoice, so I didn't add it again. The running total is %s.", p.Description, formatAmount(draft.Total)),
		}, nil
	}

	// Append before the business lookup so a repeated call that slips in
	// meanwhile hits the duplicate check above.
	draft.Items = append(draft.Items, store.DraftLineItem{
		Name:         p.Description,
		Description:  p.Description,
		Quantity:     p.Quantity,
		QuantityUnit: unit,
		UnitPrice:    p.UnitPrice,
		DiscountType: entity.DiscountTypeNone,
		Total:        lineTotal,
	})
	idx := len(draft.Items) - 1
	draft.Recalculate()

	if draft.BusinessID != nil {
		k.applyBusinessTax(ctx, s, draft, idx)
	}

	item := draft.Items[idx]
	return &AddInvoiceItemResult{
		Success:      true,
		ItemNumber:   idx + 1,
		ItemTotal:    round2(item.Total),
		RunningTotal: round2(draft.Total),
		Message: fmt.Sprintf("Added item %d: %s %s of %s at %s each, %s. The running total is %s.",
			idx+1, formatQuantity(item.Quantity), strings.ToLower(string(item.QuantityUnit)), item.Description,
			formatAmount(item.UnitPrice), formatAmount(item.Total), formatAmount(draft.Total)),
	}, nil
}

// applyBusinessTax flags the item when the business taxes the invoice total.
// The flag is informational; invoice tax is computed from the subtotal at
// commit. A failed lookup leaves the item untaxed.
func (k *Toolkit) applyBusinessTax(ctx context.Context, s *store.Session, draft *store.DraftInvoice, idx int) {
	uow := k.factory.NewUnitOfWork(ctx)
	business, err := uow.BusinessRepository().FindOne(ctx,
		specification.ByID{ID: *draft.BusinessID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		k.logger.Warn(logModule, "Business tax lookup failed, item left untaxed", map[string]interface{}{
			"session_id":  s.ID,
			"business_id": *draft.BusinessID,
			"error":       err.Error(),
		})
		return
	}
	if business == nil || !business.TaxesByTotal() {
		return
	}
	draft.Items[idx].VatEnabled = true
	draft.Items[idx].Tax = business.DefaultTaxPercentage
}
