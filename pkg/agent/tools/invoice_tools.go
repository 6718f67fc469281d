package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/database"
	"invoicing-agent-be/pkg/store"
)

const (
	msgNoDraft      = "There is no invoice in progress. Select a customer, a business and add line items first."
	msgNoCustomer   = "Select a customer first before creating the invoice."
	msgNoBusiness   = "Select a business first before creating the invoice."
	msgNoItems      = "No line items have been added yet. Add at least one line item before creating the invoice."
	msgBadDueDate   = "I couldn't understand the due date. Give it as year, month and day, for example 2030-06-30."
	msgPastDueDate  = "That due date is in the past. Choose today or a later date."
	dueDateSpeakFmt = "January 2, 2006"
)

type CreateInvoiceParams struct {
	DueDate string `json:"dueDate" validate:"required,max=20"`
	Notes   string `json:"notes" validate:"max=2000"`
}

func (p *CreateInvoiceParams) normalize() {
	p.DueDate = strings.TrimSpace(p.DueDate)
	p.Notes = strings.TrimSpace(p.Notes)
}

type CreateInvoiceResult struct {
	Success       bool    `json:"success"`
	InvoiceID     uint    `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Total         float64 `json:"total"`
	Duplicate     bool    `json:"duplicate,omitempty"`
	Message       string  `json:"message"`
}

func checkPreconditions(draft *store.DraftInvoice) error {
	switch {
	case draft == nil:
		return PreconditionViolated(msgNoDraft)
	case draft.CustomerID == nil:
		return PreconditionViolated(msgNoCustomer)
	case draft.BusinessID == nil:
		return PreconditionViolated(msgNoBusiness)
	case len(draft.Items) == 0:
		return PreconditionViolated(msgNoItems)
	}
	return nil
}

// CreateInvoice commits the draft. A call that repeats the previous commit
// of this session returns that invoice instead of creating another.
func (k *Toolkit) CreateInvoice(ctx context.Context, s *store.Session, p *CreateInvoiceParams) (*CreateInvoiceResult, error) {
	draft := s.CurrentInvoice
	// The workbench is empty right after a commit; a repeat can only match
	// the committed draft.
	replayOnly := false
	if draft == nil && s.LastCreatedInvoice != nil && s.LastCreatedInvoice.Draft != nil {
		draft = s.LastCreatedInvoice.Draft
		replayOnly = true
	}

	if err := checkPreconditions(draft); err != nil {
		return nil, err
	}

	key, err := IdempotencyKey(draft, CanonicalDueDate(p.DueDate, k.now()), p.Notes)
	if err != nil {
		return nil, Upstream(err)
	}

	if last := s.LastCreatedInvoice; last != nil && last.IdempotencyKey == key {
		replay, err := k.replay(ctx, s, last)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
		k.logger.Warn(logModule, "Previously created invoice is gone, committing again", map[string]interface{}{
			"session_id": s.ID,
			"invoice_id": last.ID,
		})
	} else if replayOnly {
		return nil, PreconditionViolated(msgNoDraft)
	}

	return k.commit(ctx, s, draft, key, p)
}

func (k *Toolkit) replay(ctx context.Context, s *store.Session, last *store.CreatedInvoice) (*CreateInvoiceResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	existing, err := uow.InvoiceRepository().FindOne(ctx,
		specification.ByID{ID: last.ID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("find invoice %d: %w", last.ID, err))
	}
	if existing == nil {
		return nil, nil
	}

	k.logger.Info(logModule, "Duplicate createInvoice collapsed", map[string]interface{}{
		"session_id":     s.ID,
		"invoice_number": existing.InvoiceNumber,
	})
	return &CreateInvoiceResult{
		Success:       true,
		InvoiceID:     existing.Id,
		InvoiceNumber: existing.InvoiceNumber,
		Total:         round2(existing.Total),
		Duplicate:     true,
		Message:       fmt.Sprintf("Invoice %s was already created with these details, so I didn't create another one. The total is %s.", existing.InvoiceNumber, formatAmount(existing.Total)),
	}, nil
}

func (k *Toolkit) commit(ctx context.Context, s *store.Session, draft *store.DraftInvoice, key string, p *CreateInvoiceParams) (*CreateInvoiceResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)

	business, err := uow.BusinessRepository().FindOne(ctx,
		specification.ByID{ID: *draft.BusinessID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("find business %d: %w", *draft.BusinessID, err))
	}
	if business == nil {
		return nil, NotFound("The selected business is no longer available. List the businesses and select one again.")
	}

	client, err := uow.ClientRepository().FindOne(ctx,
		specification.ByID{ID: *draft.CustomerID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("find client %d: %w", *draft.CustomerID, err))
	}
	if client == nil {
		return nil, NotFound("The selected customer is no longer available. Search for the customer again.")
	}

	now := k.now()
	dueDate, err := ParseDueDate(p.DueDate, now)
	if err != nil {
		if errors.Is(err, ErrDueDatePast) {
			return nil, &ToolError{Kind: KindValidationFailed, Message: msgPastDueDate, Err: err}
		}
		return nil, &ToolError{Kind: KindValidationFailed, Message: msgBadDueDate, Err: err}
	}

	invoice := buildInvoice(s.WorkspaceID, draft, business, client, p.Notes, midnight(now), dueDate)

	if err := uow.Begin(ctx); err != nil {
		return nil, Upstream(fmt.Errorf("begin invoice commit: %w", err))
	}
	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback()
			panic(r)
		}
	}()

	seq, err := uow.InvoiceSequenceRepository().Next(ctx, s.WorkspaceID)
	if err != nil {
		_ = uow.Rollback()
		return nil, Upstream(fmt.Errorf("allocate invoice sequence: %w", err))
	}
	invoice.Sequence = seq
	invoice.InvoiceNumber = entity.FormatInvoiceNumber(seq)

	if err := uow.InvoiceRepository().Create(ctx, invoice); err != nil {
		_ = uow.Rollback()
		if database.IsUniqueViolation(err) {
			return nil, Upstream(fmt.Errorf("invoice sequence %d already taken: %w", seq, err))
		}
		return nil, Upstream(fmt.Errorf("create invoice: %w", err))
	}

	if err := uow.Commit(); err != nil {
		return nil, Upstream(fmt.Errorf("commit invoice: %w", err))
	}

	s.LastCreatedInvoice = &store.CreatedInvoice{
		ID:             invoice.Id,
		InvoiceNumber:  invoice.InvoiceNumber,
		Total:          invoice.Total,
		CreatedAt:      invoice.CreatedAt,
		IdempotencyKey: key,
		Draft:          draft,
	}
	s.ClearDraft()

	k.logger.Info(logModule, "Invoice created", map[string]interface{}{
		"session_id":     s.ID,
		"workspace_id":   s.WorkspaceID,
		"invoice_id":     invoice.Id,
		"invoice_number": invoice.InvoiceNumber,
		"total":          invoice.Total,
	})

	if k.observer != nil {
		k.observer.InvoiceCreated(ctx, InvoiceCreated{
			InvoiceID:     invoice.Id,
			InvoiceNumber: invoice.InvoiceNumber,
			WorkspaceID:   s.WorkspaceID,
			CustomerID:    client.Id,
			BusinessID:    business.Id,
			Total:         invoice.Total,
			SessionID:     s.ID,
			CreatedAt:     invoice.CreatedAt,
		})
	}

	return &CreateInvoiceResult{
		Success:       true,
		InvoiceID:     invoice.Id,
		InvoiceNumber: invoice.InvoiceNumber,
		Total:         round2(invoice.Total),
		Message: fmt.Sprintf("Invoice %s for %s is created. The total is %s, due %s.",
			invoice.InvoiceNumber, client.Name, formatAmount(invoice.Total), dueDate.Format(dueDateSpeakFmt)),
	}, nil
}

func buildInvoice(workspaceID uint, draft *store.DraftInvoice, business *entity.Business, client *entity.Client, notes string, issueDate, dueDate time.Time) *entity.Invoice {
	subtotal := 0.0
	items := make([]entity.InvoiceItem, len(draft.Items))
	for i, it := range draft.Items {
		subtotal += it.Total
		items[i] = entity.InvoiceItem{
			Position:     i,
			Name:         it.Name,
			Description:  it.Description,
			Quantity:     it.Quantity,
			QuantityUnit: it.QuantityUnit,
			UnitPrice:    it.UnitPrice,
			Discount:     it.Discount,
			DiscountType: it.DiscountType,
			Tax:          it.Tax,
			VatEnabled:   it.VatEnabled,
			Total:        it.Total,
		}
	}

	// Item-level VAT flags are not summed; a BY_TOTAL business taxes the subtotal once.
	totalTax := 0.0
	if business.TaxesByTotal() {
		totalTax = round2(subtotal * business.DefaultTaxPercentage / 100)
	}
	total := round2(subtotal + totalTax)

	if notes == "" {
		notes = business.DefaultNotes
	}

	return &entity.Invoice{
		WorkspaceId:   workspaceID,
		ClientId:      client.Id,
		BusinessId:    business.Id,
		Status:        entity.InvoiceStatusDraft,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Notes:         notes,
		Terms:         business.DefaultTerms,
		ClientEmail:   client.Email,
		ClientPhone:   client.Phone,
		ClientAddress: client.Address,
		TaxMode:       business.DefaultTaxMode,
		TaxName:       business.DefaultTaxName,
		TaxPercentage: business.DefaultTaxPercentage,
		Subtotal:      round2(subtotal),
		TotalTax:      totalTax,
		Total:         total,
		Balance:       total,
		Items:         items,
	}
}

type GetCurrentInvoiceParams struct{}

type DraftItemSummary struct {
	Number       int     `json:"number"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	QuantityUnit string  `json:"quantityUnit"`
	UnitPrice    float64 `json:"unitPrice"`
	Total        float64 `json:"total"`
}

type GetCurrentInvoiceResult struct {
	InProgress bool               `json:"inProgress"`
	CustomerID *uint              `json:"customerId,omitempty"`
	BusinessID *uint              `json:"businessId,omitempty"`
	Items      []DraftItemSummary `json:"items,omitempty"`
	Subtotal   float64            `json:"subtotal"`
	Message    string             `json:"message"`
}

// GetCurrentInvoice reads the draft back without touching it.
func (k *Toolkit) GetCurrentInvoice(_ context.Context, s *store.Session, _ *GetCurrentInvoiceParams) (*GetCurrentInvoiceResult, error) {
	draft := s.CurrentInvoice
	if draft == nil {
		msg := "There is no invoice in progress."
		if last := s.LastCreatedInvoice; last != nil {
			msg += fmt.Sprintf(" The last invoice created was %s for %s.", last.InvoiceNumber, formatAmount(last.Total))
		}
		return &GetCurrentInvoiceResult{InProgress: false, Message: msg}, nil
	}

	result := &GetCurrentInvoiceResult{
		InProgress: true,
		CustomerID: draft.CustomerID,
		BusinessID: draft.BusinessID,
		Subtotal:   round2(draft.Subtotal),
	}
	for i, it := range draft.Items {
		result.Items = append(result.Items, DraftItemSummary{
			Number:       i + 1,
			Description:  it.Description,
			Quantity:     it.Quantity,
			QuantityUnit: string(it.QuantityUnit),
			UnitPrice:    it.UnitPrice,
			Total:        round2(it.Total),
		})
	}

	var missing []string
	if draft.CustomerID == nil {
		missing = append(missing, "a customer")
	}
	if draft.BusinessID == nil {
		missing = append(missing, "a business")
	}
	if len(draft.Items) == 0 {
		missing = append(missing, "line items")
	}

	result.Message = fmt.Sprintf("The invoice has %s with a subtotal of %s.",
		pluralize(int64(len(draft.Items)), "item", "items"), formatAmount(draft.Subtotal))
	if len(missing) > 0 {
		result.Message += " It still needs " + strings.Join(missing, " and ") + "."
	} else {
		result.Message += " It is ready to be created once a due date is given."
	}
	return result, nil
}
