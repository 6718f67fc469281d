package contract

import (
	"context"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
)

type InvoiceRepository interface {
	// Create persists the invoice and its items in one write.
	Create(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uint) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Invoice, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxSequence includes soft-deleted invoices; their numbers are never reused.
	MaxSequence(ctx context.Context, workspaceId uint) (int, error)
}
