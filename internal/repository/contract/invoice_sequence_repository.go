package contract

import "context"

type InvoiceSequenceRepository interface {
	// Next increments and returns the workspace counter. Call it inside a
	// transaction so the row stays locked until the invoice is written.
	Next(ctx context.Context, workspaceId uint) (int, error)
}
