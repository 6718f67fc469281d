package unitofwork

import (
	"context"

	"invoicing-agent-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ClientRepository() contract.ClientRepository
	BusinessRepository() contract.BusinessRepository
	InvoiceRepository() contract.InvoiceRepository
	InvoiceSequenceRepository() contract.InvoiceSequenceRepository
	AgentToolCallRepository() contract.AgentToolCallRepository
}
