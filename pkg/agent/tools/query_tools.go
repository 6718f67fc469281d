package tools

import (
	"context"
	"fmt"

	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/store"
)

type CountParams struct{}

type CountResult struct {
	Count   int64  `json:"count"`
	Message string `json:"message"`
}

func (k *Toolkit) CountClients(ctx context.Context, s *store.Session, _ *CountParams) (*CountResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	n, err := uow.ClientRepository().Count(ctx, specification.InWorkspace{WorkspaceID: s.WorkspaceID})
	if err != nil {
		return nil, Upstream(fmt.Errorf("count clients: %w", err))
	}
	return &CountResult{
		Count:   n,
		Message: fmt.Sprintf("You have %s.", pluralize(n, "client", "clients")),
	}, nil
}

func (k *Toolkit) CountInvoices(ctx context.Context, s *store.Session, _ *CountParams) (*CountResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	n, err := uow.InvoiceRepository().Count(ctx, specification.InWorkspace{WorkspaceID: s.WorkspaceID})
	if err != nil {
		return nil, Upstream(fmt.Errorf("count invoices: %w", err))
	}
	return &CountResult{
		Count:   n,
		Message: fmt.Sprintf("You have %s.", pluralize(n, "invoice", "invoices")),
	}, nil
}
