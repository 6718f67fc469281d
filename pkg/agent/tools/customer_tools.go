package tools

import (
	"context"
	"fmt"
	"strings"

	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/store"
)

const maxCustomerMatches = 5

type LookupCustomerParams struct {
	Query string `json:"query" validate:"required,max=200"`
}

type CustomerSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LookupCustomerResult struct {
	Found     bool              `json:"found"`
	Customers []CustomerSummary `json:"customers,omitempty"`
	Message   string            `json:"message"`
}

func (k *Toolkit) LookupCustomer(ctx context.Context, s *store.Session, p *LookupCustomerParams) (*LookupCustomerResult, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, ValidationFailed("Tell me part of the customer's name or email to search for.")
	}

	uow := k.factory.NewUnitOfWork(ctx)
	clients, err := uow.ClientRepository().FindAll(ctx,
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
		specification.NameOrEmailContains{Query: query},
		specification.OrderBy{Field: "name"},
		specification.Pagination{Limit: maxCustomerMatches},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("search clients: %w", err))
	}

	if len(clients) == 0 {
		return &LookupCustomerResult{
			Found:   false,
			Message: fmt.Sprintf("I couldn't find a customer matching %q. Ask the user to spell the name or give the email address.", query),
		}, nil
	}

	result := &LookupCustomerResult{Found: true}
	spoken := make([]string, len(clients))
	for i, c := range clients {
		result.Customers = append(result.Customers, CustomerSummary{ID: c.Id, Name: c.Name, Email: c.Email})
		spoken[i] = fmt.Sprintf("%s, %s", c.Name, FormatEmailForSpeech(c.Email))
	}

	if len(clients) == 1 {
		result.Message = fmt.Sprintf("I found one customer: %s. Confirm with the user before selecting it.", spoken[0])
	} else {
		result.Message = fmt.Sprintf("I found %d customers: %s. Ask the user which one they mean.", len(clients), strings.Join(spoken, "; "))
	}
	return result, nil
}

type SelectCustomerParams struct {
	CustomerID uint `json:"customerId" validate:"required,gt=0"`
}

type SelectCustomerResult struct {
	Success       bool   `json:"success"`
	CustomerID    uint   `json:"customerId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	Message       string `json:"message"`
}

func (k *Toolkit) SelectCustomer(ctx context.Context, s *store.Session, p *SelectCustomerParams) (*SelectCustomerResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	client, err := uow.ClientRepository().FindOne(ctx,
		specification.ByID{ID: p.CustomerID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("find client %d: %w", p.CustomerID, err))
	}
	if client == nil {
		return nil, NotFound("I couldn't find that customer in this workspace. Search for the customer again.")
	}

	id := client.Id
	s.EnsureDraft().CustomerID = &id

	return &SelectCustomerResult{
		Success:       true,
		CustomerID:    client.Id,
		CustomerName:  client.Name,
		CustomerEmail: client.Email,
		Message:       fmt.Sprintf("Selected %s, %s, as the customer for this invoice.", client.Name, FormatEmailForSpeech(client.Email)),
	}, nil
}
