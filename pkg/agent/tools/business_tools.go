package tools

import (
	"context"
	"fmt"
	"strings"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/store"
)

type ListBusinessesParams struct{}

type BusinessSummary struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	IsDefault bool           `json:"isDefault"`
	TaxMode   entity.TaxMode `json:"taxMode"`
}

type ListBusinessesResult struct {
	Found      bool              `json:"found"`
	Businesses []BusinessSummary `json:"businesses,omitempty"`
	Message    string            `json:"message"`
}

func (k *Toolkit) ListBusinesses(ctx context.Context, s *store.Session, _ *ListBusinessesParams) (*ListBusinessesResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	businesses, err := uow.BusinessRepository().FindAll(ctx,
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
		specification.DefaultFirst{},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("list businesses: %w", err))
	}

	if len(businesses) == 0 {
		return &ListBusinessesResult{
			Found:   false,
			Message: "There are no businesses set up in this workspace yet, so an invoice can't be issued. Ask the user to add a business first.",
		}, nil
	}

	result := &ListBusinessesResult{Found: true}
	names := make([]string, len(businesses))
	for i, b := range businesses {
		result.Businesses = append(result.Businesses, BusinessSummary{
			ID:        b.Id,
			Name:      b.Name,
			IsDefault: b.IsDefault,
			TaxMode:   b.DefaultTaxMode,
		})
		names[i] = b.Name
		if b.IsDefault {
			names[i] += " (default)"
		}
	}

	if len(businesses) == 1 {
		result.Message = fmt.Sprintf("There is one business, %s. Select it now without asking.", businesses[0].Name)
	} else {
		result.Message = fmt.Sprintf("There are %d businesses: %s. Ask the user which business is issuing this invoice.", len(businesses), strings.Join(names, ", "))
	}
	return result, nil
}

type SelectBusinessParams struct {
	BusinessID uint `json:"businessId" validate:"required,gt=0"`
}

type SelectBusinessResult struct {
	Success      bool   `json:"success"`
	BusinessID   uint   `json:"businessId"`
	BusinessName string `json:"businessName"`
	Message      string `json:"message"`
}

func (k *Toolkit) SelectBusiness(ctx context.Context, s *store.Session, p *SelectBusinessParams) (*SelectBusinessResult, error) {
	uow := k.factory.NewUnitOfWork(ctx)
	business, err := uow.BusinessRepository().FindOne(ctx,
		specification.ByID{ID: p.BusinessID},
		specification.InWorkspace{WorkspaceID: s.WorkspaceID},
	)
	if err != nil {
		return nil, Upstream(fmt.Errorf("find business %d: %w", p.BusinessID, err))
	}
	if business == nil {
		return nil, NotFound("I couldn't find that business in this workspace. List the businesses again.")
	}

	id := business.Id
	s.EnsureDraft().BusinessID = &id

	return &SelectBusinessResult{
		Success:      true,
		BusinessID:   business.Id,
		BusinessName: business.Name,
		Message:      fmt.Sprintf("%s will issue this invoice.", business.Name),
	}, nil
}
