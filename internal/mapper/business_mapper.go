package mapper

import (
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/model"
)

type BusinessMapper struct{}

func NewBusinessMapper() *BusinessMapper {
	return &BusinessMapper{}
}

func (m *BusinessMapper) ToEntity(b *model.Business) *entity.Business {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	return &entity.Business{
		Id:                   b.Id,
		WorkspaceId:          b.WorkspaceId,
		Sequence:             b.Sequence,
		Name:                 b.Name,
		Email:                b.Email,
		IsDefault:            b.IsDefault,
		DefaultTaxMode:       entity.TaxMode(b.DefaultTaxMode),
		DefaultTaxName:       b.DefaultTaxName,
		DefaultTaxPercentage: b.DefaultTaxPercentage,
		DefaultNotes:         b.DefaultNotes,
		DefaultTerms:         b.DefaultTerms,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *BusinessMapper) ToModel(b *entity.Business) *model.Business {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	taxMode := b.DefaultTaxMode
	if taxMode == "" {
		taxMode = entity.TaxModeNone
	}

	return &model.Business{
		Id:                   b.Id,
		WorkspaceId:          b.WorkspaceId,
		Sequence:             b.Sequence,
		Name:                 b.Name,
		Email:                b.Email,
		IsDefault:            b.IsDefault,
		DefaultTaxMode:       string(taxMode),
		DefaultTaxName:       b.DefaultTaxName,
		DefaultTaxPercentage: b.DefaultTaxPercentage,
		DefaultNotes:         b.DefaultNotes,
		DefaultTerms:         b.DefaultTerms,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            updatedAt,
	}
}

func (m *BusinessMapper) ToEntities(businesses []*model.Business) []*entity.Business {
	entities := make([]*entity.Business, len(businesses))
	for i, b := range businesses {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
