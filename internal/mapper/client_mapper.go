package mapper

import (
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/model"
)

type ClientMapper struct{}

func NewClientMapper() *ClientMapper {
	return &ClientMapper{}
}

func (m *ClientMapper) ToEntity(c *model.Client) *entity.Client {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Client{
		Id:          c.Id,
		WorkspaceId: c.WorkspaceId,
		Sequence:    c.Sequence,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *ClientMapper) ToModel(c *entity.Client) *model.Client {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Client{
		Id:          c.Id,
		WorkspaceId: c.WorkspaceId,
		Sequence:    c.Sequence,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *ClientMapper) ToEntities(clients []*model.Client) []*entity.Client {
	entities := make([]*entity.Client, len(clients))
	for i, c := range clients {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
