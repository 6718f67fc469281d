package contract

import (
	"context"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
)

type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Client, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Client, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
