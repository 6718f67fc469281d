package contract

import (
	"context"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
)

type BusinessRepository interface {
	Create(ctx context.Context, business *entity.Business) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Business, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Business, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
