package contract

import (
	"context"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/repository/specification"
)

type AgentToolCallRepository interface {
	Create(ctx context.Context, call *entity.AgentToolCall) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AgentToolCall, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
