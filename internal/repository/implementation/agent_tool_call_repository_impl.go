package implementation

import (
	"context"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/mapper"
	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/repository/contract"
	"invoicing-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentToolCallRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentToolCallMapper
}

func NewAgentToolCallRepository(db *gorm.DB) contract.AgentToolCallRepository {
	return &AgentToolCallRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentToolCallMapper(),
	}
}

func (r *AgentToolCallRepositoryImpl) Create(ctx context.Context, call *entity.AgentToolCall) error {
	if call.Id == uuid.Nil {
		call.Id = uuid.New()
	}
	m := r.mapper.ToModel(call)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*call = *r.mapper.ToEntity(m)
	return nil
}

func (r *AgentToolCallRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AgentToolCall, error) {
	var models []*model.AgentToolCall
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*entity.AgentToolCall, len(models))
	for i, m := range models {
		result[i] = r.mapper.ToEntity(m)
	}
	return result, nil
}

func (r *AgentToolCallRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.AgentToolCall{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
