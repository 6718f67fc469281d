package implementation

import (
	"context"
	"errors"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/mapper"
	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/repository/contract"
	"invoicing-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ClientRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClientMapper
}

func NewClientRepository(db *gorm.DB) contract.ClientRepository {
	return &ClientRepositoryImpl{
		db:     db,
		mapper: mapper.NewClientMapper(),
	}
}

func (r *ClientRepositoryImpl) Create(ctx context.Context, client *entity.Client) error {
	m := r.mapper.ToModel(client)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*client = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClientRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Client, error) {
	var m model.Client
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ClientRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Client, error) {
	var models []*model.Client
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ClientRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Client{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
