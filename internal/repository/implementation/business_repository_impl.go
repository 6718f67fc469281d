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

type BusinessRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BusinessMapper
}

func NewBusinessRepository(db *gorm.DB) contract.BusinessRepository {
	return &BusinessRepositoryImpl{
		db:     db,
		mapper: mapper.NewBusinessMapper(),
	}
}

func (r *BusinessRepositoryImpl) Create(ctx context.Context, business *entity.Business) error {
	m := r.mapper.ToModel(business)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*business = *r.mapper.ToEntity(m)
	return nil
}

func (r *BusinessRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Business, error) {
	var m model.Business
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BusinessRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Business, error) {
	var models []*model.Business
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BusinessRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Business{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
