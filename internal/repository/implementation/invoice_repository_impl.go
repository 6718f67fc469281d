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

type InvoiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InvoiceMapper
}

func NewInvoiceRepository(db *gorm.DB) contract.InvoiceRepository {
	return &InvoiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewInvoiceMapper(),
	}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, invoice *entity.Invoice) error {
	m := r.mapper.ToModel(invoice)
	// Items are written by GORM's association save in the same statement batch.
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*invoice = *r.mapper.ToEntity(m)
	return nil
}

func (r *InvoiceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Invoice{}, id).Error
}

func (r *InvoiceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error) {
	var m model.Invoice
	query := applySpecifications(preloadItems(r.db.WithContext(ctx)), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *InvoiceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Invoice, error) {
	var models []*model.Invoice
	query := applySpecifications(preloadItems(r.db.WithContext(ctx)), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*entity.Invoice, len(models))
	for i, m := range models {
		result[i] = r.mapper.ToEntity(m)
	}
	return result, nil
}

func (r *InvoiceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Invoice{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InvoiceRepositoryImpl) MaxSequence(ctx context.Context, workspaceId uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Invoice{}).
		Where("workspace_id = ?", workspaceId).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}
