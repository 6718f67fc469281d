package implementation

import (
	"context"
	"fmt"

	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceSequenceRepositoryImpl struct {
	db       *gorm.DB
	invoices contract.InvoiceRepository
}

func NewInvoiceSequenceRepository(db *gorm.DB) contract.InvoiceSequenceRepository {
	return &InvoiceSequenceRepositoryImpl{
		db:       db,
		invoices: NewInvoiceRepository(db),
	}
}

func (r *InvoiceSequenceRepositoryImpl) Next(ctx context.Context, workspaceId uint) (int, error) {
	incremented, err := r.increment(ctx, workspaceId)
	if err != nil {
		return 0, err
	}

	if !incremented {
		// First invoice through the counter for this workspace: start from
		// whatever was already written, then retry the increment.
		seed, err := r.invoices.MaxSequence(ctx, workspaceId)
		if err != nil {
			return 0, fmt.Errorf("read max invoice sequence: %w", err)
		}
		row := model.InvoiceSequence{WorkspaceId: workspaceId, LastValue: seed}
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return 0, fmt.Errorf("seed invoice sequence: %w", err)
		}
		if incremented, err = r.increment(ctx, workspaceId); err != nil {
			return 0, err
		}
		if !incremented {
			return 0, fmt.Errorf("invoice sequence row missing for workspace %d", workspaceId)
		}
	}

	var row model.InvoiceSequence
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceId).First(&row).Error; err != nil {
		return 0, fmt.Errorf("read invoice sequence: %w", err)
	}
	return row.LastValue, nil
}

func (r *InvoiceSequenceRepositoryImpl) increment(ctx context.Context, workspaceId uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InvoiceSequence{}).
		Where("workspace_id = ?", workspaceId).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment invoice sequence: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
