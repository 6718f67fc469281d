package unitofwork

import (
	"context"
	"fmt"

	"invoicing-agent-be/internal/repository/contract"
	"invoicing-agent-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // non-nil between Begin and Commit/Rollback
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) ClientRepository() contract.ClientRepository {
	return implementation.NewClientRepository(u.getDB())
}

func (u *UnitOfWorkImpl) BusinessRepository() contract.BusinessRepository {
	return implementation.NewBusinessRepository(u.getDB())
}

func (u *UnitOfWorkImpl) InvoiceRepository() contract.InvoiceRepository {
	return implementation.NewInvoiceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) InvoiceSequenceRepository() contract.InvoiceSequenceRepository {
	return implementation.NewInvoiceSequenceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) AgentToolCallRepository() contract.AgentToolCallRepository {
	return implementation.NewAgentToolCallRepository(u.getDB())
}
