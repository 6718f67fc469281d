package model

import "time"

// InvoiceSequence holds the last allocated invoice sequence of a workspace.
// The row is incremented inside the invoice commit transaction.
type InvoiceSequence struct {
	WorkspaceId uint      `gorm:"primaryKey;autoIncrement:false"`
	LastValue   int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}
