package model

import (
	"time"

	"gorm.io/gorm"
)

type Invoice struct {
	Id            uint           `gorm:"primaryKey"`
	WorkspaceId   uint           `gorm:"not null;index;uniqueIndex:ux_invoices_workspace_sequence,priority:1"`
	Sequence      int            `gorm:"not null;uniqueIndex:ux_invoices_workspace_sequence,priority:2"`
	InvoiceNumber string         `gorm:"type:varchar(50);not null"`
	ClientId      uint           `gorm:"not null;index"`
	BusinessId    uint           `gorm:"not null;index"`
	Status        string         `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	IssueDate     time.Time      `gorm:"not null"`
	DueDate       time.Time      `gorm:"not null"`
	Notes         string         `gorm:"type:text"`
	Terms         string         `gorm:"type:text"`
	ClientEmail   string         `gorm:"type:varchar(255)"`
	ClientPhone   string         `gorm:"type:varchar(50)"`
	ClientAddress string         `gorm:"type:varchar(500)"`
	TaxMode       string         `gorm:"type:varchar(20);not null;default:'NONE'"`
	TaxName       string         `gorm:"type:varchar(100)"`
	TaxPercentage float64        `gorm:"default:0"`
	Subtotal      float64        `gorm:"not null;default:0"`
	TotalTax      float64        `gorm:"not null;default:0"`
	Discount      float64        `gorm:"not null;default:0"`
	Total         float64        `gorm:"not null;default:0"`
	Balance       float64        `gorm:"not null;default:0"`
	Items         []InvoiceItem  `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Invoice) TableName() string {
	return "invoices"
}

type InvoiceItem struct {
	Id           uint      `gorm:"primaryKey"`
	InvoiceId    uint      `gorm:"not null;index"`
	Position     int       `gorm:"not null"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text"`
	Quantity     float64   `gorm:"not null"`
	QuantityUnit string    `gorm:"type:varchar(10);not null;default:'UNITS'"`
	UnitPrice    float64   `gorm:"not null"`
	Discount     float64   `gorm:"not null;default:0"`
	DiscountType string    `gorm:"type:varchar(20);not null;default:'NONE'"`
	Tax          float64   `gorm:"not null;default:0"`
	VatEnabled   bool      `gorm:"default:false"`
	Total        float64   `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}
