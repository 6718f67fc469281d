package entity

import (
	"fmt"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	InvoiceStatusSent  InvoiceStatus = "SENT"
	InvoiceStatusPaid  InvoiceStatus = "PAID"
)

type QuantityUnit string

const (
	QuantityUnitDays  QuantityUnit = "DAYS"
	QuantityUnitHours QuantityUnit = "HOURS"
	QuantityUnitUnits QuantityUnit = "UNITS"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
	DiscountTypeNone       DiscountType = "NONE"
)

type Invoice struct {
	Id            uint
	WorkspaceId   uint
	Sequence      int
	InvoiceNumber string
	ClientId      uint
	BusinessId    uint
	Status        InvoiceStatus
	IssueDate     time.Time
	DueDate       time.Time
	Notes         string
	Terms         string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	TaxMode       TaxMode
	TaxName       string
	TaxPercentage float64
	Subtotal      float64
	TotalTax      float64
	Discount      float64
	Total         float64
	Balance       float64
	Items         []InvoiceItem
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

type InvoiceItem struct {
	Id           uint
	InvoiceId    uint
	Position     int
	Name         string
	Description  string
	Quantity     float64
	QuantityUnit QuantityUnit
	UnitPrice    float64
	Discount     float64
	DiscountType DiscountType
	Tax          float64
	VatEnabled   bool
	Total        float64
}

// FormatInvoiceNumber renders the human invoice number, e.g. INV-00042.
func FormatInvoiceNumber(sequence int) string {
	return fmt.Sprintf("INV-%05d", sequence)
}
