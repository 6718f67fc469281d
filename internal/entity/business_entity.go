package entity

import "time"

// TaxMode controls where a business applies its default tax.
type TaxMode string

const (
	// TaxModeByTotal applies the default percentage once, on the invoice subtotal.
	TaxModeByTotal   TaxMode = "BY_TOTAL"
	TaxModeByProduct TaxMode = "BY_PRODUCT"
	TaxModeNone      TaxMode = "NONE"
)

type Business struct {
	Id                   uint
	WorkspaceId          uint
	Sequence             int
	Name                 string
	Email                string
	IsDefault            bool
	DefaultTaxMode       TaxMode
	DefaultTaxName       string
	DefaultTaxPercentage float64
	DefaultNotes         string
	DefaultTerms         string
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

func (b *Business) TaxesByTotal() bool {
	return b.DefaultTaxMode == TaxModeByTotal
}
