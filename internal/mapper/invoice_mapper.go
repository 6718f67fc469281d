package mapper

import (
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/model"
)

type InvoiceMapper struct{}

func NewInvoiceMapper() *InvoiceMapper {
	return &InvoiceMapper{}
}

func (m *InvoiceMapper) ToEntity(inv *model.Invoice) *entity.Invoice {
	if inv == nil {
		return nil
	}

	var updatedAt *time.Time
	if !inv.UpdatedAt.IsZero() {
		t := inv.UpdatedAt
		updatedAt = &t
	}

	items := make([]entity.InvoiceItem, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = entity.InvoiceItem{
			Id:           it.Id,
			InvoiceId:    it.InvoiceId,
			Position:     it.Position,
			Name:         it.Name,
			Description:  it.Description,
			Quantity:     it.Quantity,
			QuantityUnit: entity.QuantityUnit(it.QuantityUnit),
			UnitPrice:    it.UnitPrice,
			Discount:     it.Discount,
			DiscountType: entity.DiscountType(it.DiscountType),
			Tax:          it.Tax,
			VatEnabled:   it.VatEnabled,
			Total:        it.Total,
		}
	}

	return &entity.Invoice{
		Id:            inv.Id,
		WorkspaceId:   inv.WorkspaceId,
		Sequence:      inv.Sequence,
		InvoiceNumber: inv.InvoiceNumber,
		ClientId:      inv.ClientId,
		BusinessId:    inv.BusinessId,
		Status:        entity.InvoiceStatus(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		ClientEmail:   inv.ClientEmail,
		ClientPhone:   inv.ClientPhone,
		ClientAddress: inv.ClientAddress,
		TaxMode:       entity.TaxMode(inv.TaxMode),
		TaxName:       inv.TaxName,
		TaxPercentage: inv.TaxPercentage,
		Subtotal:      inv.Subtotal,
		TotalTax:      inv.TotalTax,
		Discount:      inv.Discount,
		Total:         inv.Total,
		Balance:       inv.Balance,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func (m *InvoiceMapper) ToModel(inv *entity.Invoice) *model.Invoice {
	if inv == nil {
		return nil
	}

	var updatedAt time.Time
	if inv.UpdatedAt != nil {
		updatedAt = *inv.UpdatedAt
	}

	items := make([]model.InvoiceItem, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = model.InvoiceItem{
			Id:           it.Id,
			InvoiceId:    it.InvoiceId,
			Position:     it.Position,
			Name:         it.Name,
			Description:  it.Description,
			Quantity:     it.Quantity,
			QuantityUnit: string(it.QuantityUnit),
			UnitPrice:    it.UnitPrice,
			Discount:     it.Discount,
			DiscountType: string(it.DiscountType),
			Tax:          it.Tax,
			VatEnabled:   it.VatEnabled,
			Total:        it.Total,
		}
	}

	return &model.Invoice{
		Id:            inv.Id,
		WorkspaceId:   inv.WorkspaceId,
		Sequence:      inv.Sequence,
		InvoiceNumber: inv.InvoiceNumber,
		ClientId:      inv.ClientId,
		BusinessId:    inv.BusinessId,
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		ClientEmail:   inv.ClientEmail,
		ClientPhone:   inv.ClientPhone,
		ClientAddress: inv.ClientAddress,
		TaxMode:       string(inv.TaxMode),
		TaxName:       inv.TaxName,
		TaxPercentage: inv.TaxPercentage,
		Subtotal:      inv.Subtotal,
		TotalTax:      inv.TotalTax,
		Discount:      inv.Discount,
		Total:         inv.Total,
		Balance:       inv.Balance,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}
