package tools

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"invoicing-agent-be/pkg/store"

	"github.com/zeebo/blake3"
)

// Exactly 32 bytes, the BLAKE3 key size.
var idempotencyDomainKey = []byte("invoicing-agent/idempotency/v1.0")

type keyItem struct {
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	QuantityUnit string  `json:"quantityUnit"`
}

type keyPayload struct {
	CustomerID uint      `json:"customerId"`
	BusinessID uint      `json:"businessId"`
	Items      []keyItem `json:"items"`
	DueDate    string    `json:"dueDate"`
	Notes      string    `json:"notes"`
}

// IdempotencyKey hashes what the caller asked for: parties, items in order,
// due date and notes. dueDate should already be canonical. Computed totals are left out so rounding noise cannot
// split one logical invoice into two keys.
func IdempotencyKey(draft *store.DraftInvoice, dueDate, notes string) (string, error) {
	payload := keyPayload{
		Items:   make([]keyItem, len(draft.Items)),
		DueDate: dueDate,
		Notes:   notes,
	}
	if draft.CustomerID != nil {
		payload.CustomerID = *draft.CustomerID
	}
	if draft.BusinessID != nil {
		payload.BusinessID = *draft.BusinessID
	}
	for i, it := range draft.Items {
		payload.Items[i] = keyItem{
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			QuantityUnit: string(it.QuantityUnit),
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode idempotency payload: %w", err)
	}

	hasher, err := blake3.NewKeyed(idempotencyDomainKey)
	if err != nil {
		return "", fmt.Errorf("init blake3: %w", err)
	}
	if _, err := hasher.Write(encoded); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
