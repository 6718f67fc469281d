package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoiceCreated(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	evt := NewInvoiceCreated(12, "INV-00003", 1, 1210.5, "sess-1", at)

	assert.Equal(t, InvoiceCreatedType, evt.EventType())
	assert.Equal(t, at, evt.Timestamp())
	assert.Equal(t, "INV-00003", evt.Payload()["invoice_number"])

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded BaseEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, InvoiceCreatedType, decoded.Type)
	assert.Equal(t, float64(1), decoded.Data["workspace_id"])
	assert.True(t, at.Equal(decoded.OccurredAt))
}
