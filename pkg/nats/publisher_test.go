package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.INVOICE_CREATED", Subject("INVOICE_CREATED"))
}
