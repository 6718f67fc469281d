package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type args map[string]interface{}

func TestLookupCustomer(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		testutil.SeedClient(t, f.db, 1, fmt.Sprintf("Acme %d", i), fmt.Sprintf("ops%d@acme.io", i))
	}
	testutil.SeedClient(t, f.db, 1, "Globex", "john.doe@sub.example.co")
	testutil.SeedClient(t, f.db, 2, "Acme Elsewhere", "a@acme.io")

	t.Run("caps matches at five", func(t *testing.T) {
		res := f.mustInvoke(t, "lookupCustomer", args{"query": "ACME"}).(*LookupCustomerResult)
		assert.True(t, res.Found)
		assert.Len(t, res.Customers, 5)
		for _, c := range res.Customers {
			assert.NotEqual(t, "Acme Elsewhere", c.Name)
		}
	})

	t.Run("matches email and speaks it", func(t *testing.T) {
		res := f.mustInvoke(t, "lookupCustomer", args{"query": "sub.example"}).(*LookupCustomerResult)
		require.Len(t, res.Customers, 1)
		assert.Equal(t, "Globex", res.Customers[0].Name)
		assert.Contains(t, res.Message, "john.doe at sub dot example dot co")
		assert.NotContains(t, res.Message, "@")
	})

	t.Run("no match is not an error", func(t *testing.T) {
		res := f.mustInvoke(t, "lookupCustomer", args{"query": "initech"}).(*LookupCustomerResult)
		assert.False(t, res.Found)
		assert.Empty(t, res.Customers)
		assert.NotEmpty(t, res.Message)
	})

	t.Run("lookup leaves the session alone", func(t *testing.T) {
		assert.Nil(t, f.session.CurrentInvoice)
	})
}

func TestSelectCustomerCrossWorkspaceIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	_, err := f.invoke(t, "selectCustomer", args{"customerId": 8})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Nil(t, f.session.CurrentInvoice)

	_, err = f.invoke(t, "selectCustomer", args{"customerId": 999})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSelectCustomerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	first := f.mustInvoke(t, "selectCustomer", args{"customerId": 7}).(*SelectCustomerResult)
	second := f.mustInvoke(t, "selectCustomer", args{"customerId": 7}).(*SelectCustomerResult)

	assert.Equal(t, first, second)
	assert.Equal(t, "billing@acme.io", first.CustomerEmail)
	assert.Contains(t, first.Message, "billing at acme dot io")
	require.NotNil(t, f.session.CurrentInvoice)
	assert.Equal(t, uint(7), *f.session.CurrentInvoice.CustomerID)
}

func TestListAndSelectBusiness(t *testing.T) {
	f := newFixture(t)

	empty := f.mustInvoke(t, "listBusinesses", nil).(*ListBusinessesResult)
	assert.False(t, empty.Found)

	testutil.SeedBusiness(t, f.db, &model.Business{WorkspaceId: 1, Name: "Side Gig", Sequence: 1})
	main := testutil.SeedBusiness(t, f.db, &model.Business{WorkspaceId: 1, Name: "Main Co", Sequence: 2, IsDefault: true})
	other := testutil.SeedBusiness(t, f.db, &model.Business{WorkspaceId: 2, Name: "Not Mine", Sequence: 1})

	list := f.mustInvoke(t, "listBusinesses", args{}).(*ListBusinessesResult)
	require.Len(t, list.Businesses, 2)
	assert.Equal(t, "Main Co", list.Businesses[0].Name)
	assert.True(t, list.Businesses[0].IsDefault)

	_, err := f.invoke(t, "selectBusiness", args{"businessId": other.Id})
	assert.True(t, IsKind(err, KindNotFound))

	sel := f.mustInvoke(t, "selectBusiness", args{"businessId": main.Id}).(*SelectBusinessResult)
	assert.True(t, sel.Success)
	assert.Equal(t, main.Id, *f.session.CurrentInvoice.BusinessID)
}

func TestDuplicateItemIsSuppressed(t *testing.T) {
	f := newFixture(t)

	first := f.mustInvoke(t, "addInvoiceItem", args{"description": "Consulting", "quantity": 2, "unitPrice": 100, "quantityUnit": "HOURS"}).(*AddInvoiceItemResult)
	second := f.mustInvoke(t, "addInvoiceItem", args{"description": "Consulting", "quantity": 2, "unitPrice": 100, "quantityUnit": "HOURS"}).(*AddInvoiceItemResult)

	assert.Len(t, f.session.CurrentInvoice.Items, 1)
	assert.Equal(t, 1, first.ItemNumber)
	assert.Equal(t, 200.0, first.RunningTotal)
	assert.Equal(t, first.RunningTotal, second.RunningTotal)
	assert.Contains(t, second.Message, "already")

	// Same item in a different unit is a different line.
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Consulting", "quantity": 2, "unitPrice": 100, "quantityUnit": "days"})
	assert.Len(t, f.session.CurrentInvoice.Items, 2)
	assert.Equal(t, entity.QuantityUnitDays, f.session.CurrentInvoice.Items[1].QuantityUnit)
}

func TestSubtotalTracksItems(t *testing.T) {
	f := newFixture(t)
	calls := []args{
		{"description": "A", "quantity": 1, "unitPrice": 0.1},
		{"description": "B", "quantity": 3, "unitPrice": 0.2},
		{"description": "A", "quantity": 1, "unitPrice": 0.1},
		{"description": "C", "quantity": 1.5, "unitPrice": 80, "quantityUnit": "HOURS"},
		{"description": "D", "quantity": 12, "unitPrice": 19.99},
	}

	for _, c := range calls {
		res := f.mustInvoke(t, "addInvoiceItem", c).(*AddInvoiceItemResult)
		draft := f.session.CurrentInvoice

		var sum float64
		for _, it := range draft.Items {
			sum += it.Total
		}
		assert.Equal(t, sum, draft.Subtotal)
		assert.InDelta(t, sum, res.RunningTotal, 0.005)
	}
	assert.Len(t, f.session.CurrentInvoice.Items, 4)
	assert.Equal(t, "A", f.session.CurrentInvoice.Items[0].Name)
	assert.Equal(t, entity.QuantityUnitUnits, f.session.CurrentInvoice.Items[0].QuantityUnit)
}

func TestItemTaxFlagsDependOnSelectionOrder(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "BY_TOTAL", 10)

	// Added before the business is known: stays untaxed.
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Early", "quantity": 1, "unitPrice": 100})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Late", "quantity": 1, "unitPrice": 100})

	items := f.session.CurrentInvoice.Items
	require.Len(t, items, 2)
	assert.False(t, items[0].VatEnabled)
	assert.Zero(t, items[0].Tax)
	assert.True(t, items[1].VatEnabled)
	assert.Equal(t, 10.0, items[1].Tax)

	// The flags are bookkeeping only: item totals exclude tax.
	assert.Equal(t, 200.0, f.session.CurrentInvoice.Subtotal)
}

func TestCreateInvoicePreconditions(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	_, err := f.invoke(t, "createInvoice", args{"dueDate": "2099-01-01"})
	assert.True(t, IsKind(err, KindPreconditionViolated))

	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 1, "unitPrice": 10})
	_, err = f.invoke(t, "createInvoice", args{"dueDate": "2099-01-01"})
	require.True(t, IsKind(err, KindPreconditionViolated))
	assert.Contains(t, AsToolError(err).Message, "business")

	f.session.CurrentInvoice.Items = nil
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	_, err = f.invoke(t, "createInvoice", args{"dueDate": "2099-01-01"})
	require.True(t, IsKind(err, KindPreconditionViolated))
	assert.Contains(t, AsToolError(err).Message, "line items")

	assert.Zero(t, f.invoiceCount(t))
}

func TestCreateInvoiceRejectsPastDueDate(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 1, "unitPrice": 10})

	_, err := f.invoke(t, "createInvoice", args{"dueDate": "2020-01-01"})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Equal(t, msgPastDueDate, AsToolError(err).Message)

	_, err = f.invoke(t, "createInvoice", args{"dueDate": "someday"})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Equal(t, msgBadDueDate, AsToolError(err).Message)

	assert.NotNil(t, f.session.CurrentInvoice, "a rejected commit keeps the draft")
	assert.Zero(t, f.invoiceCount(t))

	res := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-01-01"}).(*CreateInvoiceResult)
	assert.True(t, res.Success)
}

func TestScenarioEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 1, "unitPrice": 500, "quantityUnit": "UNITS"})
	first := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)

	assert.True(t, first.Success)
	assert.Regexp(t, regexp.MustCompile(`^INV-\d{5}$`), first.InvoiceNumber)
	assert.Equal(t, 500.0, first.Total)
	assert.Nil(t, f.session.CurrentInvoice)
	require.NotNil(t, f.session.LastCreatedInvoice)
	assert.Equal(t, first.InvoiceID, f.session.LastCreatedInvoice.ID)

	var stored model.Invoice
	require.NoError(t, f.db.Preload("Items").First(&stored, first.InvoiceID).Error)
	assert.Equal(t, 500.0, stored.Subtotal)
	assert.Equal(t, 500.0, stored.Balance)
	assert.Equal(t, "DRAFT", stored.Status)
	assert.Equal(t, "billing@acme.io", stored.ClientEmail)
	assert.Equal(t, "555-0100", stored.ClientPhone)
	assert.Equal(t, "Thank you", stored.Notes)
	assert.Equal(t, "Net 30", stored.Terms)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Design work", stored.Items[0].Description)

	second := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)
	assert.Equal(t, first.InvoiceID, second.InvoiceID)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.True(t, second.Duplicate)

	assert.Equal(t, int64(1), f.invoiceCount(t))
	assert.Len(t, f.observer.events, 1, "replays are not announced")
	assert.Equal(t, first.InvoiceNumber, f.observer.events[0].InvoiceNumber)
}

func TestCreateInvoiceDifferentArgumentsAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 1, "unitPrice": 500})
	f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"})

	_, err := f.invoke(t, "createInvoice", args{"dueDate": "2099-07-01"})
	require.True(t, IsKind(err, KindPreconditionViolated))
	assert.Equal(t, int64(1), f.invoiceCount(t))
}

func TestDueDateSpellingsShareOneInvoice(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 1, "unitPrice": 500})
	first := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)

	again := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-6-1"}).(*CreateInvoiceResult)
	assert.True(t, again.Duplicate)
	assert.Equal(t, first.InvoiceNumber, again.InvoiceNumber)

	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 1, "unitPrice": 500})
	rebuilt := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-6-01"}).(*CreateInvoiceResult)
	assert.Equal(t, first.InvoiceID, rebuilt.InvoiceID)

	assert.Equal(t, int64(1), f.invoiceCount(t))
}

func TestOversizedItemIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoke(t, "addInvoiceItem", args{"description": "Huge", "quantity": 1e200, "unitPrice": 1e200})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Contains(t, AsToolError(err).Message, "quantity")

	_, err = f.invoke(t, "addInvoiceItem", args{"description": "Huge", "quantity": 1, "unitPrice": 1e10})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Equal(t, "unitPrice must be at most 1000000000.", AsToolError(err).Message)
	assert.Nil(t, f.session.CurrentInvoice)

	// Called directly the toolkit still refuses a non-finite line.
	_, err = f.kit.AddInvoiceItem(context.Background(), f.session, &AddInvoiceItemParams{Description: "Huge", Quantity: 1e200, UnitPrice: 1e200, QuantityUnit: "UNITS"})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Nil(t, f.session.CurrentInvoice)

	res := f.mustInvoke(t, "addInvoiceItem", args{"description": "Normal", "quantity": 1, "unitPrice": 5}).(*AddInvoiceItemResult)
	_, err = json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.RunningTotal)
}

func TestIdenticalSecondInvoiceInSameSessionIsCollapsed(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	build := func() *CreateInvoiceResult {
		f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
		f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
		f.mustInvoke(t, "addInvoiceItem", args{"description": "Retainer", "quantity": 1, "unitPrice": 250})
		return f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01", "notes": "October"}).(*CreateInvoiceResult)
	}

	first := build()
	second := build()
	assert.Equal(t, first.InvoiceID, second.InvoiceID)
	assert.Equal(t, int64(1), f.invoiceCount(t))
	assert.NotNil(t, f.session.CurrentInvoice, "a replay does not clear the rebuilt draft")
}

func TestReplayFallsThroughWhenInvoiceWasDeleted(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 1, "unitPrice": 500})
	first := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)

	require.NoError(t, f.db.Delete(&model.Invoice{}, first.InvoiceID).Error)

	second := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)
	assert.NotEqual(t, first.InvoiceID, second.InvoiceID)
	assert.Equal(t, "INV-00002", second.InvoiceNumber, "numbers of deleted invoices are not reused")
	assert.False(t, second.Duplicate)
	assert.Len(t, f.observer.events, 2)
}

func TestCreateInvoiceTaxesTotal(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "BY_TOTAL", 10)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Design work", "quantity": 2, "unitPrice": 250})

	res := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01", "notes": "Custom note"}).(*CreateInvoiceResult)
	assert.Equal(t, 550.0, res.Total)

	var stored model.Invoice
	require.NoError(t, f.db.First(&stored, res.InvoiceID).Error)
	assert.Equal(t, 500.0, stored.Subtotal)
	assert.Equal(t, 50.0, stored.TotalTax)
	assert.Equal(t, 550.0, stored.Balance)
	assert.Equal(t, "BY_TOTAL", stored.TaxMode)
	assert.Equal(t, "Custom note", stored.Notes)
}

func TestCreateInvoiceNumbersAreSequentialPerWorkspace(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	for i, desc := range []string{"One", "Two", "Three"} {
		f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
		f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
		f.mustInvoke(t, "addInvoiceItem", args{"description": desc, "quantity": 1, "unitPrice": 10})
		res := f.mustInvoke(t, "createInvoice", args{"dueDate": "2099-06-01"}).(*CreateInvoiceResult)
		assert.Equal(t, fmt.Sprintf("INV-%05d", i+1), res.InvoiceNumber)
	}
}

func TestCreateInvoiceBusinessGoneIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)
	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "selectBusiness", args{"businessId": 3})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 1, "unitPrice": 10})

	require.NoError(t, f.db.Delete(&model.Business{}, 3).Error)

	_, err := f.invoke(t, "createInvoice", args{"dueDate": "2099-06-01"})
	require.True(t, IsKind(err, KindNotFound))
	assert.Contains(t, AsToolError(err).Message, "business")
}

func TestCountTools(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	clients := f.mustInvoke(t, "countClients", nil).(*CountResult)
	assert.Equal(t, int64(1), clients.Count)
	assert.Equal(t, "You have 1 client.", clients.Message)

	invoices := f.mustInvoke(t, "countInvoices", nil).(*CountResult)
	assert.Equal(t, int64(0), invoices.Count)
	assert.Equal(t, "You have 0 invoices.", invoices.Message)
}

func TestGetCurrentInvoice(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	empty := f.mustInvoke(t, "getCurrentInvoice", nil).(*GetCurrentInvoiceResult)
	assert.False(t, empty.InProgress)

	f.mustInvoke(t, "selectCustomer", args{"customerId": 7})
	f.mustInvoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 2, "unitPrice": 10})

	res := f.mustInvoke(t, "getCurrentInvoice", nil).(*GetCurrentInvoiceResult)
	assert.True(t, res.InProgress)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 20.0, res.Subtotal)
	assert.Contains(t, res.Message, "a business")
}

func TestRegistryArgumentValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 0, "unitPrice": 10})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Contains(t, AsToolError(err).Message, "quantity")

	_, err = f.invoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 1, "unitPrice": -5})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Contains(t, AsToolError(err).Message, "unitPrice")

	_, err = f.invoke(t, "addInvoiceItem", args{"description": "Work", "quantity": 1, "unitPrice": 5, "quantityUnit": "WEEKS"})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Contains(t, AsToolError(err).Message, "quantityUnit")

	_, err = f.invoke(t, "selectCustomer", args{"customerId": "seven"})
	require.True(t, IsKind(err, KindValidationFailed))
	assert.Contains(t, AsToolError(err).Message, "customerId")

	_, err = f.invoke(t, "selectCustomer", args{})
	require.True(t, IsKind(err, KindValidationFailed))

	_, err = f.registry.Invoke(context.Background(), f.session, "deleteEverything", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	assert.Nil(t, f.session.CurrentInvoice, "rejected calls do not create a draft")
}

func TestRegistryHidesUpstreamErrors(t *testing.T) {
	f := newFixture(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.invoke(t, "countClients", nil)
	require.True(t, IsKind(err, KindUpstreamUnavailable))
	assert.Equal(t, upstreamMessage, AsToolError(err).Message)
	assert.NotNil(t, AsToolError(err).Err)
}

func TestRegistryAuditsEveryCall(t *testing.T) {
	f := newFixture(t)
	f.seedScenario(t, "NONE", 0)

	f.mustInvoke(t, "countClients", nil)
	_, _ = f.invoke(t, "selectCustomer", args{"customerId": 8})

	require.Len(t, f.auditor.records, 2)
	assert.Equal(t, "countClients", f.auditor.records[0].Tool)
	assert.Nil(t, f.auditor.records[0].Err)
	assert.Equal(t, "selectCustomer", f.auditor.records[1].Tool)
	require.NotNil(t, f.auditor.records[1].Err)
	assert.Equal(t, KindNotFound, f.auditor.records[1].Err.Kind)
}

func TestDefinitionsCoverEveryTool(t *testing.T) {
	f := newFixture(t)
	names := map[string]bool{}
	for _, d := range f.registry.Definitions() {
		names[d.Name] = true
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Parameters["type"])
	}
	for _, want := range []string{"lookupCustomer", "selectCustomer", "listBusinesses", "selectBusiness", "addInvoiceItem", "createInvoice", "countClients", "countInvoices", "getCurrentInvoice"} {
		assert.True(t, names[want], want)
	}
}
