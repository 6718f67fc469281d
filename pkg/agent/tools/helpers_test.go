package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/unitofwork"
	"invoicing-agent-be/internal/testutil"
	"invoicing-agent-be/pkg/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 2026-10-18 10:30 local time.
var fixedNow = time.Date(2026, time.October, 18, 10, 30, 0, 0, time.Local)

type recordingObserver struct {
	mu     sync.Mutex
	events []InvoiceCreated
}

func (o *recordingObserver) InvoiceCreated(_ context.Context, e InvoiceCreated) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

type recordingAuditor struct {
	records []CallRecord
}

func (a *recordingAuditor) ToolCalled(_ context.Context, r CallRecord) {
	a.records = append(a.records, r)
}

type fixture struct {
	db       *gorm.DB
	kit      *Toolkit
	registry *Registry
	session  *store.Session
	observer *recordingObserver
	auditor  *recordingAuditor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	obs := &recordingObserver{}
	kit := NewToolkit(unitofwork.NewRepositoryFactory(db), logger.NewNopLogger(),
		WithClock(func() time.Time { return fixedNow }),
		WithCommitObserver(obs),
	)
	reg := NewRegistry(kit, logger.NewNopLogger())
	aud := &recordingAuditor{}
	reg.SetAuditor(aud)

	return &fixture{
		db:       db,
		kit:      kit,
		registry: reg,
		session:  store.NewSession("test-session", 1, fixedNow),
		observer: obs,
		auditor:  aud,
	}
}

// seedScenario creates customer 7 and business 3 in workspace 1, plus a
// customer in workspace 2.
func (f *fixture) seedScenario(t *testing.T, taxMode string, pct float64) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Client{Id: 7, WorkspaceId: 1, Name: "Acme Corp", Email: "billing@acme.io", Phone: "555-0100", Address: "1 Main St"}).Error)
	require.NoError(t, f.db.Create(&model.Client{Id: 8, WorkspaceId: 2, Name: "Other Tenant", Email: "x@other.io"}).Error)
	require.NoError(t, f.db.Create(&model.Business{
		Id:                   3,
		WorkspaceId:          1,
		Name:                 "Studio",
		IsDefault:            true,
		DefaultTaxMode:       taxMode,
		DefaultTaxName:       "VAT",
		DefaultTaxPercentage: pct,
		DefaultNotes:         "Thank you",
		DefaultTerms:         "Net 30",
	}).Error)
}

func (f *fixture) invoke(t *testing.T, name string, args interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return f.registry.Invoke(context.Background(), f.session, name, raw)
}

func (f *fixture) mustInvoke(t *testing.T, name string, args interface{}) interface{} {
	t.Helper()
	res, err := f.invoke(t, name, args)
	require.NoError(t, err)
	return res
}

func (f *fixture) invoiceCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Invoice{}).Count(&n).Error)
	return n
}
