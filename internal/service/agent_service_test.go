package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/memory"
	"invoicing-agent-be/internal/repository/unitofwork"
	"invoicing-agent-be/internal/testutil"
	"invoicing-agent-be/pkg/agent/driver"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubResponder struct {
	reply *driver.Reply
	err   error
	seen  []string
}

func (r *stubResponder) Respond(_ context.Context, s *store.Session, utterance string) (*driver.Reply, error) {
	r.seen = append(r.seen, s.ID+":"+utterance)
	return r.reply, r.err
}

func newAgentServiceForTest(t *testing.T, responder Responder) (IAgentService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	factory := unitofwork.NewRepositoryFactory(db)
	log := logger.NewNopLogger()

	kit := tools.NewToolkit(factory, log)
	registry := tools.NewRegistry(kit, log)
	svc := NewAgentService(memory.NewSessionRepository(time.Hour), registry, responder, factory, log)
	return svc, db
}

func TestAgentServiceSessionLifecycle(t *testing.T) {
	svc, _ := newAgentServiceForTest(t, nil)
	ctx := context.Background()

	_, err := svc.StartSession(ctx, 0)
	assert.Error(t, err)

	started, err := svc.StartSession(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, started.Id)
	assert.Equal(t, uint(1), started.WorkspaceID)
	assert.Nil(t, started.CurrentInvoice)

	got, err := svc.GetSession(ctx, started.Id)
	require.NoError(t, err)
	assert.Equal(t, started.Id, got.Id)

	require.NoError(t, svc.EndSession(ctx, started.Id))

	_, err = svc.GetSession(ctx, started.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.EndSession(ctx, started.Id), ErrSessionNotFound)
}

func TestAgentServiceListTools(t *testing.T) {
	svc, _ := newAgentServiceForTest(t, nil)

	names := make([]string, 0)
	for _, tool := range svc.ListTools(context.Background()) {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.Parameters["type"])
	}
	assert.Contains(t, names, "createInvoice")
	assert.Contains(t, names, "getCurrentInvoice")
	assert.Len(t, names, 9)
}

func TestAgentServiceInvokeTool(t *testing.T) {
	svc, db := newAgentServiceForTest(t, nil)
	ctx := context.Background()
	testutil.SeedClient(t, db, 1, "Acme Corp", "billing@acme.io")

	session, err := svc.StartSession(ctx, 1)
	require.NoError(t, err)

	t.Run("unknown tool", func(t *testing.T) {
		_, err := svc.InvokeTool(ctx, session.Id, "deleteEverything", nil)
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.InvokeTool(ctx, "nope", "countClients", nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("rejected call is a result", func(t *testing.T) {
		res, err := svc.InvokeTool(ctx, session.Id, "selectCustomer", json.RawMessage(`{"customerId":999}`))
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, string(tools.KindNotFound), res.Error.Kind)
	})

	t.Run("successful call", func(t *testing.T) {
		res, err := svc.InvokeTool(ctx, session.Id, "countClients", nil)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Nil(t, res.Error)
		assert.Equal(t, int64(1), res.Result.(*tools.CountResult).Count)
	})

	var calls []model.AgentToolCall
	require.NoError(t, db.Order("created_at asc").Find(&calls).Error)
	require.Len(t, calls, 2)
	assert.Equal(t, "selectCustomer", calls[0].Tool)
	assert.Equal(t, string(tools.KindNotFound), calls[0].ErrorKind)
	assert.Equal(t, session.Id, calls[0].SessionId)
	assert.Equal(t, "countClients", calls[1].Tool)
	assert.Empty(t, calls[1].ErrorKind)
}

func TestAgentServiceSerializesCallsPerSession(t *testing.T) {
	svc, _ := newAgentServiceForTest(t, nil)
	ctx := context.Background()

	session, err := svc.StartSession(ctx, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			args := fmt.Sprintf(`{"description":"Item %d","quantity":1,"unitPrice":%d}`, i, i*10)
			res, err := svc.InvokeTool(ctx, session.Id, "addInvoiceItem", json.RawMessage(args))
			assert.NoError(t, err)
			assert.True(t, res.Success)
		}(i)
	}
	wg.Wait()

	got, err := svc.GetSession(ctx, session.Id)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentInvoice)
	assert.Len(t, got.CurrentInvoice.Items, 10)
	assert.InDelta(t, 550, got.CurrentInvoice.Subtotal, 1e-9)
	assert.InDelta(t, 550, got.CurrentInvoice.Total, 1e-9)
}

func TestAgentServiceConverse(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without a model", func(t *testing.T) {
		svc, _ := newAgentServiceForTest(t, nil)
		session, err := svc.StartSession(ctx, 1)
		require.NoError(t, err)

		_, err = svc.Converse(ctx, session.Id, "hello")
		assert.ErrorIs(t, err, ErrConverseDisabled)
	})

	t.Run("maps the reply", func(t *testing.T) {
		responder := &stubResponder{reply: &driver.Reply{
			Text: "Found Acme Corp.",
			ToolCalls: []driver.ToolTrace{
				{CallID: "c1", Name: "lookupCustomer", Arguments: json.RawMessage(`{"query":"acme"}`)},
				{CallID: "c2", Name: "selectCustomer", Error: &driver.ToolErrorView{Kind: tools.KindNotFound, Message: "missing"}},
			},
		}}
		svc, _ := newAgentServiceForTest(t, responder)
		session, err := svc.StartSession(ctx, 1)
		require.NoError(t, err)

		reply, err := svc.Converse(ctx, session.Id, "bill acme")
		require.NoError(t, err)
		assert.Equal(t, "Found Acme Corp.", reply.Text)
		require.Len(t, reply.ToolCalls, 2)
		assert.Nil(t, reply.ToolCalls[0].Error)
		assert.Equal(t, "NOT_FOUND", reply.ToolCalls[1].Error.Kind)
		assert.Equal(t, []string{session.Id + ":bill acme"}, responder.seen)
	})

	t.Run("model failure", func(t *testing.T) {
		svc, _ := newAgentServiceForTest(t, &stubResponder{err: errors.New("connection refused")})
		session, err := svc.StartSession(ctx, 1)
		require.NoError(t, err)

		_, err = svc.Converse(ctx, session.Id, "hello")
		assert.ErrorIs(t, err, ErrLanguageModelError)
	})
}

func TestAgentServiceKeepAliveOutlivesIdleExpiry(t *testing.T) {
	db := testutil.NewTestDB(t)
	factory := unitofwork.NewRepositoryFactory(db)
	log := logger.NewNopLogger()
	registry := tools.NewRegistry(tools.NewToolkit(factory, log), log)
	svc := NewAgentService(memory.NewSessionRepository(200*time.Millisecond), registry, nil, factory, log)
	ctx := context.Background()

	started, err := svc.StartSession(ctx, 1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		time.Sleep(80 * time.Millisecond)
		require.NoError(t, svc.KeepAlive(ctx, started.Id))
	}
	_, err = svc.GetSession(ctx, started.Id)
	require.NoError(t, err, "kept-alive session survives past its idle expiry")

	time.Sleep(400 * time.Millisecond)
	assert.ErrorIs(t, svc.KeepAlive(ctx, started.Id), ErrSessionNotFound)
	assert.ErrorIs(t, svc.KeepAlive(ctx, "nope"), ErrSessionNotFound)
}
