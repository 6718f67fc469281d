package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoicing-agent-be/internal/constant"
	"invoicing-agent-be/internal/dto"
	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/memory"
	"invoicing-agent-be/internal/repository/unitofwork"
	"invoicing-agent-be/pkg/agent/driver"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/store"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound    = errors.New("agent session not found")
	ErrToolNotFound       = errors.New("agent tool not found")
	ErrConverseDisabled   = errors.New("no language model configured")
	ErrLanguageModelError = errors.New("language model unavailable")
)

type IAgentService interface {
	StartSession(ctx context.Context, workspaceID uint) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	EndSession(ctx context.Context, sessionID string) error
	KeepAlive(ctx context.Context, sessionID string) error
	ListTools(ctx context.Context) []*dto.ToolDescriptorResponse
	InvokeTool(ctx context.Context, sessionID, name string, args json.RawMessage) (*dto.InvokeToolResponse, error)
	Converse(ctx context.Context, sessionID, text string) (*dto.ReplyResponse, error)
}

// Responder produces the spoken reply to one utterance.
type Responder interface {
	Respond(ctx context.Context, s *store.Session, utterance string) (*driver.Reply, error)
}

type agentService struct {
	sessions   *memory.SessionRepository
	registry   *tools.Registry
	responder  Responder
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

// NewAgentService wires the session store to the tool registry and installs
// itself as the registry's auditor. responder may be nil, in which case
// Converse reports ErrConverseDisabled.
func NewAgentService(
	sessions *memory.SessionRepository,
	registry *tools.Registry,
	responder Responder,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IAgentService {
	s := &agentService{
		sessions:   sessions,
		registry:   registry,
		responder:  responder,
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
	registry.SetAuditor(s)
	return s
}

func (s *agentService) StartSession(ctx context.Context, workspaceID uint) (*dto.SessionResponse, error) {
	if workspaceID == 0 {
		return nil, fmt.Errorf("workspace id is required")
	}

	session := store.NewSession(uuid.New().String(), workspaceID, s.now())
	s.sessions.Save(session)

	s.logger.Info(constant.AgentVoiceLogModule, "Session started", map[string]interface{}{
		"session_id":   session.ID,
		"workspace_id": workspaceID,
	})
	return toSessionResponse(session), nil
}

func (s *agentService) GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()
	return toSessionResponse(session), nil
}

func (s *agentService) EndSession(ctx context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(sessionID)

	s.logger.Info(constant.AgentVoiceLogModule, "Session ended", map[string]interface{}{
		"session_id":   sessionID,
		"workspace_id": session.WorkspaceID,
	})
	return nil
}

// KeepAlive restarts the idle expiry of a session whose connection is still
// open but quiet.
func (s *agentService) KeepAlive(ctx context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	s.sessions.Save(session)
	return nil
}

func (s *agentService) ListTools(ctx context.Context) []*dto.ToolDescriptorResponse {
	list := s.registry.List()
	out := make([]*dto.ToolDescriptorResponse, 0, len(list))
	for _, t := range list {
		out = append(out, &dto.ToolDescriptorResponse{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}

func (s *agentService) InvokeTool(ctx context.Context, sessionID, name string, args json.RawMessage) (*dto.InvokeToolResponse, error) {
	if !s.registry.Has(name) {
		return nil, ErrToolNotFound
	}

	session, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.release(session)

	result, err := s.registry.Invoke(ctx, session, name, args)
	return toInvokeToolResponse(name, result, err), nil
}

func (s *agentService) Converse(ctx context.Context, sessionID, text string) (*dto.ReplyResponse, error) {
	if s.responder == nil {
		return nil, ErrConverseDisabled
	}

	session, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.release(session)

	reply, err := s.responder.Respond(ctx, session, text)
	if err != nil {
		s.logger.Error(constant.AgentVoiceLogModule, "Conversation turn failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrLanguageModelError, err)
	}

	return toReplyResponse(reply), nil
}

// acquire looks the session up and takes its lock. Calls on one session are
// applied one at a time, in arrival order at the lock.
func (s *agentService) acquire(sessionID string) (*store.Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.Lock()
	return session, nil
}

func (s *agentService) release(session *store.Session) {
	session.Touch(s.now())
	// Re-saving refreshes the idle expiry, unless the session was ended meanwhile.
	if _, ok := s.sessions.Get(session.ID); ok {
		s.sessions.Save(session)
	}
	session.Unlock()
}

// ToolCalled stores an audit row for every tool call. Failures are logged and
// never reach the caller.
func (s *agentService) ToolCalled(ctx context.Context, record tools.CallRecord) {
	call := &entity.AgentToolCall{
		SessionId:   record.SessionID,
		WorkspaceId: record.WorkspaceID,
		Tool:        record.Tool,
		Arguments:   validJSONOrNil(record.Arguments),
		Duration:    record.Duration,
		CreatedAt:   s.now(),
	}
	if record.Result != nil {
		if raw, err := json.Marshal(record.Result); err == nil {
			call.Result = raw
		}
	}
	if record.Err != nil {
		call.ErrorKind = string(record.Err.Kind)
	}

	// The request context may already be cancelled once the reply is written.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(auditCtx)
	if err := uow.AgentToolCallRepository().Create(auditCtx, call); err != nil {
		s.logger.Warn(constant.AgentToolLogModule, "Failed to audit tool call", map[string]interface{}{
			"session_id": record.SessionID,
			"tool":       record.Tool,
			"error":      err.Error(),
		})
	}
}

func validJSONOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return raw
}

func toSessionResponse(s *store.Session) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:           s.ID,
		WorkspaceID:  s.WorkspaceID,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
	if s.CurrentInvoice != nil {
		draft := *s.CurrentInvoice
		draft.Items = append([]store.DraftLineItem(nil), s.CurrentInvoice.Items...)
		res.CurrentInvoice = &draft
	}
	if s.LastCreatedInvoice != nil {
		last := *s.LastCreatedInvoice
		res.LastCreatedInvoice = &last
	}
	return res
}

func toToolErrorResponse(err error) *dto.ToolErrorResponse {
	te := tools.AsToolError(err)
	if te == nil {
		return nil
	}
	return &dto.ToolErrorResponse{Kind: string(te.Kind), Message: te.Message}
}

func toInvokeToolResponse(name string, result interface{}, err error) *dto.InvokeToolResponse {
	if err != nil {
		return &dto.InvokeToolResponse{Tool: name, Success: false, Error: toToolErrorResponse(err)}
	}
	return &dto.InvokeToolResponse{Tool: name, Success: true, Result: result}
}

func toReplyResponse(r *driver.Reply) *dto.ReplyResponse {
	res := &dto.ReplyResponse{
		Text:      r.Text,
		ToolCalls: make([]dto.ToolCallTraceResponse, 0, len(r.ToolCalls)),
		Exhausted: r.Exhausted,
	}
	for _, tc := range r.ToolCalls {
		trace := dto.ToolCallTraceResponse{
			CallID:    tc.CallID,
			Name:      tc.Name,
			Arguments: tc.Arguments,
			Result:    tc.Result,
		}
		if tc.Error != nil {
			trace.Error = &dto.ToolErrorResponse{Kind: string(tc.Error.Kind), Message: tc.Error.Message}
		}
		res.ToolCalls = append(res.ToolCalls, trace)
	}
	return res
}
