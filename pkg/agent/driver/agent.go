// Package driver runs the LLM side of a voice session: it sends the
// conversation and tool schemas to the model, executes the tool calls the
// model asks for, and loops until the model answers in words.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/llm"
	"invoicing-agent-be/pkg/store"
)

const (
	logModule      = "AGENT_DRIVER"
	maxHistoryKept = 60
)

// ToolInvoker is the part of the tool registry the driver needs.
type ToolInvoker interface {
	Definitions() []llm.ToolDefinition
	Invoke(ctx context.Context, s *store.Session, name string, raw json.RawMessage) (interface{}, error)
}

type Agent struct {
	provider      llm.LLMProvider
	tools         ToolInvoker
	logger        logger.ILogger
	systemPrompt  string
	fallbackReply string
	maxRounds     int
	callOptions   []llm.Option
}

// ToolTrace records one tool call made while producing a reply.
type ToolTrace struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    interface{}     `json:"result,omitempty"`
	Error     *ToolErrorView  `json:"error,omitempty"`
}

type ToolErrorView struct {
	Kind    tools.Kind `json:"kind"`
	Message string     `json:"message"`
}

type Reply struct {
	Text      string      `json:"text"`
	ToolCalls []ToolTrace `json:"tool_calls"`
	// Exhausted is set when the round limit cut the model off.
	Exhausted bool `json:"exhausted,omitempty"`
}

// NewAgent builds the conversation driver. opts are passed to the provider on
// every model turn.
func NewAgent(provider llm.LLMProvider, invoker ToolInvoker, log logger.ILogger, systemPrompt, fallbackReply string, maxRounds int, opts ...llm.Option) *Agent {
	if maxRounds <= 0 {
		maxRounds = 8
	}
	return &Agent{
		provider:      provider,
		tools:         invoker,
		logger:        log,
		systemPrompt:  systemPrompt,
		fallbackReply: fallbackReply,
		maxRounds:     maxRounds,
		callOptions:   opts,
	}
}

// Respond handles one user utterance. The caller must hold the session lock;
// tool calls run one after another in the order the model listed them.
func (a *Agent) Respond(ctx context.Context, s *store.Session, utterance string) (*Reply, error) {
	if len(s.History) == 0 && a.systemPrompt != "" {
		s.History = append(s.History, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	}
	start := len(s.History)
	s.History = append(s.History, llm.Message{Role: llm.RoleUser, Content: utterance})

	defs := a.tools.Definitions()
	reply := &Reply{ToolCalls: []ToolTrace{}}

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.provider.ChatWithTools(ctx, s.History, defs, a.callOptions...)
		if err != nil {
			// Nothing ran yet: drop the utterance so a retry starts clean.
			// Later rounds keep the tool results, the session already changed.
			if round == 0 {
				s.History = s.History[:start]
			}
			return nil, fmt.Errorf("llm round %d: %w", round, err)
		}

		s.History = append(s.History, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			reply.Text = resp.Content
			a.trimHistory(s)
			return reply, nil
		}

		for _, call := range resp.ToolCalls {
			trace := a.runTool(ctx, s, call)
			reply.ToolCalls = append(reply.ToolCalls, trace)
			s.History = append(s.History, llm.Message{
				Role:       llm.RoleTool,
				Content:    toolMessage(trace),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	a.logger.Warn(logModule, "Tool round limit reached", map[string]interface{}{
		"session_id": s.ID,
		"max_rounds": a.maxRounds,
		"tool_calls": len(reply.ToolCalls),
	})
	reply.Text = a.fallbackReply
	reply.Exhausted = true
	s.History = append(s.History, llm.Message{Role: llm.RoleAssistant, Content: a.fallbackReply})
	a.trimHistory(s)
	return reply, nil
}

func (a *Agent) runTool(ctx context.Context, s *store.Session, call llm.ToolCall) ToolTrace {
	trace := ToolTrace{CallID: call.ID, Name: call.Name, Arguments: call.Arguments}

	result, err := a.tools.Invoke(ctx, s, call.Name, call.Arguments)
	if err != nil {
		te := tools.AsToolError(err)
		trace.Error = &ToolErrorView{Kind: te.Kind, Message: te.Message}
		if errors.Is(err, tools.ErrUnknownTool) {
			a.logger.Warn(logModule, "Model called an unknown tool", map[string]interface{}{
				"session_id": s.ID,
				"tool":       call.Name,
			})
		}
		return trace
	}
	trace.Result = result
	return trace
}

func toolMessage(trace ToolTrace) string {
	var payload interface{} = trace.Result
	if trace.Error != nil {
		payload = map[string]interface{}{
			"success": false,
			"error":   trace.Error.Kind,
			"message": trace.Error.Message,
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return `{"success":false,"message":"The tool result could not be encoded."}`
	}
	return string(b)
}

// trimHistory keeps the system prompt plus the most recent messages. The cut
// never lands on a tool message, which must follow its assistant call.
func (a *Agent) trimHistory(s *store.Session) {
	if len(s.History) <= maxHistoryKept {
		return
	}

	head := 0
	if len(s.History) > 0 && s.History[0].Role == llm.RoleSystem {
		head = 1
	}
	cut := len(s.History) - (maxHistoryKept - head)
	for cut < len(s.History) && s.History[cut].Role != llm.RoleUser {
		cut++
	}

	kept := make([]llm.Message, 0, maxHistoryKept)
	kept = append(kept, s.History[:head]...)
	kept = append(kept, s.History[cut:]...)
	s.History = kept
}
