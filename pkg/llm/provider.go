package llm

import (
	"context"
	"encoding/json"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system", "tool"
	Content string

	// ToolCalls is set on assistant messages that ask for tool execution.
	ToolCalls []ToolCall
	// ToolCallID and ToolName identify the call a "tool" message answers.
	ToolCallID string
	ToolName   string
}

// ToolDefinition describes a callable tool. Parameters is a JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Response is one model turn: either text, tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// ChatWithTools offers the tools to the model and returns its turn,
	// which may request tool calls instead of (or besides) answering.
	ChatWithTools(ctx context.Context, history []Message, tools []ToolDefinition, options ...Option) (*Response, error)
}
