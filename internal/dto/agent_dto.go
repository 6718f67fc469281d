package dto

import (
	"encoding/json"
	"time"

	"invoicing-agent-be/pkg/store"
)

type StartSessionRequest struct {
	WorkspaceID uint `json:"workspace_id" validate:"required,gt=0"`
}

type SessionResponse struct {
	Id                 string                `json:"id"`
	WorkspaceID        uint                  `json:"workspace_id"`
	CurrentInvoice     *store.DraftInvoice   `json:"current_invoice"`
	LastCreatedInvoice *store.CreatedInvoice `json:"last_created_invoice"`
	CreatedAt          time.Time             `json:"created_at"`
	LastActiveAt       time.Time             `json:"last_active_at"`
}

type ToolDescriptorResponse struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// InvokeToolResponse carries a tool outcome. A rejected call is still a
// successful request: Success is false and Error says why.
type InvokeToolResponse struct {
	Tool    string             `json:"tool"`
	Success bool               `json:"success"`
	Result  interface{}        `json:"result,omitempty"`
	Error   *ToolErrorResponse `json:"error,omitempty"`
}

type ToolErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type UtteranceRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type ToolCallTraceResponse struct {
	CallID    string             `json:"call_id"`
	Name      string             `json:"name"`
	Arguments json.RawMessage    `json:"arguments"`
	Result    interface{}        `json:"result,omitempty"`
	Error     *ToolErrorResponse `json:"error,omitempty"`
}

type ReplyResponse struct {
	Text      string                  `json:"text"`
	ToolCalls []ToolCallTraceResponse `json:"tool_calls"`
	Exhausted bool                    `json:"exhausted,omitempty"`
}
