package mapper

import (
	"time"

	"invoicing-agent-be/internal/entity"
	"invoicing-agent-be/internal/model"

	"gorm.io/datatypes"
)

type AgentToolCallMapper struct{}

func NewAgentToolCallMapper() *AgentToolCallMapper {
	return &AgentToolCallMapper{}
}

func (m *AgentToolCallMapper) ToEntity(c *model.AgentToolCall) *entity.AgentToolCall {
	if c == nil {
		return nil
	}
	return &entity.AgentToolCall{
		Id:          c.Id,
		SessionId:   c.SessionId,
		WorkspaceId: c.WorkspaceId,
		Tool:        c.Tool,
		Arguments:   []byte(c.Arguments),
		Result:      []byte(c.Result),
		ErrorKind:   c.ErrorKind,
		Duration:    time.Duration(c.DurationMs) * time.Millisecond,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *AgentToolCallMapper) ToModel(c *entity.AgentToolCall) *model.AgentToolCall {
	if c == nil {
		return nil
	}
	return &model.AgentToolCall{
		Id:          c.Id,
		SessionId:   c.SessionId,
		WorkspaceId: c.WorkspaceId,
		Tool:        c.Tool,
		Arguments:   jsonOrNull(c.Arguments),
		Result:      jsonOrNull(c.Result),
		ErrorKind:   c.ErrorKind,
		DurationMs:  c.Duration.Milliseconds(),
		CreatedAt:   c.CreatedAt,
	}
}

func jsonOrNull(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
