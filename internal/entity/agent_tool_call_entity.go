package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AgentToolCall struct {
	Id          uuid.UUID
	SessionId   string
	WorkspaceId uint
	Tool        string
	Arguments   json.RawMessage
	Result      json.RawMessage
	ErrorKind   string
	Duration    time.Duration
	CreatedAt   time.Time
}
