package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AgentToolCall struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId   string         `gorm:"type:varchar(36);not null;index"`
	WorkspaceId uint           `gorm:"not null;index"`
	Tool        string         `gorm:"type:varchar(64);not null"`
	Arguments   datatypes.JSON `gorm:"type:json"`
	Result      datatypes.JSON `gorm:"type:json"`
	ErrorKind   string         `gorm:"type:varchar(32)"`
	DurationMs  int64          `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (AgentToolCall) TableName() string {
	return "agent_tool_calls"
}
