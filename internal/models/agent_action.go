package models

import (
	"time"

	"gorm.io/datatypes"
)

// Agent action types. One action row is written per cycle regardless of
// outcome; rows are write-once and never mutated by the orchestrator.
const (
	ActionDecision     = "decision"
	ActionTrade        = "trade"
	ActionAnalysis     = "analysis"
	ActionError        = "error"
	ActionStatusChange = "status_change"
)

// AgentAction is the per-cycle audit log entry.
type AgentAction struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	AgentID string `gorm:"type:varchar(36);not null;index"`
	UserID  string `gorm:"type:varchar(36);not null;index"`

	ActionType string         `gorm:"type:varchar(20);not null;index"`
	ActionData datatypes.JSON `gorm:"type:jsonb"`
	Reasoning  string         `gorm:"type:text"`

	ConfidenceScore *float64       `gorm:""`
	MarketData      datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (AgentAction) TableName() string {
	return "agent_actions"
}
