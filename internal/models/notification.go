package models

import "time"

const (
	NotificationTradeExecuted = "trade_executed"
	NotificationAgentStatus   = "agent_status"
)

// Notification is a user-visible event. Created only for executed trades and
// for auto-pause; single-cycle errors are logged but never surfaced here.
type Notification struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement"`
	UserID  string  `gorm:"type:varchar(36);not null;index"`
	AgentID string  `gorm:"type:varchar(36);index"`
	TradeID *uint64 `gorm:"index"`

	Type    string `gorm:"type:varchar(30);not null;index"`
	Title   string `gorm:"type:varchar(200);not null"`
	Message string `gorm:"type:text"`

	Read      bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
