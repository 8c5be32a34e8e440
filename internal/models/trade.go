package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade statuses. A trade is immutable once in a terminal state
// (executed, failed, cancelled).
const (
	TradePending   = "pending"
	TradeExecuted  = "executed"
	TradeFailed    = "failed"
	TradeCancelled = "cancelled"
)

// Trade is an executed or attempted order. Created as pending at decision
// time; the balance delta is applied in the same transaction that marks it
// executed, so a retried cycle can never apply the delta twice.
type Trade struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	AgentID string `gorm:"type:varchar(36);not null;index"`
	UserID  string `gorm:"type:varchar(36);not null;index"`

	Symbol    string `gorm:"type:varchar(20);not null;index"`
	TradeType string `gorm:"type:varchar(10);not null"`

	Quantity    decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Price       decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Status        string `gorm:"type:varchar(20);not null;default:'pending';index"`
	Reasoning     string `gorm:"type:text"`
	FailureReason string `gorm:"type:text"`

	ExecutedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt  time.Time  `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Trade) TableName() string {
	return "trades"
}
