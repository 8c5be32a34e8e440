package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the per-agent holding for one symbol. Buys raise quantity and
// re-average the entry price; sells reduce quantity and realize P&L. Sells
// never drive quantity negative (no short positions).
type Position struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	AgentID string `gorm:"type:varchar(36);not null;index:idx_positions_agent_symbol,unique"`
	Symbol  string `gorm:"type:varchar(20);not null;index:idx_positions_agent_symbol,unique"`

	Quantity      decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	AvgEntryPrice decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	CurrentPrice  decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	RealizedPnL   decimal.Decimal `gorm:"column:realized_pnl;type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Position) TableName() string {
	return "agent_positions"
}
