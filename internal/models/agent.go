package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agent strategies. Each maps to a strategy-specific instruction template
// passed to the decision service; the orchestrator does not interpret them.
const (
	StrategyMomentum      = "momentum"
	StrategyMeanReversion = "mean_reversion"
	StrategySentiment     = "sentiment"
	StrategyScalping      = "scalping"
	StrategySwing         = "swing"
	StrategyArbitrage     = "arbitrage"
)

// Market scope determines the symbol universe fetched per cycle.
const (
	MarketStocks = "stocks"
	MarketCrypto = "crypto"
	MarketBoth   = "both"
)

// Agent lifecycle. Only active agents are scheduled.
const (
	AgentActive  = "active"
	AgentPaused  = "paused"
	AgentStopped = "stopped"
)

const (
	TradingModePaper = "paper"
	TradingModeLive  = "live"
)

// Agent is a configured autonomous trading identity.
type Agent struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`
	UserID string `gorm:"type:varchar(36);not null;index"`
	Name   string `gorm:"type:varchar(100);not null"`

	Strategy   string `gorm:"type:varchar(30);not null;index"`
	MarketType string `gorm:"type:varchar(10);not null;default:'stocks'"`

	// Balance is mutated only by the orchestrator, inside the same
	// transaction that moves a trade into its terminal state.
	Balance        decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	InitialBalance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	RiskTolerance   int             `gorm:"not null;default:5"`
	MaxPositionSize decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0.1"`
	TradingMode     string          `gorm:"type:varchar(10);not null;default:'paper'"`

	Status string `gorm:"type:varchar(10);not null;default:'paused';index"`

	TotalTrades   int             `gorm:"not null;default:0"`
	WinningTrades int             `gorm:"not null;default:0"`
	TotalProfit   decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	ErrorCount    int             `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Agent) TableName() string {
	return "trading_agents"
}

// WinRate is winning trades over total trades, 0 when the agent has not traded.
func (a Agent) WinRate() float64 {
	if a.TotalTrades == 0 {
		return 0
	}
	return float64(a.WinningTrades) / float64(a.TotalTrades)
}

// ROI is realized return over the initial balance.
func (a Agent) ROI() float64 {
	if a.InitialBalance.IsZero() {
		return 0
	}
	roi, _ := a.TotalProfit.Div(a.InitialBalance).Float64()
	return roi
}
