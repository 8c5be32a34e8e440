package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vikram-agentic/tradex/internal/models"
)

// Repository is the durable agent state store. The orchestrator and scheduler
// depend on narrow slices of it declared at their call sites; handlers use it
// directly.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Agents
	CreateAgent(ctx context.Context, item *models.Agent) error
	GetAgentByID(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context, params ListAgentsParams) ([]models.Agent, error)
	CountAgents(ctx context.Context, params ListAgentsParams) (int64, error)
	ListActiveAgentIDs(ctx context.Context) ([]string, error)
	ListAgentLeaderboard(ctx context.Context, limit int) ([]models.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status string) error
	DeleteAgent(ctx context.Context, id string) error

	// Error budget. IncrementAgentErrors returns the count after the
	// increment so the caller can decide on auto-pause.
	IncrementAgentErrors(ctx context.Context, id string) (int, error)
	ResetAgentErrors(ctx context.Context, id string) error

	// Trades
	CreateTrade(ctx context.Context, item *models.Trade) error
	GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error)
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	CountTrades(ctx context.Context, params ListTradesParams) (int64, error)
	MarkTradeExecuted(ctx context.Context, agentID string, exec TradeExecution) error
	MarkTradeFailed(ctx context.Context, tradeID uint64, reason string) error

	// Audit log
	InsertAgentAction(ctx context.Context, item *models.AgentAction) error
	ListAgentActions(ctx context.Context, params ListActionsParams) ([]models.AgentAction, error)

	// Positions
	GetPosition(ctx context.Context, agentID, symbol string) (*models.Position, error)
	ListPositionsByAgent(ctx context.Context, agentID string) ([]models.Position, error)

	// Notifications
	InsertNotification(ctx context.Context, item *models.Notification) error
	ListNotifications(ctx context.Context, params ListNotificationsParams) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uint64) error

	// News
	UpsertNewsArticles(ctx context.Context, items []models.NewsArticle) error
	ListNewsArticles(ctx context.Context, params ListNewsParams) ([]models.NewsArticle, error)
}

// TradeExecution moves a pending trade into its terminal executed state. The
// whole struct is applied in one transaction keyed by TradeID; a trade already
// in a terminal state is left untouched, which makes retries safe.
type TradeExecution struct {
	TradeID    uint64
	FillPrice  decimal.Decimal
	ExecutedAt time.Time

	// BalanceDelta is signed: negative for buys, positive for sells.
	BalanceDelta decimal.Decimal
	ProfitDelta  decimal.Decimal
	WinningTrade bool

	// Position adjustment applied alongside the agent counters.
	Symbol   string
	Side     string
	Quantity decimal.Decimal
}

type ListAgentsParams struct {
	Limit   int
	Offset  int
	UserID  *string
	Status  *string
	OrderBy string
	Asc     *bool
}

type ListTradesParams struct {
	Limit   int
	Offset  int
	AgentID *string
	UserID  *string
	Symbol  *string
	Status  *string
	OrderBy string
	Asc     *bool
}

type ListActionsParams struct {
	Limit      int
	Offset     int
	AgentID    *string
	ActionType *string
	Since      *time.Time
	OrderBy    string
	Asc        *bool
}

type ListNotificationsParams struct {
	Limit  int
	Offset int
	UserID *string
	Unread *bool
}

type ListNewsParams struct {
	Limit   int
	Offset  int
	Symbol  *string
	Keyword *string
	Since   *time.Time
}
