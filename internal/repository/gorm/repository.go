package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Agents ------------------------------------------------------------------

func (s *Store) CreateAgent(ctx context.Context, item *models.Agent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	if item.Balance.IsZero() {
		item.Balance = item.InitialBalance
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetAgentByID(ctx context.Context, id string) (*models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var item models.Agent
	err := s.db.WithContext(ctx).Model(&models.Agent{}).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAgents(ctx context.Context, params repository.ListAgentsParams) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.agentQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Agent
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAgents(ctx context.Context, params repository.ListAgentsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.agentQuery(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) agentQuery(ctx context.Context, params repository.ListAgentsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Agent{})
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

func (s *Store) ListActiveAgentIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("status = ?", models.AgentActive).
		Order("created_at asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ListAgentLeaderboard(ctx context.Context, limit int) ([]models.Agent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Agent
	if err := s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("initial_balance > 0").
		Order("(total_profit / initial_balance) desc").
		Limit(normalizeLimit(limit, 20)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Agent{}).Error
}

func (s *Store) IncrementAgentErrors(ctx context.Context, id string) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Agent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&item).Error; err != nil {
			return err
		}
		count = item.ErrorCount + 1
		return tx.Model(&models.Agent{}).
			Where("id = ?", id).
			Update("error_count", count).Error
	})
	return count, err
}

func (s *Store) ResetAgentErrors(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", id).
		Where("error_count <> 0").
		Update("error_count", 0).Error
}

// --- Trades ------------------------------------------------------------------

func (s *Store) CreateTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).Model(&models.Trade{}).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.tradeQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Trade
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.tradeQuery(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) tradeQuery(ctx context.Context, params repository.ListTradesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		query = query.Where("agent_id = ?", strings.TrimSpace(*params.AgentID))
	}
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(*params.Symbol)))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

// MarkTradeExecuted applies the terminal executed state, the agent balance
// and counter deltas, and the position adjustment in one transaction. The
// pending-status guard makes the call idempotent: a trade already executed
// or failed is not touched again.
func (s *Store) MarkTradeExecuted(ctx context.Context, agentID string, exec repository.TradeExecution) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trade models.Trade
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", exec.TradeID).First(&trade).Error; err != nil {
			return err
		}
		if trade.Status != models.TradePending {
			return nil
		}

		total := exec.Quantity.Mul(exec.FillPrice)
		executedAt := exec.ExecutedAt
		if executedAt.IsZero() {
			executedAt = time.Now().UTC()
		}
		if err := tx.Model(&models.Trade{}).
			Where("id = ?", exec.TradeID).
			Updates(map[string]any{
				"status":       models.TradeExecuted,
				"price":        exec.FillPrice,
				"quantity":     exec.Quantity,
				"total_amount": total,
				"executed_at":  executedAt,
			}).Error; err != nil {
			return err
		}

		var agent models.Agent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", agentID).First(&agent).Error; err != nil {
			return err
		}
		newBalance := agent.Balance.Add(exec.BalanceDelta)
		if newBalance.IsNegative() {
			return errors.New("trade would drive agent balance negative")
		}
		wins := agent.WinningTrades
		if exec.WinningTrade {
			wins++
		}
		if err := tx.Model(&models.Agent{}).
			Where("id = ?", agentID).
			Updates(map[string]any{
				"balance":        newBalance,
				"total_trades":   agent.TotalTrades + 1,
				"winning_trades": wins,
				"total_profit":   agent.TotalProfit.Add(exec.ProfitDelta),
				"error_count":    0,
				"updated_at":     time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		return applyPositionTx(tx, agentID, exec)
	})
}

func applyPositionTx(tx *gorm.DB, agentID string, exec repository.TradeExecution) error {
	symbol := strings.ToUpper(strings.TrimSpace(exec.Symbol))
	if symbol == "" {
		return nil
	}
	var pos models.Position
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("agent_id = ? AND symbol = ?", agentID, symbol).
		First(&pos).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if exec.Side != models.SideBuy {
			return nil
		}
		return tx.Create(&models.Position{
			AgentID:       agentID,
			Symbol:        symbol,
			Quantity:      exec.Quantity,
			AvgEntryPrice: exec.FillPrice,
			CurrentPrice:  exec.FillPrice,
		}).Error
	case err != nil:
		return err
	}

	if exec.Side == models.SideBuy {
		newQty := pos.Quantity.Add(exec.Quantity)
		cost := pos.AvgEntryPrice.Mul(pos.Quantity).Add(exec.FillPrice.Mul(exec.Quantity))
		avg := pos.AvgEntryPrice
		if newQty.IsPositive() {
			avg = cost.Div(newQty)
		}
		return tx.Model(&models.Position{}).
			Where("id = ?", pos.ID).
			Updates(map[string]any{
				"quantity":        newQty,
				"avg_entry_price": avg,
				"current_price":   exec.FillPrice,
				"updated_at":      time.Now().UTC(),
			}).Error
	}

	sold := exec.Quantity
	if sold.GreaterThan(pos.Quantity) {
		sold = pos.Quantity
	}
	newQty := pos.Quantity.Sub(sold)
	realized := exec.FillPrice.Sub(pos.AvgEntryPrice).Mul(sold)
	if newQty.IsZero() {
		return tx.Where("id = ?", pos.ID).Delete(&models.Position{}).Error
	}
	return tx.Model(&models.Position{}).
		Where("id = ?", pos.ID).
		Updates(map[string]any{
			"quantity":      newQty,
			"current_price": exec.FillPrice,
			"realized_pnl":  pos.RealizedPnL.Add(realized),
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (s *Store) MarkTradeFailed(ctx context.Context, tradeID uint64, reason string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", tradeID).
		Where("status = ?", models.TradePending).
		Updates(map[string]any{
			"status":         models.TradeFailed,
			"failure_reason": reason,
		}).Error
}

// --- Audit log ---------------------------------------------------------------

func (s *Store) InsertAgentAction(ctx context.Context, item *models.AgentAction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAgentActions(ctx context.Context, params repository.ListActionsParams) ([]models.AgentAction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.AgentAction{})
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		query = query.Where("agent_id = ?", strings.TrimSpace(*params.AgentID))
	}
	if params.ActionType != nil && strings.TrimSpace(*params.ActionType) != "" {
		query = query.Where("action_type = ?", strings.TrimSpace(*params.ActionType))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.AgentAction
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Positions ---------------------------------------------------------------

func (s *Store) GetPosition(ctx context.Context, agentID, symbol string) (*models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND symbol = ?", agentID, strings.ToUpper(strings.TrimSpace(symbol))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPositionsByAgent(ctx context.Context, agentID string) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Position
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("symbol asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Notifications -----------------------------------------------------------

func (s *Store) InsertNotification(ctx context.Context, item *models.Notification) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListNotifications(ctx context.Context, params repository.ListNotificationsParams) ([]models.Notification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.Unread != nil && *params.Unread {
		query = query.Where("read = false")
	}
	var items []models.Notification
	if err := query.Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}

// --- News --------------------------------------------------------------------

func (s *Store) UpsertNewsArticles(ctx context.Context, items []models.NewsArticle) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).CreateInBatches(items, 50).Error
}

func (s *Store) ListNewsArticles(ctx context.Context, params repository.ListNewsParams) ([]models.NewsArticle, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.NewsArticle{})
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		symbol := strings.ToUpper(strings.TrimSpace(*params.Symbol))
		query = query.Where("symbols @> ?", `["`+symbol+`"]`)
	}
	if params.Keyword != nil && strings.TrimSpace(*params.Keyword) != "" {
		kw := "%" + strings.TrimSpace(*params.Keyword) + "%"
		query = query.Where("title ILIKE ? OR summary ILIKE ?", kw, kw)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("published_at >= ?", *params.Since)
	}
	var items []models.NewsArticle
	if err := query.Order("published_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
