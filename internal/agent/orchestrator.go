package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vikram-agentic/tradex/internal/broker"
	"github.com/vikram-agentic/tradex/internal/decision"
	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/news"
	"github.com/vikram-agentic/tradex/internal/repository"
)

// Cycle outcomes.
const (
	OutcomeTraded       = "traded"
	OutcomeHold         = "hold"
	OutcomeSkipped      = "skipped"
	OutcomeNoMarketData = "no_market_data"
	OutcomeFailed       = "failed"
)

// CycleResult summarizes one trading cycle for the caller.
type CycleResult struct {
	AgentID  string             `json:"agent_id"`
	Outcome  string             `json:"outcome"`
	Decision *decision.Decision `json:"decision,omitempty"`
	TradeID  uint64             `json:"trade_id,omitempty"`
	Detail   string             `json:"detail,omitempty"`
	Paused   bool               `json:"paused,omitempty"`
}

// Store is the slice of the repository the orchestrator needs.
type Store interface {
	GetAgentByID(ctx context.Context, id string) (*models.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status string) error
	IncrementAgentErrors(ctx context.Context, id string) (int, error)
	ResetAgentErrors(ctx context.Context, id string) error

	CreateTrade(ctx context.Context, item *models.Trade) error
	ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error)
	MarkTradeExecuted(ctx context.Context, agentID string, exec repository.TradeExecution) error
	MarkTradeFailed(ctx context.Context, tradeID uint64, reason string) error

	InsertAgentAction(ctx context.Context, item *models.AgentAction) error
	GetPosition(ctx context.Context, agentID, symbol string) (*models.Position, error)
	ListPositionsByAgent(ctx context.Context, agentID string) ([]models.Position, error)
	InsertNotification(ctx context.Context, item *models.Notification) error
}

// Orchestrator drives one full trading cycle per agent: gather market
// context, ask the decision engine, validate, execute, persist. At most one
// cycle runs per agent at a time; overlapping requests are no-ops.
type Orchestrator struct {
	Store  Store
	Quotes market.Gateway
	News   news.Gateway
	Engine decision.Engine

	// BrokerFor selects the execution venue for an agent's trading mode.
	BrokerFor func(tradingMode string) broker.Broker

	// MinConfidence is inclusive: a decision at exactly this confidence
	// trades. MaxErrors consecutive counted failures pause the agent.
	MinConfidence float64
	MaxErrors     int

	Logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// RunCycle executes one trading cycle for the agent. Counted failures
// (decision engine errors, broker errors) raise the agent's error budget;
// clean skips (no market data, insufficient balance, no position to sell)
// reset it.
func (o *Orchestrator) RunCycle(ctx context.Context, agentID string) (CycleResult, error) {
	if !o.tryLock(agentID) {
		return CycleResult{AgentID: agentID}, ErrCycleInProgress
	}
	defer o.unlock(agentID)

	res := CycleResult{AgentID: agentID}

	agent, err := o.Store.GetAgentByID(ctx, agentID)
	if err != nil {
		return res, fmt.Errorf("load agent %s: %w", agentID, err)
	}
	if agent == nil {
		return res, ErrAgentNotFound
	}
	if agent.Status == models.AgentStopped {
		return res, ErrAgentStopped
	}

	quotes, articles := o.gatherContext(ctx, agent)
	if len(quotes) == 0 {
		o.logAnalysis(ctx, agent, "no market data available, skipping cycle", nil)
		o.resetErrors(ctx, agent)
		res.Outcome = OutcomeNoMarketData
		return res, nil
	}

	positions, err := o.Store.ListPositionsByAgent(ctx, agentID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "persistence", fmt.Errorf("load positions: %w", err))
		return res, nil
	}
	recentTrades, err := o.Store.ListTrades(ctx, repository.ListTradesParams{
		AgentID: &agentID,
		Limit:   10,
		OrderBy: "created_at",
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "persistence", fmt.Errorf("load recent trades: %w", err))
		return res, nil
	}

	d, err := o.Engine.Decide(ctx, decision.Input{
		Agent:        agent,
		Positions:    positions,
		RecentTrades: recentTrades,
		MarketData:   quotes,
		NewsData:     articles,
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "decision", err)
		return res, nil
	}
	res.Decision = &d

	o.logDecision(ctx, agent, d, quotes)

	if !d.IsTrade() || d.Confidence < o.MinConfidence {
		if d.IsTrade() {
			res.Detail = fmt.Sprintf("confidence %.0f below threshold, holding", d.Confidence)
		}
		o.resetErrors(ctx, agent)
		res.Outcome = OutcomeHold
		return res, nil
	}

	order, price, skip := o.sizeOrder(ctx, agent, d, quotes)
	if skip != "" {
		o.logAnalysis(ctx, agent, skip, &d)
		o.resetErrors(ctx, agent)
		res.Outcome = OutcomeSkipped
		res.Detail = skip
		return res, nil
	}

	return o.execute(ctx, agent, d, order, price, res)
}

// gatherContext fetches quotes and news concurrently. News is optional
// context; a news failure never blocks the cycle.
func (o *Orchestrator) gatherContext(ctx context.Context, agent *models.Agent) (map[string]market.Quote, []news.Article) {
	symbols := market.SymbolsForMarketType(agent.MarketType)

	var (
		wg       sync.WaitGroup
		quotes   map[string]market.Quote
		articles []news.Article
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		quotes, err = o.Quotes.GetQuotes(ctx, symbols)
		if err != nil && o.Logger != nil {
			o.Logger.Warn("quote fetch failed",
				zap.String("agent_id", agent.ID), zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		if o.News == nil {
			return
		}
		var err error
		articles, err = o.News.GetNews(ctx, symbols, 10)
		if err != nil && o.Logger != nil {
			o.Logger.Debug("news fetch failed",
				zap.String("agent_id", agent.ID), zap.Error(err))
		}
	}()
	wg.Wait()
	return quotes, articles
}

// sizeOrder validates the decision against the agent's balance and holdings
// and returns the order to place with the price it was sized at, or a
// non-empty skip reason when the cycle should end cleanly without trading.
// Buys size against the ask and sells against the bid, matching the side
// the fill prices at, so an order that passes the balance check cannot fill
// for more than the agent holds.
func (o *Orchestrator) sizeOrder(ctx context.Context, agent *models.Agent, d decision.Decision, quotes map[string]market.Quote) (broker.Order, decimal.Decimal, string) {
	quote, ok := quotes[d.Symbol]
	if !ok || !quote.Price.IsPositive() {
		return broker.Order{}, decimal.Zero, fmt.Sprintf("no quote for %s, skipping", d.Symbol)
	}
	price := quote.Price
	switch {
	case d.Action == decision.ActionBuy && quote.Ask.IsPositive():
		price = quote.Ask
	case d.Action == decision.ActionSell && quote.Bid.IsPositive():
		price = quote.Bid
	}

	qty := d.Quantity
	if qty.IsZero() {
		qty = agent.Balance.Mul(agent.MaxPositionSize).Div(price).Floor()
	}

	switch d.Action {
	case decision.ActionBuy:
		if qty.Mul(price).GreaterThan(agent.Balance) {
			qty = agent.Balance.Div(price).Floor()
		}
		if !qty.IsPositive() {
			return broker.Order{}, decimal.Zero, fmt.Sprintf("insufficient balance for %s at %s, skipping", d.Symbol, price)
		}
	case decision.ActionSell:
		pos, err := o.Store.GetPosition(ctx, agent.ID, d.Symbol)
		if err != nil || pos == nil || !pos.Quantity.IsPositive() {
			return broker.Order{}, decimal.Zero, fmt.Sprintf("no position in %s to sell, skipping", d.Symbol)
		}
		if qty.GreaterThan(pos.Quantity) {
			qty = pos.Quantity
		}
		if !qty.IsPositive() {
			return broker.Order{}, decimal.Zero, fmt.Sprintf("nothing to sell in %s, skipping", d.Symbol)
		}
	}

	return broker.Order{Symbol: d.Symbol, Side: d.Action, Quantity: qty}, price, ""
}

func (o *Orchestrator) execute(ctx context.Context, agent *models.Agent, d decision.Decision, order broker.Order, quotePrice decimal.Decimal, res CycleResult) (CycleResult, error) {
	trade := &models.Trade{
		AgentID:     agent.ID,
		UserID:      agent.UserID,
		Symbol:      order.Symbol,
		TradeType:   order.Side,
		Quantity:    order.Quantity,
		Price:       quotePrice,
		TotalAmount: quotePrice.Mul(order.Quantity),
		Status:      models.TradePending,
		Reasoning:   d.Reasoning,
	}
	if err := o.Store.CreateTrade(ctx, trade); err != nil {
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "persistence", fmt.Errorf("create trade: %w", err))
		return res, nil
	}
	res.TradeID = trade.ID

	venue := o.BrokerFor(agent.TradingMode)
	fill, err := venue.PlaceOrder(ctx, order)
	if err != nil {
		if ferr := o.Store.MarkTradeFailed(ctx, trade.ID, err.Error()); ferr != nil && o.Logger != nil {
			o.Logger.Error("mark trade failed",
				zap.Uint64("trade_id", trade.ID), zap.Error(ferr))
		}
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "execution", err)
		return res, nil
	}

	exec := repository.TradeExecution{
		TradeID:    trade.ID,
		FillPrice:  fill.FillPrice,
		ExecutedAt: fill.FilledAt,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Quantity:   order.Quantity,
	}
	switch order.Side {
	case models.SideBuy:
		exec.BalanceDelta = fill.TotalValue.Neg()
	case models.SideSell:
		exec.BalanceDelta = fill.TotalValue
		if pos, perr := o.Store.GetPosition(ctx, agent.ID, order.Symbol); perr == nil && pos != nil {
			exec.ProfitDelta = fill.FillPrice.Sub(pos.AvgEntryPrice).Mul(order.Quantity)
			exec.WinningTrade = exec.ProfitDelta.IsPositive()
		}
	}

	if err := o.Store.MarkTradeExecuted(ctx, agent.ID, exec); err != nil {
		if ferr := o.Store.MarkTradeFailed(ctx, trade.ID, err.Error()); ferr != nil && o.Logger != nil {
			o.Logger.Error("mark trade failed",
				zap.Uint64("trade_id", trade.ID), zap.Error(ferr))
		}
		res.Outcome = OutcomeFailed
		res.Paused = o.countFailure(ctx, agent, "settlement", err)
		return res, nil
	}

	o.logTrade(ctx, agent, d, order, fill)
	o.notifyTrade(ctx, agent, trade.ID, order, fill)

	if o.Logger != nil {
		o.Logger.Info("trade executed",
			zap.String("agent_id", agent.ID),
			zap.String("symbol", order.Symbol),
			zap.String("side", order.Side),
			zap.String("qty", order.Quantity.String()),
			zap.String("fill_price", fill.FillPrice.String()))
	}
	res.Outcome = OutcomeTraded
	return res, nil
}

// countFailure records an error action and raises the agent's error budget,
// pausing the agent when the budget is exhausted. Returns whether the agent
// was paused.
func (o *Orchestrator) countFailure(ctx context.Context, agent *models.Agent, stage string, cause error) bool {
	o.insertAction(ctx, &models.AgentAction{
		AgentID:    agent.ID,
		UserID:     agent.UserID,
		ActionType: models.ActionError,
		ActionData: mustJSON(map[string]string{"stage": stage, "error": cause.Error()}),
		Reasoning:  cause.Error(),
	})

	count, err := o.Store.IncrementAgentErrors(ctx, agent.ID)
	if err != nil {
		if o.Logger != nil {
			o.Logger.Error("increment agent errors",
				zap.String("agent_id", agent.ID), zap.Error(err))
		}
		return false
	}
	if o.Logger != nil {
		o.Logger.Warn("cycle failed",
			zap.String("agent_id", agent.ID),
			zap.String("stage", stage),
			zap.Int("error_count", count),
			zap.Error(cause))
	}
	if count < o.MaxErrors {
		return false
	}

	if err := o.Store.UpdateAgentStatus(ctx, agent.ID, models.AgentPaused); err != nil {
		if o.Logger != nil {
			o.Logger.Error("auto-pause agent",
				zap.String("agent_id", agent.ID), zap.Error(err))
		}
		return false
	}
	o.insertAction(ctx, &models.AgentAction{
		AgentID:    agent.ID,
		UserID:     agent.UserID,
		ActionType: models.ActionStatusChange,
		ActionData: mustJSON(map[string]any{"status": models.AgentPaused, "error_count": count}),
		Reasoning:  fmt.Sprintf("paused after %d consecutive failures", count),
	})
	o.insertNotification(ctx, &models.Notification{
		UserID:  agent.UserID,
		AgentID: agent.ID,
		Type:    models.NotificationAgentStatus,
		Title:   fmt.Sprintf("Agent %s paused", agent.Name),
		Message: fmt.Sprintf("%s was paused after %d consecutive failed cycles. Last error: %s", agent.Name, count, cause.Error()),
	})
	return true
}

func (o *Orchestrator) resetErrors(ctx context.Context, agent *models.Agent) {
	if agent.ErrorCount == 0 {
		return
	}
	if err := o.Store.ResetAgentErrors(ctx, agent.ID); err != nil && o.Logger != nil {
		o.Logger.Error("reset agent errors",
			zap.String("agent_id", agent.ID), zap.Error(err))
	}
}

func (o *Orchestrator) logDecision(ctx context.Context, agent *models.Agent, d decision.Decision, quotes map[string]market.Quote) {
	confidence := d.Confidence
	o.insertAction(ctx, &models.AgentAction{
		AgentID:         agent.ID,
		UserID:          agent.UserID,
		ActionType:      models.ActionDecision,
		ActionData:      mustJSON(d),
		Reasoning:       d.Reasoning,
		ConfidenceScore: &confidence,
		MarketData:      mustJSON(quotes),
	})
}

func (o *Orchestrator) logAnalysis(ctx context.Context, agent *models.Agent, detail string, d *decision.Decision) {
	action := &models.AgentAction{
		AgentID:    agent.ID,
		UserID:     agent.UserID,
		ActionType: models.ActionAnalysis,
		Reasoning:  detail,
	}
	if d != nil {
		action.ActionData = mustJSON(d)
		confidence := d.Confidence
		action.ConfidenceScore = &confidence
	}
	o.insertAction(ctx, action)
}

func (o *Orchestrator) logTrade(ctx context.Context, agent *models.Agent, d decision.Decision, order broker.Order, fill broker.Fill) {
	confidence := d.Confidence
	o.insertAction(ctx, &models.AgentAction{
		AgentID:    agent.ID,
		UserID:     agent.UserID,
		ActionType: models.ActionTrade,
		ActionData: mustJSON(map[string]any{
			"symbol":     order.Symbol,
			"side":       order.Side,
			"quantity":   order.Quantity,
			"fill_price": fill.FillPrice,
			"total":      fill.TotalValue,
			"order_id":   fill.OrderID,
		}),
		Reasoning:       d.Reasoning,
		ConfidenceScore: &confidence,
	})
}

func (o *Orchestrator) notifyTrade(ctx context.Context, agent *models.Agent, tradeID uint64, order broker.Order, fill broker.Fill) {
	o.insertNotification(ctx, &models.Notification{
		UserID:  agent.UserID,
		AgentID: agent.ID,
		TradeID: &tradeID,
		Type:    models.NotificationTradeExecuted,
		Title:   fmt.Sprintf("Trade executed: %s %s", order.Side, order.Symbol),
		Message: fmt.Sprintf("%s %s %s %s at %s (total %s)", agent.Name, order.Side, order.Quantity, order.Symbol, fill.FillPrice, fill.TotalValue),
	})
}

func (o *Orchestrator) insertAction(ctx context.Context, action *models.AgentAction) {
	if err := o.Store.InsertAgentAction(ctx, action); err != nil && o.Logger != nil {
		o.Logger.Error("insert agent action",
			zap.String("agent_id", action.AgentID), zap.Error(err))
	}
}

func (o *Orchestrator) insertNotification(ctx context.Context, n *models.Notification) {
	if err := o.Store.InsertNotification(ctx, n); err != nil && o.Logger != nil {
		o.Logger.Error("insert notification",
			zap.String("agent_id", n.AgentID), zap.Error(err))
	}
}

func (o *Orchestrator) tryLock(agentID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight == nil {
		o.inflight = make(map[string]struct{})
	}
	if _, busy := o.inflight[agentID]; busy {
		return false
	}
	o.inflight[agentID] = struct{}{}
	return true
}

func (o *Orchestrator) unlock(agentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, agentID)
}

func mustJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(data)
}
