package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/broker"
	"github.com/vikram-agentic/tradex/internal/decision"
	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/news"
	"github.com/vikram-agentic/tradex/internal/repository"
)

// --- fakes -------------------------------------------------------------------

type fakeStore struct {
	agent     *models.Agent
	positions []models.Position
	trades    []models.Trade

	createdTrades []*models.Trade
	executions    []repository.TradeExecution
	failedTrades  map[uint64]string
	actions       []*models.AgentAction
	notifications []*models.Notification
	statusUpdates []string
	errorCount    int
	resets        int
	nextTradeID   uint64

	listPositionsErr error
	createTradeErr   error
	markExecutedErr  error
}

func newFakeStore(agent *models.Agent) *fakeStore {
	return &fakeStore{agent: agent, failedTrades: map[uint64]string{}}
}

func (f *fakeStore) GetAgentByID(_ context.Context, id string) (*models.Agent, error) {
	if f.agent == nil || f.agent.ID != id {
		return nil, nil
	}
	copied := *f.agent
	return &copied, nil
}

func (f *fakeStore) UpdateAgentStatus(_ context.Context, _ string, status string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	f.agent.Status = status
	return nil
}

func (f *fakeStore) IncrementAgentErrors(_ context.Context, _ string) (int, error) {
	f.errorCount++
	return f.errorCount, nil
}

func (f *fakeStore) ResetAgentErrors(_ context.Context, _ string) error {
	f.resets++
	f.errorCount = 0
	return nil
}

func (f *fakeStore) CreateTrade(_ context.Context, item *models.Trade) error {
	if f.createTradeErr != nil {
		return f.createTradeErr
	}
	f.nextTradeID++
	item.ID = f.nextTradeID
	f.createdTrades = append(f.createdTrades, item)
	return nil
}

func (f *fakeStore) ListTrades(_ context.Context, _ repository.ListTradesParams) ([]models.Trade, error) {
	return f.trades, nil
}

func (f *fakeStore) MarkTradeExecuted(_ context.Context, _ string, exec repository.TradeExecution) error {
	if f.markExecutedErr != nil {
		return f.markExecutedErr
	}
	f.executions = append(f.executions, exec)
	f.errorCount = 0
	return nil
}

func (f *fakeStore) MarkTradeFailed(_ context.Context, tradeID uint64, reason string) error {
	f.failedTrades[tradeID] = reason
	return nil
}

func (f *fakeStore) InsertAgentAction(_ context.Context, item *models.AgentAction) error {
	f.actions = append(f.actions, item)
	return nil
}

func (f *fakeStore) GetPosition(_ context.Context, _ string, symbol string) (*models.Position, error) {
	for i := range f.positions {
		if f.positions[i].Symbol == symbol {
			return &f.positions[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListPositionsByAgent(_ context.Context, _ string) ([]models.Position, error) {
	if f.listPositionsErr != nil {
		return nil, f.listPositionsErr
	}
	return f.positions, nil
}

func (f *fakeStore) InsertNotification(_ context.Context, item *models.Notification) error {
	f.notifications = append(f.notifications, item)
	return nil
}

func (f *fakeStore) actionTypes() []string {
	out := make([]string, 0, len(f.actions))
	for _, a := range f.actions {
		out = append(out, a.ActionType)
	}
	return out
}

type fakeQuotes struct {
	quotes map[string]market.Quote
	err    error
}

func (f *fakeQuotes) GetQuotes(_ context.Context, _ []string) (map[string]market.Quote, error) {
	return f.quotes, f.err
}

type fakeNews struct{}

func (fakeNews) GetNews(_ context.Context, _ []string, _ int) ([]news.Article, error) {
	return []news.Article{{Title: "markets calm"}}, nil
}

type fakeEngine struct {
	decision decision.Decision
	err      error
}

func (f *fakeEngine) Decide(_ context.Context, _ decision.Input) (decision.Decision, error) {
	return f.decision, f.err
}

type fakeBroker struct {
	fill   broker.Fill
	err    error
	orders []broker.Order
}

func (f *fakeBroker) PlaceOrder(_ context.Context, order broker.Order) (broker.Fill, error) {
	f.orders = append(f.orders, order)
	if f.err != nil {
		return broker.Fill{}, f.err
	}
	fill := f.fill
	if fill.TotalValue.IsZero() {
		fill.TotalValue = fill.FillPrice.Mul(order.Quantity)
	}
	return fill, nil
}

// --- helpers -----------------------------------------------------------------

func testAgent() *models.Agent {
	return &models.Agent{
		ID:              "agent-1",
		UserID:          "user-1",
		Name:            "alpha",
		Strategy:        models.StrategyMomentum,
		MarketType:      models.MarketStocks,
		Balance:         decimal.NewFromInt(1000),
		InitialBalance:  decimal.NewFromInt(1000),
		MaxPositionSize: decimal.NewFromFloat(0.2),
		TradingMode:     models.TradingModePaper,
		Status:          models.AgentActive,
	}
}

func quoteAt(symbol string, price float64) market.Quote {
	p := decimal.NewFromFloat(price)
	return market.Quote{Symbol: symbol, Price: p, Bid: p, Ask: p, Timestamp: time.Now()}
}

func newOrchestrator(store *fakeStore, quotes *fakeQuotes, engine *fakeEngine, venue *fakeBroker) *Orchestrator {
	return &Orchestrator{
		Store:         store,
		Quotes:        quotes,
		News:          fakeNews{},
		Engine:        engine,
		BrokerFor:     func(string) broker.Broker { return venue },
		MinConfidence: 70,
		MaxErrors:     5,
	}
}

// --- tests -------------------------------------------------------------------

func TestRunCycleExecutesBuyWithDerivedQuantity(t *testing.T) {
	store := newFakeStore(testAgent())
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL", Confidence: 85, Reasoning: "breakout",
	}}
	venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: decimal.NewFromInt(50), FilledAt: time.Now()}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeTraded {
		t.Fatalf("outcome=%s want traded (%s)", res.Outcome, res.Detail)
	}

	// balance 1000 * max position 0.2 / price 50 = 4 shares
	if len(venue.orders) != 1 {
		t.Fatalf("orders=%d want 1", len(venue.orders))
	}
	if !venue.orders[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("quantity=%s want 4", venue.orders[0].Quantity)
	}

	if len(store.executions) != 1 {
		t.Fatalf("executions=%d want 1", len(store.executions))
	}
	exec := store.executions[0]
	if !exec.BalanceDelta.Equal(decimal.NewFromInt(-200)) {
		t.Fatalf("balance delta=%s want -200", exec.BalanceDelta)
	}
	if exec.Side != models.SideBuy || exec.Symbol != "AAPL" {
		t.Fatalf("exec %+v", exec)
	}

	// decision + trade actions, plus one trade notification
	types := store.actionTypes()
	if len(types) != 2 || types[0] != models.ActionDecision || types[1] != models.ActionTrade {
		t.Fatalf("actions=%v", types)
	}
	if len(store.notifications) != 1 || store.notifications[0].Type != models.NotificationTradeExecuted {
		t.Fatalf("notifications=%+v", store.notifications)
	}
}

func TestRunCycleLowConfidenceBecomesHold(t *testing.T) {
	store := newFakeStore(testAgent())
	store.agent.ErrorCount = 2
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL", Confidence: 60, Reasoning: "weak signal",
	}}
	venue := &fakeBroker{}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeHold {
		t.Fatalf("outcome=%s want hold", res.Outcome)
	}
	if len(venue.orders) != 0 || len(store.createdTrades) != 0 {
		t.Fatal("low-confidence decision must not trade")
	}
	if store.resets != 1 {
		t.Fatalf("resets=%d want 1 (clean cycle clears error budget)", store.resets)
	}
}

func TestRunCycleConfidenceBoundary(t *testing.T) {
	for _, tt := range []struct {
		confidence float64
		outcome    string
	}{
		{70, OutcomeTraded},
		{69, OutcomeHold},
	} {
		store := newFakeStore(testAgent())
		quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
		engine := &fakeEngine{decision: decision.Decision{
			Action: decision.ActionBuy, Symbol: "AAPL", Confidence: tt.confidence,
		}}
		venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: decimal.NewFromInt(50), FilledAt: time.Now()}}
		o := newOrchestrator(store, quotes, engine, venue)

		res, err := o.RunCycle(context.Background(), "agent-1")
		if err != nil {
			t.Fatalf("confidence %v: %v", tt.confidence, err)
		}
		if res.Outcome != tt.outcome {
			t.Fatalf("confidence %v: outcome=%s want %s", tt.confidence, res.Outcome, tt.outcome)
		}
	}
}

func TestRunCycleDownsizesBuyToBalance(t *testing.T) {
	store := newFakeStore(testAgent())
	store.agent.Balance = decimal.NewFromInt(100)
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 30)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL",
		Quantity: decimal.NewFromInt(10), Confidence: 90,
	}}
	venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: decimal.NewFromInt(30), FilledAt: time.Now()}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeTraded {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	// 10 * 30 = 300 exceeds balance 100: floor(100/30) = 3 shares
	if !venue.orders[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("quantity=%s want 3", venue.orders[0].Quantity)
	}
}

func TestRunCycleSkipsWhenBalanceBuysNothing(t *testing.T) {
	store := newFakeStore(testAgent())
	store.agent.Balance = decimal.NewFromInt(10)
	store.agent.ErrorCount = 3
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL",
		Quantity: decimal.NewFromInt(1), Confidence: 95,
	}}
	venue := &fakeBroker{}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Fatalf("outcome=%s want skipped", res.Outcome)
	}
	if len(store.createdTrades) != 0 {
		t.Fatal("no trade row may be created for an unaffordable buy")
	}
	if store.resets != 1 {
		t.Fatal("clean skip must reset the error budget")
	}
	types := store.actionTypes()
	if len(types) != 2 || types[1] != models.ActionAnalysis {
		t.Fatalf("actions=%v want decision then analysis", types)
	}
}

func TestRunCycleSellRequiresPosition(t *testing.T) {
	store := newFakeStore(testAgent())
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionSell, Symbol: "AAPL",
		Quantity: decimal.NewFromInt(5), Confidence: 90,
	}}
	venue := &fakeBroker{}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Fatalf("outcome=%s want skipped", res.Outcome)
	}
	if len(venue.orders) != 0 {
		t.Fatal("sell without a position must not reach the broker")
	}
}

func TestRunCycleClampsSellToHeldQuantity(t *testing.T) {
	store := newFakeStore(testAgent())
	store.positions = []models.Position{{
		AgentID: "agent-1", Symbol: "AAPL",
		Quantity:      decimal.NewFromInt(3),
		AvgEntryPrice: decimal.NewFromInt(40),
	}}
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionSell, Symbol: "AAPL",
		Quantity: decimal.NewFromInt(10), Confidence: 90,
	}}
	venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: decimal.NewFromInt(50), FilledAt: time.Now()}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeTraded {
		t.Fatalf("outcome=%s want traded", res.Outcome)
	}
	if !venue.orders[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("quantity=%s want clamp to held 3", venue.orders[0].Quantity)
	}
	exec := store.executions[0]
	// sold 3 @ 50 bought @ 40: +150 balance, +30 profit
	if !exec.BalanceDelta.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("balance delta=%s want 150", exec.BalanceDelta)
	}
	if !exec.ProfitDelta.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("profit delta=%s want 30", exec.ProfitDelta)
	}
	if !exec.WinningTrade {
		t.Fatal("profitable sell must count as winning")
	}
}

func TestRunCycleBrokerFailureCountsAndPausesAtBudget(t *testing.T) {
	store := newFakeStore(testAgent())
	store.errorCount = 4
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL", Confidence: 90,
	}}
	venue := &fakeBroker{err: &broker.GatewayError{Venue: "paper", Err: errors.New("venue down")}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome=%s want failed", res.Outcome)
	}
	if !res.Paused {
		t.Fatal("fifth consecutive failure must pause the agent")
	}
	if len(store.statusUpdates) != 1 || store.statusUpdates[0] != models.AgentPaused {
		t.Fatalf("status updates=%v", store.statusUpdates)
	}
	if len(store.failedTrades) != 1 {
		t.Fatalf("failed trades=%v want the pending trade marked failed", store.failedTrades)
	}
	if len(store.notifications) != 1 || store.notifications[0].Type != models.NotificationAgentStatus {
		t.Fatalf("notifications=%+v want one agent_status", store.notifications)
	}
	types := store.actionTypes()
	want := []string{models.ActionDecision, models.ActionError, models.ActionStatusChange}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("actions=%v want %v", types, want)
	}
}

func TestRunCycleCreateTradeFailureCountsTowardBudget(t *testing.T) {
	store := newFakeStore(testAgent())
	store.createTradeErr = errors.New("connection refused")
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL", Confidence: 90,
	}}
	venue := &fakeBroker{}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome=%s want failed", res.Outcome)
	}
	if len(venue.orders) != 0 {
		t.Fatal("order must not reach the broker when the trade row cannot be written")
	}
	if store.errorCount != 1 {
		t.Fatalf("error count=%d want 1", store.errorCount)
	}
	types := store.actionTypes()
	if len(types) != 2 || types[1] != models.ActionError {
		t.Fatalf("actions=%v want decision then error", types)
	}
}

func TestRunCycleStoreFailurePausesAtBudget(t *testing.T) {
	store := newFakeStore(testAgent())
	store.errorCount = 4
	store.listPositionsErr = errors.New("connection refused")
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	o := newOrchestrator(store, quotes, &fakeEngine{}, &fakeBroker{})

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome=%s want failed", res.Outcome)
	}
	if !res.Paused {
		t.Fatal("fifth consecutive store failure must pause the agent")
	}
	if len(store.statusUpdates) != 1 || store.statusUpdates[0] != models.AgentPaused {
		t.Fatalf("status updates=%v", store.statusUpdates)
	}
}

func TestRunCycleSizesBuyAgainstAsk(t *testing.T) {
	store := newFakeStore(testAgent())
	store.agent.Balance = decimal.NewFromInt(100)
	ask := decimal.NewFromFloat(50.03)
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": {
		Symbol: "AAPL",
		Price:  decimal.NewFromInt(50),
		Bid:    decimal.NewFromFloat(49.97),
		Ask:    ask,
	}}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL",
		Quantity: decimal.NewFromInt(2), Confidence: 90,
	}}
	venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: ask, FilledAt: time.Now()}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeTraded {
		t.Fatalf("outcome=%s want traded (%s)", res.Outcome, res.Detail)
	}
	// 2 shares pass at the mid but cost 100.06 at the ask: floor(100/50.03) = 1
	if !venue.orders[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("quantity=%s want 1", venue.orders[0].Quantity)
	}
	exec := store.executions[0]
	if exec.BalanceDelta.Neg().GreaterThan(store.agent.Balance) {
		t.Fatalf("fill %s exceeds balance %s", exec.BalanceDelta.Neg(), store.agent.Balance)
	}
}

func TestRunCycleSettlementFailureMarksTradeFailed(t *testing.T) {
	store := newFakeStore(testAgent())
	store.markExecutedErr = errors.New("trade would drive agent balance negative")
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{decision: decision.Decision{
		Action: decision.ActionBuy, Symbol: "AAPL", Confidence: 90,
	}}
	venue := &fakeBroker{fill: broker.Fill{OrderID: "o1", FillPrice: decimal.NewFromInt(50), FilledAt: time.Now()}}
	o := newOrchestrator(store, quotes, engine, venue)

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeFailed || res.Paused {
		t.Fatalf("res=%+v want failed, not paused", res)
	}
	if len(store.failedTrades) != 1 {
		t.Fatalf("failed trades=%v want the pending trade marked failed", store.failedTrades)
	}
	if reason := store.failedTrades[res.TradeID]; reason == "" {
		t.Fatalf("trade %d not marked failed", res.TradeID)
	}
	if store.errorCount != 1 {
		t.Fatalf("error count=%d want 1", store.errorCount)
	}
}

func TestRunCycleDecisionFailureBelowBudgetDoesNotPause(t *testing.T) {
	store := newFakeStore(testAgent())
	quotes := &fakeQuotes{quotes: map[string]market.Quote{"AAPL": quoteAt("AAPL", 50)}}
	engine := &fakeEngine{err: &decision.ParseError{Reason: "no JSON object in response"}}
	o := newOrchestrator(store, quotes, engine, &fakeBroker{})

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeFailed || res.Paused {
		t.Fatalf("res=%+v want failed, not paused", res)
	}
	if store.errorCount != 1 {
		t.Fatalf("error count=%d want 1", store.errorCount)
	}
	if len(store.notifications) != 0 {
		t.Fatal("single failures must not notify")
	}
}

func TestRunCycleNoMarketData(t *testing.T) {
	store := newFakeStore(testAgent())
	store.agent.ErrorCount = 1
	o := newOrchestrator(store, &fakeQuotes{quotes: map[string]market.Quote{}}, &fakeEngine{}, &fakeBroker{})

	res, err := o.RunCycle(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Outcome != OutcomeNoMarketData {
		t.Fatalf("outcome=%s", res.Outcome)
	}
	if store.resets != 1 {
		t.Fatal("empty market data is a clean cycle and must reset errors")
	}
}

func TestRunCycleAgentGuards(t *testing.T) {
	store := newFakeStore(testAgent())
	o := newOrchestrator(store, &fakeQuotes{}, &fakeEngine{}, &fakeBroker{})

	if _, err := o.RunCycle(context.Background(), "missing"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("want ErrAgentNotFound, got %v", err)
	}

	store.agent.Status = models.AgentStopped
	if _, err := o.RunCycle(context.Background(), "agent-1"); !errors.Is(err, ErrAgentStopped) {
		t.Fatalf("want ErrAgentStopped, got %v", err)
	}
}

func TestRunCycleRejectsOverlap(t *testing.T) {
	store := newFakeStore(testAgent())
	o := newOrchestrator(store, &fakeQuotes{}, &fakeEngine{}, &fakeBroker{})

	if !o.tryLock("agent-1") {
		t.Fatal("first lock should succeed")
	}
	if _, err := o.RunCycle(context.Background(), "agent-1"); !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("want ErrCycleInProgress, got %v", err)
	}
	o.unlock("agent-1")

	// lock released: next cycle proceeds past the guard
	if _, err := o.RunCycle(context.Background(), "agent-1"); errors.Is(err, ErrCycleInProgress) {
		t.Fatal("lock must be released after a cycle")
	}
}
