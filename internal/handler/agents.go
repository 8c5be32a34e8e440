package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vikram-agentic/tradex/internal/agent"
	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/repository"
)

// AgentScheduler is the scheduler surface the handler drives on lifecycle
// changes.
type AgentScheduler interface {
	Start(agentID string)
	Stop(agentID string)
	Running(agentID string) bool
}

// CycleRunner triggers one on-demand trading cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, agentID string) (agent.CycleResult, error)
}

type AgentHandler struct {
	Repo      repository.Repository
	Scheduler AgentScheduler
	Runner    CycleRunner
}

func (h *AgentHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/agents")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/start", h.start)
	g.POST("/:id/pause", h.pause)
	g.POST("/:id/stop", h.stop)
	g.POST("/:id/run", h.run)
	g.GET("/:id/positions", h.positions)

	r.GET("/api/v1/leaderboard", h.leaderboard)
}

type createAgentRequest struct {
	UserID          string  `json:"user_id" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Strategy        string  `json:"strategy" binding:"required"`
	MarketType      string  `json:"market_type"`
	InitialBalance  string  `json:"initial_balance" binding:"required"`
	RiskTolerance   int     `json:"risk_tolerance"`
	MaxPositionSize *string `json:"max_position_size"`
	TradingMode     string  `json:"trading_mode"`
}

var validStrategies = map[string]bool{
	models.StrategyMomentum:      true,
	models.StrategyMeanReversion: true,
	models.StrategySentiment:     true,
	models.StrategyScalping:      true,
	models.StrategySwing:         true,
	models.StrategyArbitrage:     true,
}

var validMarketTypes = map[string]bool{
	models.MarketStocks: true,
	models.MarketCrypto: true,
	models.MarketBoth:   true,
}

func (h *AgentHandler) create(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !validStrategies[req.Strategy] {
		Error(c, http.StatusBadRequest, "invalid strategy", nil)
		return
	}
	marketType := req.MarketType
	if marketType == "" {
		marketType = models.MarketStocks
	}
	if !validMarketTypes[marketType] {
		Error(c, http.StatusBadRequest, "invalid market_type", nil)
		return
	}
	balance, err := decimal.NewFromString(req.InitialBalance)
	if err != nil || !balance.IsPositive() {
		Error(c, http.StatusBadRequest, "initial_balance must be a positive number", nil)
		return
	}
	maxPosition := decimal.NewFromFloat(0.1)
	if req.MaxPositionSize != nil {
		maxPosition, err = decimal.NewFromString(*req.MaxPositionSize)
		if err != nil || !maxPosition.IsPositive() || maxPosition.GreaterThan(decimal.NewFromInt(1)) {
			Error(c, http.StatusBadRequest, "max_position_size must be in (0, 1]", nil)
			return
		}
	}
	riskTolerance := req.RiskTolerance
	if riskTolerance == 0 {
		riskTolerance = 5
	}
	if riskTolerance < 1 || riskTolerance > 10 {
		Error(c, http.StatusBadRequest, "risk_tolerance must be 1-10", nil)
		return
	}
	tradingMode := req.TradingMode
	if tradingMode == "" {
		tradingMode = models.TradingModePaper
	}
	if tradingMode != models.TradingModePaper && tradingMode != models.TradingModeLive {
		Error(c, http.StatusBadRequest, "invalid trading_mode", nil)
		return
	}

	item := &models.Agent{
		UserID:          req.UserID,
		Name:            strings.TrimSpace(req.Name),
		Strategy:        req.Strategy,
		MarketType:      marketType,
		InitialBalance:  balance,
		Balance:         balance,
		RiskTolerance:   riskTolerance,
		MaxPositionSize: maxPosition,
		TradingMode:     tradingMode,
		Status:          models.AgentPaused,
	}
	if err := h.Repo.CreateAgent(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AgentHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAgentsParams{
		Limit:   limit,
		Offset:  offset,
		UserID:  strQueryPtr(c, "user_id"),
		Status:  strQueryPtr(c, "status"),
		OrderBy: "created_at",
		Asc:     boolPtr(false),
	}
	items, err := h.Repo.ListAgents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAgents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *AgentHandler) get(c *gin.Context) {
	item, ok := h.loadAgent(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

func (h *AgentHandler) remove(c *gin.Context) {
	item, ok := h.loadAgent(c)
	if !ok {
		return
	}
	if h.Scheduler != nil {
		h.Scheduler.Stop(item.ID)
	}
	if err := h.Repo.DeleteAgent(c.Request.Context(), item.ID); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": item.ID}, nil)
}

func (h *AgentHandler) start(c *gin.Context) {
	h.transition(c, models.AgentActive)
}

func (h *AgentHandler) pause(c *gin.Context) {
	h.transition(c, models.AgentPaused)
}

func (h *AgentHandler) stop(c *gin.Context) {
	h.transition(c, models.AgentStopped)
}

func (h *AgentHandler) transition(c *gin.Context, status string) {
	item, ok := h.loadAgent(c)
	if !ok {
		return
	}
	if item.Status == status {
		Ok(c, item, nil)
		return
	}
	if err := h.Repo.UpdateAgentStatus(c.Request.Context(), item.ID, status); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if status == models.AgentActive {
		// a fresh start clears any stale error budget
		if err := h.Repo.ResetAgentErrors(c.Request.Context(), item.ID); err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
	}
	if h.Scheduler != nil {
		if status == models.AgentActive {
			h.Scheduler.Start(item.ID)
		} else {
			h.Scheduler.Stop(item.ID)
		}
	}
	item.Status = status
	Ok(c, item, nil)
}

func (h *AgentHandler) run(c *gin.Context) {
	item, ok := h.loadAgent(c)
	if !ok {
		return
	}
	if h.Runner == nil {
		Error(c, http.StatusServiceUnavailable, "orchestrator unavailable", nil)
		return
	}
	res, err := h.Runner.RunCycle(c.Request.Context(), item.ID)
	switch {
	case err == nil:
		Ok(c, res, nil)
	case errors.Is(err, agent.ErrCycleInProgress):
		Error(c, http.StatusConflict, "cycle already in progress", nil)
	case errors.Is(err, agent.ErrAgentStopped):
		Error(c, http.StatusConflict, "agent is stopped", nil)
	case errors.Is(err, agent.ErrAgentNotFound):
		Error(c, http.StatusNotFound, "agent not found", nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}

func (h *AgentHandler) positions(c *gin.Context) {
	item, ok := h.loadAgent(c)
	if !ok {
		return
	}
	positions, err := h.Repo.ListPositionsByAgent(c.Request.Context(), item.ID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, positions, nil)
}

func (h *AgentHandler) leaderboard(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	items, err := h.Repo.ListAgentLeaderboard(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	type entry struct {
		models.Agent
		WinRate float64 `json:"win_rate"`
		ROI     float64 `json:"roi"`
	}
	resp := make([]entry, 0, len(items))
	for _, a := range items {
		resp = append(resp, entry{Agent: a, WinRate: a.WinRate(), ROI: a.ROI()})
	}
	Ok(c, resp, nil)
}

func (h *AgentHandler) loadAgent(c *gin.Context) (*models.Agent, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return nil, false
	}
	item, err := h.Repo.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	if item == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return nil, false
	}
	return item, true
}
