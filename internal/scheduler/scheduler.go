package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vikram-agentic/tradex/internal/agent"
)

// Runner is the slice of the orchestrator the scheduler needs.
type Runner interface {
	RunCycle(ctx context.Context, agentID string) (agent.CycleResult, error)
}

// ActiveAgents lists the agents that should currently be cycling.
type ActiveAgents interface {
	ListActiveAgentIDs(ctx context.Context) ([]string, error)
}

// Scheduler runs one ticker goroutine per active agent. Reconcile diffs the
// running set against the store so agents started, paused, or deleted through
// the API converge within one reconcile interval.
type Scheduler struct {
	Runner   Runner
	Store    ActiveAgents
	Interval time.Duration
	Logger   *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	baseCtx context.Context
	wg      sync.WaitGroup
}

func New(runner Runner, store ActiveAgents, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		Runner:   runner,
		Store:    store,
		Interval: interval,
		Logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
		baseCtx:  context.Background(),
	}
}

// SetBaseContext sets the context agent loops inherit. Call before Start.
func (s *Scheduler) SetBaseContext(ctx context.Context) {
	if ctx != nil {
		s.baseCtx = ctx
	}
}

// Start begins cycling the agent. The first cycle fires immediately, then on
// every tick. Starting an already-running agent is a no-op.
func (s *Scheduler) Start(agentID string) {
	s.mu.Lock()
	if _, running := s.cancels[agentID]; running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[agentID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx, agentID)
	if s.Logger != nil {
		s.Logger.Info("agent scheduled", zap.String("agent_id", agentID))
	}
}

// Stop cancels the agent's loop. Safe to call for agents that are not running.
func (s *Scheduler) Stop(agentID string) {
	s.mu.Lock()
	cancel, running := s.cancels[agentID]
	if running {
		delete(s.cancels, agentID)
	}
	s.mu.Unlock()
	if !running {
		return
	}
	cancel()
	if s.Logger != nil {
		s.Logger.Info("agent unscheduled", zap.String("agent_id", agentID))
	}
}

// Running reports whether the agent currently has a loop.
func (s *Scheduler) Running(agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cancels[agentID]
	return ok
}

// Reconcile converges the running set with the store's active agents.
func (s *Scheduler) Reconcile(ctx context.Context) {
	ids, err := s.Store.ListActiveAgentIDs(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("reconcile: list active agents", zap.Error(err))
		}
		return
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	var stale []string
	for id := range s.cancels {
		if _, ok := want[id]; !ok {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.Stop(id)
	}
	for _, id := range ids {
		s.Start(id)
	}
}

// Shutdown stops every loop and waits for in-flight cycles to return.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, agentID string) {
	defer s.wg.Done()

	s.runOnce(ctx, agentID)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, agentID)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, agentID string) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.Runner.RunCycle(ctx, agentID)
	switch {
	case err == nil:
		if s.Logger != nil {
			s.Logger.Debug("cycle complete",
				zap.String("agent_id", agentID),
				zap.String("outcome", res.Outcome))
		}
		if res.Paused {
			s.Stop(agentID)
		}
	case errors.Is(err, agent.ErrCycleInProgress):
		// previous tick still running, skip
	case errors.Is(err, agent.ErrAgentNotFound), errors.Is(err, agent.ErrAgentStopped):
		s.Stop(agentID)
	default:
		if s.Logger != nil {
			s.Logger.Error("cycle error",
				zap.String("agent_id", agentID), zap.Error(err))
		}
	}
}
