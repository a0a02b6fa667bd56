package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

const stopJoinTimeout = 10 * time.Second

type runningStrategy struct {
	engine    *StrategyEngine
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

// Registry tracks running strategy engines, one goroutine each, and enforces
// at most one instance per strategy id.
type Registry struct {
	logger *zap.Logger

	mu      sync.Mutex
	running map[string]*runningStrategy
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger,
		running: make(map[string]*runningStrategy),
	}
}

// Start launches the engine on its own goroutine. Starting an id that is
// already running is an error, never a second instance.
func (r *Registry) Start(strategyID string, engine *StrategyEngine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[strategyID]; ok {
		return domain.Errorf(domain.KindValidation, "registry.Start", "strategy %s is already running", strategyID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs := &runningStrategy{
		engine:    engine,
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	r.running[strategyID] = rs

	go func() {
		defer close(rs.done)
		if err := engine.Run(ctx); err != nil {
			r.logger.Error("strategy engine exited with error",
				zap.String("strategy_id", strategyID), zap.Error(err))
		}
		r.mu.Lock()
		delete(r.running, strategyID)
		r.mu.Unlock()
	}()

	r.logger.Info("strategy started", zap.String("strategy_id", strategyID))
	return nil
}

// Stop signals the engine and joins its goroutine with a bound. The entry is
// removed even when the join times out so the id can be restarted.
func (r *Registry) Stop(strategyID string) error {
	r.mu.Lock()
	rs, ok := r.running[strategyID]
	r.mu.Unlock()
	if !ok {
		return domain.Errorf(domain.KindValidation, "registry.Stop", "strategy %s is not running", strategyID)
	}

	rs.engine.Stop()
	rs.cancel()

	select {
	case <-rs.done:
	case <-time.After(stopJoinTimeout):
		r.logger.Warn("strategy did not stop in time, abandoning goroutine",
			zap.String("strategy_id", strategyID))
	}

	r.mu.Lock()
	delete(r.running, strategyID)
	r.mu.Unlock()

	r.logger.Info("strategy stopped", zap.String("strategy_id", strategyID))
	return nil
}

// IsRunning reports whether the id has a live engine.
func (r *Registry) IsRunning(strategyID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[strategyID]
	return ok
}

// ListActive returns the ids of running strategies.
func (r *Registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.running))
	for id := range r.running {
		ids = append(ids, id)
	}
	return ids
}

// StopAll winds down every running strategy, used on process shutdown.
func (r *Registry) StopAll() {
	for _, id := range r.ListActive() {
		if err := r.Stop(id); err != nil {
			r.logger.Warn("stopping strategy on shutdown failed",
				zap.String("strategy_id", id), zap.Error(err))
		}
	}
}
