// Package scheduler runs enabled alerts on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AlertRunner sweeps every enabled alert once.
type AlertRunner interface {
	RunEnabledAlerts(ctx context.Context) error
}

// Scheduler wraps robfig/cron and fires alert sweeps.
type Scheduler struct {
	cron   *cron.Cron
	runner AlertRunner
	spec   string
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler firing on the given cron spec, e.g. "@hourly"
// or "@every 30m".
func New(runner AlertRunner, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the sweep and starts the cron loop. The first sweep
// runs immediately so a fresh deployment does not wait for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("register cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	go s.sweep(ctx)
	return nil
}

// Stop shuts the cron loop down and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// sweep runs all enabled alerts, skipping the cycle if the previous one
// is still going.
func (s *Scheduler) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous sweep still running, skipping cycle")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	if err := s.runner.RunEnabledAlerts(ctx); err != nil {
		s.logger.Error("alert sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("alert sweep finished")
}
