// Package pacing implements the adaptive request governor: a minimum
// inter-request interval that backs off exponentially on explicit
// rate-limit signals and recovers after sustained success.
package pacing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Config holds the governor parameters.
type Config struct {
	// MinDelay is the floor spacing between granted requests.
	MinDelay time.Duration
	// BackoffMultiplier scales the current delay on each rate-limit
	// signal. Must be >= 1.0.
	BackoffMultiplier float64
	// MaxDelay caps the backoff. Must be >= MinDelay.
	MaxDelay time.Duration
	// ResetAfter is the consecutive-success count that restores the
	// delay to MinDelay.
	ResetAfter int
}

func (c Config) validate() error {
	if c.MinDelay < 0 {
		return fmt.Errorf("pacing: min delay must not be negative, got %v", c.MinDelay)
	}
	if c.BackoffMultiplier < 1.0 {
		return fmt.Errorf("pacing: backoff multiplier must be >= 1.0, got %v", c.BackoffMultiplier)
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("pacing: max delay %v below min delay %v", c.MaxDelay, c.MinDelay)
	}
	if c.ResetAfter < 0 {
		return fmt.Errorf("pacing: reset threshold must not be negative, got %d", c.ResetAfter)
	}
	return nil
}

// Governor spaces requests by a mutable current delay. All state is
// guarded by one mutex; Acquire serializes concurrent callers so no two
// grants are ever closer than the delay in force.
type Governor struct {
	mu        sync.Mutex
	cfg       Config
	delay     time.Duration
	successes int
	lastGrant time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// New builds a Governor, rejecting invalid parameter combinations.
func New(cfg Config) (*Governor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Governor{
		cfg:   cfg,
		delay: cfg.MinDelay,
		sleep: sleepCtx,
	}, nil
}

// Acquire blocks until at least the current delay has elapsed since the
// previous grant, then stamps the grant time. The lock is held across
// the wait so concurrent callers queue in arrival order and each is
// spaced from the previous grant, not from a shared snapshot.
func (g *Governor) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastGrant.IsZero() {
		if remaining := g.delay - time.Since(g.lastGrant); remaining > 0 {
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pacing acquire: %w", err)
	}
	g.lastGrant = time.Now()
	return nil
}

// IncreaseBackoff multiplies the current delay, capped at MaxDelay, and
// zeroes the consecutive-success counter. Called on an explicit
// rate-limit signal from upstream.
func (g *Governor) IncreaseBackoff() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = min(time.Duration(float64(g.delay)*g.cfg.BackoffMultiplier), g.cfg.MaxDelay)
	g.successes = 0
}

// RecordSuccess counts one fully successful request; at the configured
// threshold the delay recovers to MinDelay.
func (g *Governor) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.successes++
	if g.successes >= g.cfg.ResetAfter {
		g.resetLocked()
	}
}

// ResetBackoff unconditionally restores the minimum delay.
func (g *Governor) ResetBackoff() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Governor) resetLocked() {
	g.delay = g.cfg.MinDelay
	g.successes = 0
}

// Delay reports the delay currently in force.
func (g *Governor) Delay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing acquire: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
