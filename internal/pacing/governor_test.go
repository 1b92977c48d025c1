package pacing

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		MinDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxDelay:          80 * time.Millisecond,
		ResetAfter:        3,
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative min delay", func(c *Config) { c.MinDelay = -time.Second }},
		{"multiplier below one", func(c *Config) { c.BackoffMultiplier = 0.5 }},
		{"max below min", func(c *Config) { c.MaxDelay = time.Millisecond }},
		{"negative threshold", func(c *Config) { c.ResetAfter = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
		})
	}
}

func TestAcquireSpacesSequentialCalls(t *testing.T) {
	t.Parallel()

	const delay = 25 * time.Millisecond
	g, err := New(Config{MinDelay: delay, BackoffMultiplier: 2, MaxDelay: time.Second, ResetAfter: 5})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, g.Acquire(ctx))
	start := time.Now()
	require.NoError(t, g.Acquire(ctx))
	// Allow a small scheduling epsilon below the nominal delay.
	require.GreaterOrEqual(t, time.Since(start), delay-5*time.Millisecond)
}

func TestBackoffMultipliesAndCaps(t *testing.T) {
	t.Parallel()

	g, err := New(validConfig())
	require.NoError(t, err)

	require.Equal(t, 10*time.Millisecond, g.Delay())
	g.IncreaseBackoff()
	require.Equal(t, 20*time.Millisecond, g.Delay())
	g.IncreaseBackoff()
	require.Equal(t, 40*time.Millisecond, g.Delay())
	g.IncreaseBackoff()
	require.Equal(t, 80*time.Millisecond, g.Delay())
	// Capped at max.
	g.IncreaseBackoff()
	require.Equal(t, 80*time.Millisecond, g.Delay())
}

func TestRecoveryAfterThresholdSuccesses(t *testing.T) {
	t.Parallel()

	g, err := New(validConfig())
	require.NoError(t, err)

	g.IncreaseBackoff()
	g.IncreaseBackoff()
	require.Equal(t, 40*time.Millisecond, g.Delay())

	g.RecordSuccess()
	g.RecordSuccess()
	require.Equal(t, 40*time.Millisecond, g.Delay())
	g.RecordSuccess()
	require.Equal(t, 10*time.Millisecond, g.Delay())
}

func TestBackoffResetsSuccessCounter(t *testing.T) {
	t.Parallel()

	g, err := New(validConfig())
	require.NoError(t, err)

	g.IncreaseBackoff()
	g.RecordSuccess()
	g.RecordSuccess()
	// A fresh rate-limit signal discards accumulated successes.
	g.IncreaseBackoff()
	g.RecordSuccess()
	g.RecordSuccess()
	require.Equal(t, 40*time.Millisecond, g.Delay())
	g.RecordSuccess()
	require.Equal(t, 10*time.Millisecond, g.Delay())
}

func TestResetBackoffUnconditional(t *testing.T) {
	t.Parallel()

	g, err := New(validConfig())
	require.NoError(t, err)

	g.IncreaseBackoff()
	g.IncreaseBackoff()
	g.ResetBackoff()
	require.Equal(t, 10*time.Millisecond, g.Delay())
}

func TestAcquireSerializesConcurrentCallers(t *testing.T) {
	t.Parallel()

	const (
		callers = 5
		delay   = 15 * time.Millisecond
	)
	g, err := New(Config{MinDelay: delay, BackoffMultiplier: 1, MaxDelay: delay, ResetAfter: 1})
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(context.Background()))
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, grants, callers)
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })
	for i := 1; i < len(grants); i++ {
		gap := grants[i].Sub(grants[i-1])
		require.GreaterOrEqual(t, gap, delay-5*time.Millisecond,
			"grants %d and %d too close: %v", i-1, i, gap)
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	t.Parallel()

	g, err := New(Config{MinDelay: time.Minute, BackoffMultiplier: 2, MaxDelay: time.Hour, ResetAfter: 1})
	require.NoError(t, err)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = g.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
