// File: internal/pacing/pacing.go
// Artificial delays that make driven input resemble a human operator: a
// think-time pause ahead of form level actions and a per-keystroke cadence
// drawn from a normal distribution.
package pacing

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/xkilldash9x/crmpilot-cli/internal/config"
)

// Pacer produces the delays. Safe for use from a single session goroutine;
// the internal rng is guarded so sessions may share one instance.
type Pacer struct {
	cfg config.PacingConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Pacer seeded from the clock.
func New(cfg config.PacingConfig) *Pacer {
	return NewSeeded(cfg, time.Now().UnixNano())
}

// NewSeeded creates a Pacer with a fixed seed for reproducible tests.
func NewSeeded(cfg config.PacingConfig, seed int64) *Pacer {
	return &Pacer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// ThinkTime blocks for the configured think time plus uniform jitter. It
// returns early with the context's error when cancelled. A disabled pacer
// returns immediately.
func (p *Pacer) ThinkTime(ctx context.Context) error {
	if !p.cfg.Enabled {
		return nil
	}

	d := p.cfg.ThinkTime
	if p.cfg.ThinkJitter > 0 {
		p.mu.Lock()
		d += time.Duration(p.rng.Int63n(int64(p.cfg.ThinkJitter)))
		p.mu.Unlock()
	}
	return p.Pause(ctx, d)
}

// KeyDelay returns the pause before the next keystroke: normally distributed
// around the configured mean, clamped to the configured minimum. Zero when
// pacing is disabled.
func (p *Pacer) KeyDelay() time.Duration {
	if !p.cfg.Enabled {
		return 0
	}

	p.mu.Lock()
	norm := p.rng.NormFloat64()
	p.mu.Unlock()

	delayMs := norm*p.cfg.KeyDelayStddevMs + p.cfg.KeyDelayMeanMs
	delayMs = math.Max(p.cfg.KeyDelayMinMs, delayMs)
	return time.Duration(delayMs * float64(time.Millisecond))
}

// Pause sleeps for d, honoring context cancellation.
func (p *Pacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
