// File: internal/command/command.go
// The execute-command envelope shared by every driven form operation. It
// labels the operation, measures execution time, paces calls through a rate
// limiter and reports the outcome. It never retries; whether a failure is
// worth retrying is the caller's decision.
package command

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
)

// Observer receives the result of every executed command. Installed by the
// runner to collect per-step outcomes.
type Observer func(schemas.CommandResult)

// Executor wraps operations with labeling, timing, pacing and logging.
type Executor struct {
	log      *zap.Logger
	limiter  *rate.Limiter
	timeout  time.Duration
	observer Observer
}

// Option customizes an Executor.
type Option func(*Executor)

// WithObserver installs a result observer.
func WithObserver(fn Observer) Option {
	return func(e *Executor) { e.observer = fn }
}

// New creates an Executor from the command configuration. A non-positive
// rate limit disables pacing.
func New(cfg config.CommandConfig, log *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		log:     log.Named("command"),
		timeout: cfg.Timeout,
	}
	if cfg.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes fn under the envelope: wait for the rate limiter, apply the
// per-command timeout, time the call, log and report the outcome. The
// returned result always carries the label and the measured duration.
func (e *Executor) Run(ctx context.Context, name string, fn func(context.Context) error) schemas.CommandResult {
	result := schemas.CommandResult{Name: name, StartedAt: time.Now()}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			result.Err = err
			result.Error = err.Error()
			e.finish(&result)
			return result
		}
	}

	opCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.log.Debug("Executing command", zap.String("op", name))
	result.StartedAt = time.Now()
	err := fn(opCtx)
	result.Duration = time.Since(result.StartedAt)

	if err != nil {
		result.Err = err
		result.Error = err.Error()
	} else {
		result.Success = true
	}
	e.finish(&result)
	return result
}

func (e *Executor) finish(result *schemas.CommandResult) {
	if result.Success {
		e.log.Debug("Command completed",
			zap.String("op", result.Name),
			zap.Duration("duration", result.Duration))
	} else {
		e.log.Warn("Command failed",
			zap.String("op", result.Name),
			zap.Duration("duration", result.Duration),
			zap.Error(result.Err))
	}
	if e.observer != nil {
		e.observer(*result)
	}
}
