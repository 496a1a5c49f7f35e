// File: internal/runner/runner.go

// Package runner executes form-fill scenarios end to end. Every scenario gets
// its own isolated browser session; multiple scenarios can run concurrently up
// to the configured parallelism.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/command"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/elements"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
	"github.com/xkilldash9x/crmpilot-cli/internal/quickcreate"
)

// SessionProvider hands out isolated browser sessions. It is satisfied by
// browser.Manager.
type SessionProvider interface {
	NewSession(ctx context.Context) (schemas.FormSession, error)
}

// FormDriver is the page object surface the runner drives. It is satisfied by
// quickcreate.Page.
type FormDriver interface {
	Cancel(ctx context.Context) (bool, error)
	Save(ctx context.Context) (bool, error)
	SelectLookup(ctx context.Context, field string) (bool, error)
	SelectLookupByIndex(ctx context.Context, field string, index int) (bool, error)
	SelectLookupByValue(ctx context.Context, field, value string) (bool, error)
	SetCheckbox(ctx context.Context, field string, check bool) (bool, error)
	SetComposite(ctx context.Context, c schemas.CompositeControl) (bool, error)
	SetDate(ctx context.Context, field string, date time.Time) (bool, error)
	SetField(ctx context.Context, f schemas.Field) (bool, error)
	SetOptionSet(ctx context.Context, o schemas.OptionSet) (bool, error)
	SetText(ctx context.Context, field, value string) (bool, error)
}

// Runner turns scenario definitions into run reports.
type Runner struct {
	log      *zap.Logger
	cfg      *config.Config
	sessions SessionProvider
	store    schemas.RunStore

	// newDriver builds the page object for a session. Replaced in tests.
	newDriver func(sess schemas.FormSession, exec *command.Executor) FormDriver
}

// New creates a Runner. The store may be nil, in which case reports are not
// persisted.
func New(cfg *config.Config, sessions SessionProvider, store schemas.RunStore, log *zap.Logger) *Runner {
	pacer := pacing.New(cfg.Pacing)
	r := &Runner{
		log:      log.Named("runner"),
		cfg:      cfg,
		sessions: sessions,
		store:    store,
	}
	r.newDriver = func(sess schemas.FormSession, exec *command.Executor) FormDriver {
		return quickcreate.New(sess, exec, pacer, quickcreate.Options{ShortDateLayout: cfg.Form.ShortDateLayout}, log)
	}
	return r
}

// Run executes a single scenario in a fresh session and returns its report.
// Step failures are recorded in the report; an error is returned only when the
// scenario could not be executed at all, e.g. the session or the form never
// came up.
func (r *Runner) Run(ctx context.Context, sc schemas.Scenario) (*schemas.RunReport, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID), zap.String("scenario", sc.Name))

	if err := ValidateScenario(sc); err != nil {
		return nil, err
	}

	report := &schemas.RunReport{
		RunID:     runID,
		Scenario:  sc.Name,
		URL:       sc.URL,
		StartedAt: time.Now(),
		Success:   true,
	}

	sess, err := r.sessions.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session for scenario %s: %w", sc.Name, err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			log.Warn("Failed to close session.", zap.Error(cerr))
		}
	}()

	log.Info("Starting scenario run.", zap.String("url", sc.URL), zap.Int("steps", len(sc.Steps)))

	if err := sess.Navigate(ctx, sc.URL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", sc.URL, err)
	}
	if err := sess.WaitVisible(ctx, schemas.ByXPath, elements.XPath(elements.QuickCreateRoot)); err != nil {
		return nil, fmt.Errorf("quick create form did not appear at %s: %w", sc.URL, err)
	}

	var commands []schemas.CommandResult
	exec := command.New(r.cfg.Command, log, command.WithObserver(func(res schemas.CommandResult) {
		commands = append(commands, res)
	}))
	driver := r.newDriver(sess, exec)

	for i, step := range sc.Steps {
		stepStart := time.Now()
		before := len(commands)
		ok, err := r.dispatch(ctx, driver, step)

		result := schemas.StepResult{
			Seq:       i,
			Op:        string(step.Op),
			Field:     step.Field,
			Success:   ok && err == nil,
			StartedAt: stepStart,
		}
		// Prefer the envelope measurement when the step got far enough to
		// produce one; it excludes think time.
		if len(commands) > before {
			last := commands[len(commands)-1]
			result.StartedAt = last.StartedAt
			result.DurationMS = last.Duration.Milliseconds()
		} else {
			result.DurationMS = time.Since(stepStart).Milliseconds()
		}
		if err != nil {
			result.Error = err.Error()
		}
		report.Steps = append(report.Steps, result)

		if !result.Success {
			report.Success = false
			log.Warn("Step failed, aborting remaining steps.",
				zap.Int("seq", i),
				zap.String("op", string(step.Op)),
				zap.String("field", step.Field),
				zap.Error(err))
			break
		}
	}

	report.CompletedAt = time.Now()
	log.Info("Scenario run finished.",
		zap.Bool("success", report.Success),
		zap.Int("steps_executed", len(report.Steps)),
		zap.Duration("elapsed", report.CompletedAt.Sub(report.StartedAt)))

	if r.store != nil {
		if err := r.store.SaveRun(ctx, report); err != nil {
			log.Warn("Failed to persist run report.", zap.Error(err))
		}
	}
	return report, nil
}

// RunAll executes the given scenarios with bounded parallelism. A failing step
// fails its own scenario without stopping the others; an execution error
// cancels the remaining scenarios.
func (r *Runner) RunAll(ctx context.Context, scenarios []schemas.Scenario) ([]*schemas.RunReport, error) {
	reports := make([]*schemas.RunReport, len(scenarios))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Run.Parallelism)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			report, err := r.Run(groupCtx, sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// dispatch maps one step onto the page object operation it names.
func (r *Runner) dispatch(ctx context.Context, driver FormDriver, step schemas.Step) (bool, error) {
	switch step.Op {
	case schemas.StepSetText:
		return driver.SetText(ctx, step.Field, step.Value)
	case schemas.StepSetField:
		return driver.SetField(ctx, schemas.Field{ID: step.Field, Value: step.Value})
	case schemas.StepSetCheckbox:
		if step.Checked == nil {
			return false, fmt.Errorf("op %s requires checked", step.Op)
		}
		return driver.SetCheckbox(ctx, step.Field, *step.Checked)
	case schemas.StepSetDate:
		layout := r.cfg.Form.ShortDateLayout
		date, err := time.Parse(layout, step.Value)
		if err != nil {
			return false, fmt.Errorf("invalid date %q for field %s (expected layout %s): %w", step.Value, step.Field, layout, err)
		}
		return driver.SetDate(ctx, step.Field, date)
	case schemas.StepSetOptionSet:
		return driver.SetOptionSet(ctx, schemas.OptionSet{Name: step.Field, Value: step.Value})
	case schemas.StepSetComposite:
		return driver.SetComposite(ctx, schemas.CompositeControl{ID: step.Field, Fields: step.Fields})
	case schemas.StepSelectLookup:
		switch step.Mode {
		case schemas.LookupByIndex:
			if step.Index == nil {
				return false, fmt.Errorf("lookup mode %s requires an index", step.Mode)
			}
			return driver.SelectLookupByIndex(ctx, step.Field, *step.Index)
		case schemas.LookupByValue:
			return driver.SelectLookupByValue(ctx, step.Field, step.Value)
		case schemas.LookupLast, "":
			return driver.SelectLookup(ctx, step.Field)
		default:
			return false, fmt.Errorf("unknown lookup mode %q", step.Mode)
		}
	case schemas.StepSave:
		return driver.Save(ctx)
	case schemas.StepCancel:
		return driver.Cancel(ctx)
	default:
		return false, fmt.Errorf("unknown step op %q", step.Op)
	}
}
