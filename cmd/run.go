// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/browser"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/observability"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
	"github.com/xkilldash9x/crmpilot-cli/internal/reporting"
	"github.com/xkilldash9x/crmpilot-cli/internal/runner"
	"github.com/xkilldash9x/crmpilot-cli/internal/store"
)

// runScenariosFn allows tests to intercept the run execution.
var runScenariosFn = runScenarios

// newRunCmd creates and configures the `run` command.
func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [scenario files...]",
		Short: "Executes form-fill scenarios against the quick create form",
		Args:  cobra.MinimumNArgs(1),
		// PreRunE finalizes configuration before the main logic in RunE.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys. This is the idiomatic way to
			// ensure command-line flags override values from the config file
			// and environment variables.
			if err := v.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := v.BindPFlag("run.parallelism", cmd.Flags().Lookup("parallel")); err != nil {
				return err
			}
			if err := v.BindPFlag("database.url", cmd.Flags().Lookup("database-url")); err != nil {
				return err
			}
			if err := v.BindPFlag("pacing.think_time", cmd.Flags().Lookup("think-time")); err != nil {
				return err
			}
			if err := v.BindPFlag("report.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			return v.BindPFlag("report.path", cmd.Flags().Lookup("output"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if _, err := getConfigFromContext(ctx); err != nil {
				return err
			}

			// Re-resolve the config now that the run flags are bound in
			// PreRunE. Viper applies the overrides with the right precedence.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to apply flag overrides: %w", err)
			}

			return runScenariosFn(ctx, logger, cfg, args, cmd.OutOrStdout())
		},
	}

	// Reporting flags.
	runCmd.Flags().StringP("output", "o", "", "Output file path for the report. If unset, the report is printed to stdout.")
	runCmd.Flags().StringP("format", "f", "json", "Format for the output report ('json', 'junit'). (Overrides config/env)")

	// Run configuration override flags.
	runCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().IntP("parallel", "j", 0, "Number of scenarios to run concurrently. (Overrides config/env)")
	runCmd.Flags().String("database-url", "", "PostgreSQL URL for run history. (Overrides config/env)")
	runCmd.Flags().Duration("think-time", 0, "Base pause between form steps. (Overrides config/env)")

	return runCmd
}

// runComponents holds the initialized services for a scenario run.
type runComponents struct {
	Browser  *browser.Manager
	RunStore schemas.RunStore
	DBPool   *pgxpool.Pool
}

// Shutdown gracefully closes all components.
func (rc *runComponents) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if rc.Browser != nil {
		if err := rc.Browser.Shutdown(shutdownCtx); err != nil {
			observability.GetLogger().Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}
	if rc.DBPool != nil {
		rc.DBPool.Close()
	}
}

// initializeRunComponents handles dependency injection for the run command.
func initializeRunComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runComponents, error) {
	components := &runComponents{}

	// The run store is optional. Without a database URL the scenarios still
	// execute, they just leave no history behind.
	if cfg.Database.URL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		components.DBPool = dbPool

		runStore, err := store.New(ctx, dbPool, logger)
		if err != nil {
			return components, fmt.Errorf("failed to initialize run store: %w", err)
		}
		components.RunStore = runStore
	}

	pacer := pacing.New(cfg.Pacing)
	manager, err := browser.NewManager(ctx, logger, cfg.Browser, pacer)
	if err != nil {
		return components, fmt.Errorf("failed to launch browser: %w", err)
	}
	components.Browser = manager

	return components, nil
}

// runScenarios contains the core, testable logic for the run command. It
// loads every scenario file up front, executes them through the runner, and
// renders the finished runs through the configured reporter.
func runScenarios(ctx context.Context, logger *zap.Logger, cfg *config.Config, paths []string, out io.Writer) error {
	scenarios := make([]schemas.Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := runner.LoadScenarioFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	logger.Info("Starting scenario run",
		zap.Int("scenarios", len(scenarios)),
		zap.Int("parallelism", cfg.Run.Parallelism),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	components, err := initializeRunComponents(ctx, cfg, logger)
	if err != nil {
		if components != nil {
			components.Shutdown()
		}
		return fmt.Errorf("failed to initialize run components: %w", err)
	}
	defer components.Shutdown()

	r := runner.New(cfg, components.Browser, components.RunStore, logger)
	reports, err := r.RunAll(ctx, scenarios)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Run aborted gracefully")
			return fmt.Errorf("run aborted by user signal")
		}
		logger.Error("Scenario run failed", zap.Error(err))
		return err
	}

	if err := writeReports(cfg, logger, reports); err != nil {
		return err
	}

	failed := 0
	for _, report := range reports {
		status := "PASS"
		if !report.Success {
			failed++
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s (%d steps, run %s)\n", status, report.Scenario, len(report.Steps), report.RunID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(reports))
	}
	return nil
}

// writeReports renders the finished runs through the configured reporter.
func writeReports(cfg *config.Config, logger *zap.Logger, reports []*schemas.RunReport) error {
	reporter, err := reporting.New(cfg.Report.Format, cfg.Report.Path, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	for _, report := range reports {
		if err := reporter.Write(report); err != nil {
			if closeErr := reporter.Close(); closeErr != nil {
				logger.Warn("Failed to close reporter cleanly.", zap.Error(closeErr))
			}
			return fmt.Errorf("failed to buffer run report: %w", err)
		}
	}

	// The reporters encode on Close, so a close failure loses the report.
	if err := reporter.Close(); err != nil {
		return err
	}

	if cfg.Report.Path != "" {
		logger.Info("Report successfully written to file", zap.String("path", cfg.Report.Path))
	}
	return nil
}
