// File: cmd/report.go
package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/crmpilot-cli/api/schemas"
	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/observability"
	"github.com/xkilldash9x/crmpilot-cli/internal/reporting"
	"github.com/xkilldash9x/crmpilot-cli/internal/store"
)

// storeProvider defines an interface for components that can create a run
// store (schemas.RunStore). This abstraction is crucial for testing, as it
// allows for the injection of a mock store instead of a live database
// connection.
type storeProvider interface {
	// Create initializes and returns a schemas.RunStore, a cleanup function
	// to release resources, and an error if the creation fails.
	Create(ctx context.Context, cfg *config.Config) (schemas.RunStore, func(), error)
}

// defaultStoreProvider is the concrete implementation of storeProvider used in
// production. It establishes a real connection to the PostgreSQL database.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates a new
// defaultStoreProvider. It provides a clean way to instantiate the production
// store provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to the PostgreSQL database using the provided configuration,
// initializes the run store, and returns it along with a cleanup function to
// close the database connection pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg *config.Config) (schemas.RunStore, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (CRMPILOT_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	runStore, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize run store: %w", err)
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed (via report cleanup).")
	}
	return runStore, cleanup, nil
}

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var runID string
	var outputPath string
	var format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Re-emit the stored report for a completed run",
		Long: `Loads the step-by-step history of a completed run from the database and
renders it through the configured reporter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Report.Format
			}

			// Delegate to the testable core logic function.
			return runFetchReport(ctx, logger, cfg, runID, outputPath, format, provider)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The ID of the run to report on (required)")
	_ = reportCmd.MarkFlagRequired("run-id")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "", "Format for the output report ('json', 'junit'). Defaults to the configured format.")

	return reportCmd
}

// runFetchReport contains the core, testable logic for the report command.
func runFetchReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg *config.Config,
	runID, outputPath, format string,
	provider storeProvider,
) error {
	logger.Info("Loading stored run", zap.String("run_id", runID))

	// Initialize the store through the injected provider (real or mock).
	runStore, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	// Ensure cleanup is not nil before deferring (safe for mocks that might
	// not provide a cleanup).
	if cleanup != nil {
		defer cleanup()
	}

	report, err := runStore.GetRun(ctx, runID)
	if err != nil {
		logger.Error("Failed to load run", zap.Error(err), zap.String("run_id", runID))
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	reporter, err := reporting.New(format, outputPath, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	if err := reporter.Write(report); err != nil {
		if closeErr := reporter.Close(); closeErr != nil {
			logger.Warn("Failed to close reporter cleanly.", zap.Error(closeErr))
		}
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return err
	}

	if outputPath != "" {
		logger.Info("Report successfully written to file", zap.String("path", outputPath))
	}
	return nil
}
