// File: internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/crmpilot-cli/internal/config"
	"github.com/xkilldash9x/crmpilot-cli/internal/pacing"
)

const shutdownTimeout = 15 * time.Second

// testBrowserConfig returns a configuration tuned for fast headless test runs.
func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		Headless:     true,
		WindowWidth:  1280,
		WindowHeight: 800,
		NavTimeout:   30 * time.Second,
		OpTimeout:    10 * time.Second,
		// Prevents crashes from the small default shared memory in containers.
		Args: []string{"--disable-dev-shm-usage"},
	}
}

// testFixture bundles one isolated browser process with its configuration.
type testFixture struct {
	Manager *Manager
	Cfg     config.BrowserConfig
	Pacer   *pacing.Pacer
	RootCtx context.Context
}

// newTestFixture launches a browser for a single test and registers a graceful
// shutdown. Pass a pacing configuration only when the test exercises delays;
// the default is no artificial pacing.
func newTestFixture(t *testing.T, pacingCfg ...config.PacingConfig) *testFixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	cfg := testBrowserConfig()

	pc := config.PacingConfig{Enabled: false}
	if len(pacingCfg) > 0 {
		pc = pacingCfg[0]
	}
	pacer := pacing.New(pc)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	t.Cleanup(rootCancel)

	mgr, err := NewManager(rootCtx, logger, cfg, pacer)
	require.NoError(t, err, "failed to launch test browser")
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mgr.Shutdown(shutdownCtx); err != nil {
			t.Logf("browser shutdown reported: %v", err)
		}
	})

	return &testFixture{Manager: mgr, Cfg: cfg, Pacer: pacer, RootCtx: rootCtx}
}

// newTestSession opens a raw session (no manager wrapper) so tests in this
// package can reach its internals. Close is registered on test cleanup.
func (f *testFixture) newTestSession(t *testing.T) *Session {
	t.Helper()

	s, err := newSession(f.Manager.allocatorCtx, zaptest.NewLogger(t), f.Cfg, f.Pacer)
	require.NoError(t, err, "failed to open session tab")
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.Close(closeCtx)
	})
	return s
}

// createStaticTestServer serves the given HTML for every request.
func createStaticTestServer(t *testing.T, htmlContent string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, htmlContent)
	}))
	t.Cleanup(server.Close)
	return server
}
