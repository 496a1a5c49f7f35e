// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/crmpilot-cli/internal/config"
)

// TestRootCmd_VersionFlag tests if the --version flag works correctly.
func TestRootCmd_VersionFlag(t *testing.T) {
	resetForTest(t)

	// Arrange
	testRootCmd := NewRootCommand()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"--version"})

	// Act
	err := testRootCmd.ExecuteContext(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), Version)
}

// TestRootCmd_NoArgs tests the behavior when no arguments are provided.
func TestRootCmd_NoArgs(t *testing.T) {
	resetForTest(t)

	// Arrange
	testRootCmd := NewRootCommand()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{})

	// Act
	err := testRootCmd.ExecuteContext(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "crmpilot drives a CRM quick create form")
}

// TestRootCmd_ConfigFileReachesSubcommands verifies that PersistentPreRunE
// loads the config file and places the validated configuration in the command
// context where subcommands expect it.
func TestRootCmd_ConfigFileReachesSubcommands(t *testing.T) {
	resetForTest(t)

	configFile := createTempConfig(t, quietLoggerYAML+`
form:
  short_date_layout: 2/1/2006
run:
  parallelism: 3
`)

	testRootCmd := NewRootCommand()
	reportCmd := findSubcommand(t, testRootCmd, "report")

	// Intercept RunE so no store is ever contacted. The test asserts on the
	// config captured from the command context.
	var captured *config.Config
	reportCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		captured = cfg
		return nil
	}

	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"--config", configFile, "report", "--run-id", "run-1"})

	err := testRootCmd.ExecuteContext(context.Background())
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "2/1/2006", captured.Form.ShortDateLayout)
	assert.Equal(t, 3, captured.Run.Parallelism)
	// Values absent from the file keep their defaults.
	assert.True(t, captured.Browser.Headless)
	assert.Equal(t, "json", captured.Report.Format)
}

// TestRootCmd_BadConfigFile ensures an unreadable config file aborts before
// any subcommand runs.
func TestRootCmd_BadConfigFile(t *testing.T) {
	resetForTest(t)

	configFile := createTempConfig(t, "report: [unclosed\n")

	testRootCmd := NewRootCommand()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"--config", configFile, "report", "--run-id", "run-1"})

	err := testRootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestRootCmd_InvalidConfigValues ensures validation failures surface with
// the offending key in the message.
func TestRootCmd_InvalidConfigValues(t *testing.T) {
	resetForTest(t)

	configFile := createTempConfig(t, quietLoggerYAML+`
report:
  format: xml
`)

	testRootCmd := NewRootCommand()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"--config", configFile, "report", "--run-id", "run-1"})

	err := testRootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration missing")
}
