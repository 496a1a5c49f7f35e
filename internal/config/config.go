// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is populated from the
// config file, environment variables (prefix CRMPILOT) and CLI flags, in
// ascending order of precedence.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Pacing   PacingConfig   `mapstructure:"pacing" yaml:"pacing"`
	Command  CommandConfig  `mapstructure:"command" yaml:"command"`
	Form     FormConfig     `mapstructure:"form" yaml:"form"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Run      RunConfig      `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless     bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath     string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth  int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int           `mapstructure:"window_height" yaml:"window_height"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout" yaml:"nav_timeout"`
	OpTimeout    time.Duration `mapstructure:"op_timeout" yaml:"op_timeout"`
	Args         []string      `mapstructure:"args" yaml:"args"`
}

// PacingConfig tunes the artificial delays that make driven input resemble a
// human operator: the think time ahead of form level actions and the cadence
// of individual keystrokes.
type PacingConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	ThinkTime        time.Duration `mapstructure:"think_time" yaml:"think_time"`
	ThinkJitter      time.Duration `mapstructure:"think_jitter" yaml:"think_jitter"`
	KeyDelayMeanMs   float64       `mapstructure:"key_delay_mean_ms" yaml:"key_delay_mean_ms"`
	KeyDelayStddevMs float64       `mapstructure:"key_delay_stddev_ms" yaml:"key_delay_stddev_ms"`
	KeyDelayMinMs    float64       `mapstructure:"key_delay_min_ms" yaml:"key_delay_min_ms"`
}

// CommandConfig controls the execute-command envelope shared by all form
// operations.
type CommandConfig struct {
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int           `mapstructure:"burst" yaml:"burst"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FormConfig carries form level conventions.
type FormConfig struct {
	// ShortDateLayout is the Go time layout used when typing dates into date
	// fields, e.g. "1/2/2006".
	ShortDateLayout string `mapstructure:"short_date_layout" yaml:"short_date_layout"`
}

// DatabaseConfig holds the database connection details. An empty URL disables
// run persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ReportConfig selects the report output format and destination.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// RunConfig controls scenario execution.
type RunConfig struct {
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
}

// SetDefaults registers the default value for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "crmpilot-cli")
	v.SetDefault("logger.log_file", "crmpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.nav_timeout", "45s")
	v.SetDefault("browser.op_timeout", "15s")

	// -- Pacing --
	v.SetDefault("pacing.enabled", true)
	v.SetDefault("pacing.think_time", "2s")
	v.SetDefault("pacing.think_jitter", "250ms")
	v.SetDefault("pacing.key_delay_mean_ms", 65.0)
	v.SetDefault("pacing.key_delay_stddev_ms", 20.0)
	v.SetDefault("pacing.key_delay_min_ms", 15.0)

	// -- Command --
	v.SetDefault("command.rate_limit", 4.0)
	v.SetDefault("command.burst", 2)
	v.SetDefault("command.timeout", "30s")

	// -- Form --
	v.SetDefault("form.short_date_layout", "1/2/2006")

	// -- Report --
	v.SetDefault("report.format", "json")
	v.SetDefault("report.path", "")

	// -- Run --
	v.SetDefault("run.parallelism", 1)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("database.url", "CRMPILOT_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive")
	}
	if c.Browser.NavTimeout <= 0 || c.Browser.OpTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive durations")
	}
	if err := c.Pacing.Validate(); err != nil {
		return fmt.Errorf("pacing configuration invalid: %w", err)
	}
	if c.Command.RateLimit <= 0 {
		return fmt.Errorf("command.rate_limit must be a positive rate")
	}
	if c.Command.Burst <= 0 {
		return fmt.Errorf("command.burst must be a positive integer")
	}
	if c.Form.ShortDateLayout == "" {
		return fmt.Errorf("form.short_date_layout must not be empty")
	}
	if c.Run.Parallelism <= 0 {
		return fmt.Errorf("run.parallelism must be a positive integer")
	}
	switch c.Report.Format {
	case "json", "junit":
	default:
		return fmt.Errorf("report.format must be one of json, junit (got %q)", c.Report.Format)
	}
	return nil
}

// Validate checks the pacing settings.
func (p *PacingConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.ThinkTime < 0 || p.ThinkJitter < 0 {
		return fmt.Errorf("think_time and think_jitter must not be negative")
	}
	if p.KeyDelayMeanMs < 0 || p.KeyDelayStddevMs < 0 || p.KeyDelayMinMs < 0 {
		return fmt.Errorf("key delay parameters must not be negative")
	}
	return nil
}
