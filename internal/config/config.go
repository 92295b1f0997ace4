// Package config provides configuration types and defaults for eventlink.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/eventlink/internal/log"
)

// Config holds all configuration options for eventlink.
type Config struct {
	Log     LogConfig       `mapstructure:"log" yaml:"log"`
	Tracing TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Watch   WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Demo    DemoConfig      `mapstructure:"demo" yaml:"demo"`
	Flags   map[string]bool `mapstructure:"flags" yaml:"flags,omitempty"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	// Level is the minimum level written: "debug", "info", "warn" or "error".
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log path used when --debug is set without --log-file.
	File string `mapstructure:"file" yaml:"file"`
}

// TracingConfig holds tracing configuration for dispatch spans.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/eventlink/traces/traces.jsonl
	FilePath string `mapstructure:"file_path" yaml:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// WatchConfig tunes the config file watcher.
type WatchConfig struct {
	// Debounce is how long the watcher waits for writes to settle.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// DedupWindow suppresses repeated reports for the same broken file
	// content within the window. Zero reports every failed reload.
	DedupWindow time.Duration `mapstructure:"dedup_window" yaml:"dedup_window"`
}

// DemoConfig sizes the built-in scenarios.
type DemoConfig struct {
	FSMCycles    int `mapstructure:"fsm_cycles" yaml:"fsm_cycles"`         // Full red-green-yellow cycles
	TreeMaxTicks int `mapstructure:"tree_max_ticks" yaml:"tree_max_ticks"` // Tick limit for the tree command
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/eventlink/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "eventlink", "traces", "traces.jsonl")
}

// ValidateLog checks log configuration for errors.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// ValidateWatch checks watcher configuration for errors.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	if w.DedupWindow < 0 {
		return fmt.Errorf("watch.dedup_window must not be negative, got %s", w.DedupWindow)
	}
	return nil
}

// ValidateDemo checks demo sizing for errors.
func ValidateDemo(d DemoConfig) error {
	if d.FSMCycles < 1 {
		return fmt.Errorf("demo.fsm_cycles must be at least 1, got %d", d.FSMCycles)
	}
	if d.TreeMaxTicks < 1 {
		return fmt.Errorf("demo.tree_max_ticks must be at least 1, got %d", d.TreeMaxTicks)
	}
	return nil
}

// Validate checks every section and returns the first error found.
func (c Config) Validate() error {
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if err := ValidateWatch(c.Watch); err != nil {
		return err
	}
	return ValidateDemo(c.Demo)
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			File:  "debug.log",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Watch: WatchConfig{
			Debounce:    100 * time.Millisecond,
			DedupWindow: 5 * time.Second,
		},
		Demo: DemoConfig{
			FSMCycles:    2,
			TreeMaxTicks: 50,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# eventlink configuration

# Debug log settings (the log is only written with --debug)
log:
  level: info          # debug, info, warn, error
  file: debug.log      # used when --debug is set without --log-file

# Dispatch tracing
tracing:
  enabled: false
  exporter: file       # none, file, stdout, otlp
  # file_path: ~/.config/eventlink/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Config file watcher used by 'eventlink watch'
watch:
  debounce: 100ms      # wait for writes to settle before reloading
  dedup_window: 5s     # report the same broken content once per window (0 reports every time)

# Built-in scenario sizes
demo:
  fsm_cycles: 2        # traffic-light cycles for 'eventlink fsm'
  tree_max_ticks: 50   # tick limit for 'eventlink tree'

# Feature flags
# flags:
#   trace-dispatch: true   # wrap demo dispatches in spans
#   panic-demo: true       # include the panicking-listener scenario in 'eventlink demo'
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
