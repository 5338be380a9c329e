package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/cybernobie/lapce/internal/logging"
)

// Config holds every setting of a session.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log"`
	Bus       BusConfig       `toml:"bus" yaml:"bus"`
	Highlight HighlightConfig `toml:"highlight" yaml:"highlight"`
	Watch     WatchConfig     `toml:"watch" yaml:"watch"`
	Workspace WorkspaceConfig `toml:"workspace" yaml:"workspace"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`

	// Prefix is printed before every line.
	Prefix string `toml:"prefix" yaml:"prefix"`

	// File redirects output to a file; empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// BusConfig configures the command bus.
type BusConfig struct {
	// Capacity is the number of commands buffered before senders block.
	Capacity int `toml:"capacity" yaml:"capacity"`
}

// HighlightConfig configures background recomputation.
type HighlightConfig struct {
	// Workers is the number of recomputation goroutines.
	Workers int `toml:"workers" yaml:"workers"`

	// Semantic requests semantic tokens after each change.
	Semantic bool `toml:"semantic" yaml:"semantic"`
}

// WatchConfig configures on-disk change detection.
type WatchConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// Debounce is a duration string such as "100ms".
	Debounce string `toml:"debounce" yaml:"debounce"`
}

// WorkspaceConfig configures the initial workspace.
type WorkspaceConfig struct {
	// Path is the workspace folder; empty means the working directory.
	Path string `toml:"path" yaml:"path"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Prefix: "lapce",
		},
		Bus: BusConfig{
			Capacity: 1024,
		},
		Highlight: HighlightConfig{
			Workers:  2,
			Semantic: true,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: "100ms",
		},
	}
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, &ValidationError{Path: "log.level", Value: c.Log.Level, Message: "must be debug, info, warn or error"})
	}
	if c.Bus.Capacity < 1 {
		errs = append(errs, &ValidationError{Path: "bus.capacity", Value: c.Bus.Capacity, Message: "must be at least 1"})
	}
	if c.Highlight.Workers < 1 {
		errs = append(errs, &ValidationError{Path: "highlight.workers", Value: c.Highlight.Workers, Message: "must be at least 1"})
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		errs = append(errs, &ValidationError{Path: "watch.debounce", Value: c.Watch.Debounce, Message: "must be a non-negative duration"})
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// DebounceDelay returns the watch debounce window, or zero when unset or
// invalid.
func (c *Config) DebounceDelay() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
