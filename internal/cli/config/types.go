// Package config provides configuration management for the cellgen CLI.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/cellgen/pkg/profile"

	// Builtin profiles register themselves via init()
	_ "github.com/leapstack-labs/cellgen/pkg/profiles/c"
	_ "github.com/leapstack-labs/cellgen/pkg/profiles/python"
)

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory of the config file, or the working
	// directory when there is none.
	ProjectRoot string `koanf:"-"`

	OutputFormat  string `koanf:"output"`
	Verbose       bool   `koanf:"verbose"`
	LogLevel      string `koanf:"log_level"`
	OutDir        string `koanf:"out_dir"`
	InterfaceFile string `koanf:"interface_file"`
	HistoryPath   string `koanf:"history_path"`
	Concurrency   int    `koanf:"concurrency"`

	// Profile lists the profiles generate emits code for.
	Profile []string `koanf:"profile"`
	// Externals lists component.variable paths computed by the
	// external-variable callback.
	Externals []string `koanf:"externals"`
	// Untrack lists component.variable paths or untrack selectors.
	Untrack []string `koanf:"untrack"`
	// Profiles holds per-profile overrides keyed by profile name.
	Profiles map[string]profile.Overrides `koanf:"profiles"`
}

// Default configuration values.
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultProfile     = "c"
	DefaultHistoryFile = ".cellgen/history.db"
	DefaultLogLevel    = "warn"
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputFormat != "" && !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	for name := range c.Profiles {
		if _, err := profile.Get(name); err != nil {
			return fmt.Errorf("overrides for %q: %w", name, err)
		}
	}
	return nil
}

// Level returns the log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ResolveProfiles returns the selected profiles with their overrides applied.
func (c *Config) ResolveProfiles() ([]*profile.Profile, error) {
	names := c.Profile
	if len(names) == 0 {
		names = []string{DefaultProfile}
	}
	out := make([]*profile.Profile, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		p, err := profile.Resolve(name, c.Profiles[name])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
