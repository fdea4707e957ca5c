package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application. Input, Output,
// LimitLen and LimitType mirror the positional CLI contract; the rest
// comes from flags, environment or the config file.
type Config struct {
	Input     string `koanf:"input"`     // edge list CSV path
	Output    string `koanf:"output"`    // cycle destination path
	LimitLen  int    `koanf:"limit"`     // max (typed) vertices per cycle, -1 = unlimited
	LimitType string `koanf:"limittype"` // vertex type counted against the limit
	Delimiter string `koanf:"delimiter"` // edge list column separator
	WebMode   bool   `koanf:"web"`
	Port      int    `koanf:"port"`
	Watch     bool   `koanf:"watch"`
	Verbose   bool   `koanf:"verbose"`
	JSONLogs  bool   `koanf:"jsonlogs"`
}

// Load loads configuration from defaults, config file, environment
// variables, and flags. Priority: Flags > Env > Config File > Defaults.
// Positional arguments are applied by the caller on top of the result.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"limit":     -1,
		"limittype": "",
		"delimiter": ";",
		"web":       false,
		"port":      8080,
		"watch":     false,
		"verbose":   false,
		"jsonlogs":  false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Optional config file; absence is not an error.
	_ = k.Load(file.Provider("cycle-analyzer.toml"), toml.Parser())

	// Environment, e.g. CYCLE_ANALYZER_PORT=9090.
	if err := k.Load(env.Provider("CYCLE_ANALYZER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "CYCLE_ANALYZER_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DelimiterRune validates the configured delimiter and returns it.
func (c *Config) DelimiterRune() (rune, error) {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r, nil
}

// RunLogPath returns the diagnostics log path derived from the output
// destination.
func (c *Config) RunLogPath() string {
	if c.Output == "" {
		return ""
	}
	return c.Output + ".log"
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
