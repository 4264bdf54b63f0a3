package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/pkg/redact"
	"github.com/valiqor/valiqor/pkg/scanner"
	"github.com/valiqor/valiqor/pkg/sink"
)

// Config represents the main Valiqor configuration
type Config struct {
	// Application name recorded in every session
	App string `json:"app" mapstructure:"app"`

	// Environment label (dev, staging, prod, ...)
	Env string `json:"env" mapstructure:"env"`

	// Directory under which the valiqor/ trace directory is created
	ScratchDir string `json:"scratch_dir" mapstructure:"scratch_dir"`

	Sink      SinkConfig      `json:"sink" mapstructure:"sink"`
	Redaction RedactionConfig `json:"redaction" mapstructure:"redaction"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
	Ledger    LedgerConfig    `json:"ledger" mapstructure:"ledger"`
	Scanner   ScannerConfig   `json:"scanner" mapstructure:"scanner"`
}

// SinkConfig controls how trace files are created
type SinkConfig struct {
	Policy string `json:"policy" mapstructure:"policy"` // create_new, truncate
}

// RedactionConfig extends the built-in redaction rules
type RedactionConfig struct {
	ExtraKeys     []string        `json:"extra_keys" mapstructure:"extra_keys"`
	ExtraPatterns []PatternConfig `json:"extra_patterns" mapstructure:"extra_patterns"`
}

// PatternConfig is one named redaction regex
type PatternConfig struct {
	Name  string `json:"name" mapstructure:"name"`
	Regex string `json:"regex" mapstructure:"regex"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
}

// MetricsConfig holds the prometheus textfile export path
type MetricsConfig struct {
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

// LedgerConfig controls the run ledger
type LedgerConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// ScannerConfig holds repository scanner defaults
type ScannerConfig struct {
	MaxFiles   int      `json:"max_files" mapstructure:"max_files"`
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	Exclude    []string `json:"exclude" mapstructure:"exclude"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		App:        "valiqor",
		Env:        "dev",
		ScratchDir: sink.DefaultScratchDir(),
		Sink: SinkConfig{
			Policy: string(sink.PolicyCreateNew),
		},
		Redaction: RedactionConfig{
			ExtraKeys:     []string{},
			ExtraPatterns: []PatternConfig{},
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
		Scanner: ScannerConfig{
			MaxFiles:   scanner.DefaultMaxFiles,
			Extensions: []string{},
			Exclude:    []string{},
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}

// Rules returns the default redaction rules extended with the configured
// keys and patterns
func (c *Config) Rules() (*redact.Rules, error) {
	patterns := make([]redact.Pattern, 0, len(c.Redaction.ExtraPatterns))
	for _, p := range c.Redaction.ExtraPatterns {
		compiled, err := redact.CompilePattern(p.Name, p.Regex)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p.Name, err)
		}
		patterns = append(patterns, compiled)
	}
	return redact.DefaultRules().With(c.Redaction.ExtraKeys, patterns), nil
}

// LedgerPath returns the run ledger location
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(sink.TraceDir(c.ScratchDir), observability.LedgerFile)
}

// ScanOptions returns scanner options built from the configuration
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		Extensions: c.Scanner.Extensions,
		MaxFiles:   c.Scanner.MaxFiles,
		Exclude:    c.Scanner.Exclude,
	}
}
