package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valiqor/valiqor/pkg/redact"
	"github.com/valiqor/valiqor/pkg/scanner"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "valiqor", cfg.App)
	assert.Equal(t, "dev", cfg.Env)
	assert.NotEmpty(t, cfg.ScratchDir)
	assert.Equal(t, "create_new", cfg.Sink.Policy)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, scanner.DefaultMaxFiles, cfg.Scanner.MaxFiles)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"empty app", func(c *Config) { c.App = "" }, "app cannot be empty"},
		{"app with slash", func(c *Config) { c.App = "a/b" }, "invalid app"},
		{"bad env", func(c *Config) { c.Env = "prod env" }, "invalid env"},
		{"empty scratch dir", func(c *Config) { c.ScratchDir = " " }, "scratch_dir"},
		{"unknown policy", func(c *Config) { c.Sink.Policy = "append" }, "unknown sink policy"},
		{"truncate policy", func(c *Config) { c.Sink.Policy = "truncate" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"negative max size", func(c *Config) { c.Logging.MaxSize = -1 }, "logging.max_size"},
		{"bad pattern", func(c *Config) {
			c.Redaction.ExtraPatterns = []PatternConfig{{Name: "broken", Regex: "("}}
		}, "redaction pattern broken"},
		{"empty extra key", func(c *Config) { c.Redaction.ExtraKeys = []string{" "} }, "extra_keys[0]"},
		{"negative max files", func(c *Config) { c.Scanner.MaxFiles = -5 }, "scanner.max_files"},
		{"bad exclude", func(c *Config) { c.Scanner.Exclude = []string{"[x"} }, "scanner.exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App = ""
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app cannot be empty")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfigRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redaction.ExtraKeys = []string{"Customer_ID"}
	cfg.Redaction.ExtraPatterns = []PatternConfig{{Name: "order", Regex: `ORD-\d{6}`}}

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.True(t, rules.IsSensitiveKey("customer_id"))
	assert.True(t, rules.IsSensitiveKey("password"))

	engine := redact.NewEngine(rules)
	assert.Equal(t, "order [REDACTED] shipped", engine.SanitizeString("order ORD-123456 shipped"))

	cfg.Redaction.ExtraPatterns = []PatternConfig{{Name: "bad", Regex: "(["}}
	_, err = cfg.Rules()
	assert.Error(t, err)
}

func TestConfigLedgerPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScratchDir = "/tmp/scratch"
	assert.Equal(t, filepath.Join("/tmp/scratch", "valiqor", "runs.jsonl"), cfg.LedgerPath())

	cfg.Ledger.Path = "/var/lib/valiqor/runs.jsonl"
	assert.Equal(t, "/var/lib/valiqor/runs.jsonl", cfg.LedgerPath())
}

func TestConfigScanOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scanner.MaxFiles = 10
	cfg.Scanner.Exclude = []string{"vendor/**"}

	opts := cfg.ScanOptions()
	assert.Equal(t, 10, opts.MaxFiles)
	assert.Equal(t, []string{"vendor/**"}, opts.Exclude)
}
