package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateName("app", "checkout-api"))
	assert.NoError(t, v.ValidateName("env", "prod.eu_1"))
	assert.Error(t, v.ValidateName("app", ""))
	assert.Error(t, v.ValidateName("app", "-leading"))
	assert.Error(t, v.ValidateName("app", "../escape"))
}

func TestValidatePolicy(t *testing.T) {
	v := NewValidator()

	t.Run("known policies", func(t *testing.T) {
		assert.NoError(t, v.ValidatePolicy("create_new"))
		assert.NoError(t, v.ValidatePolicy("truncate"))
	})

	t.Run("empty selects default", func(t *testing.T) {
		assert.NoError(t, v.ValidatePolicy(""))
	})

	t.Run("unknown policy", func(t *testing.T) {
		assert.Error(t, v.ValidatePolicy("overwrite"))
	})
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("trace"))
	assert.Error(t, v.ValidateLogLevel(""))
}

func TestValidatePattern(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidatePattern(PatternConfig{Name: "order", Regex: `ORD-\d+`}))
	assert.Error(t, v.ValidatePattern(PatternConfig{Name: "", Regex: `x`}))
	assert.Error(t, v.ValidatePattern(PatternConfig{Name: "empty"}))
	assert.Error(t, v.ValidatePattern(PatternConfig{Name: "broken", Regex: `(?P<`}))
}

func TestValidateScanner(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateScanner(ScannerConfig{MaxFiles: 100, Exclude: []string{"**/*.lock"}}))
	assert.Len(t, v.ValidateScanner(ScannerConfig{MaxFiles: -1}), 1)
	assert.Len(t, v.ValidateScanner(ScannerConfig{MaxFiles: 10, Exclude: []string{"[a"}, Extensions: []string{""}}), 2)
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("valid config", func(t *testing.T) {
		assert.Empty(t, v.ValidateConfig(DefaultConfig()))
	})

	t.Run("multiple errors", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Env = ""
		cfg.Sink.Policy = "bogus"
		cfg.Logging.MaxAge = -1

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 3)
	})
}
