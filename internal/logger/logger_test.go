package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create logger with console output", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Config{
			Level:   "info",
			Console: true,
			Pretty:  false,
			Output:  &buf,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Str("run_id", "run_abc").Msg("hello")
		logger.Debug().Msg("filtered")

		assert.Contains(t, buf.String(), `"run_id":"run_abc"`)
		assert.Contains(t, buf.String(), `"message":"hello"`)
		assert.NotContains(t, buf.String(), "filtered")
	})

	t.Run("create logger with file output", func(t *testing.T) {
		tmpDir := t.TempDir()
		logFile := filepath.Join(tmpDir, "logs", "test.log")

		cfg := Config{
			Level:   "debug",
			File:    logFile,
			Console: false,
		}

		logger, err := New(cfg)
		require.NoError(t, err)

		logger.Debug().Msg("test message")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("create logger with rotating file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		logger, err := New(Config{Level: "info", File: logFile, MaxSize: 1})
		require.NoError(t, err)
		defer logger.Close()

		_, ok := logger.file.(*RotatingWriter)
		assert.True(t, ok)
	})

	t.Run("redaction scrubs log lines", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Config{
			Level:     "info",
			Console:   true,
			Output:    &buf,
			Redaction: true,
		}

		logger, err := New(cfg)
		require.NoError(t, err)
		defer logger.Close()
		assert.NotNil(t, logger.redactor)

		logger.Info().Str("auth", "Bearer abcdefgh12345").Msg("calling provider")

		assert.Contains(t, buf.String(), "[REDACTED]")
		assert.NotContains(t, buf.String(), "abcdefgh12345")
		assert.Contains(t, buf.String(), "calling provider")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "chatty", Output: &bytes.Buffer{}})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetZerolog().GetLevel())
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		_, err := New(Config{File: filepath.Join(blocker, "test.log")})
		assert.Error(t, err)
	})
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Console: true, Output: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, buf.String(), `"level":"`+level+`"`)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: true, Output: &buf})
	require.NoError(t, err)
	defer logger.Close()

	child := logger.With().Str("component", "sink").Logger()
	child.Info().Msg("child")

	assert.Contains(t, buf.String(), `"component":"sink"`)
}
