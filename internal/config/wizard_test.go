package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardRun(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		base := DefaultConfig()
		base.ScratchDir = "/tmp/scratch"

		var out bytes.Buffer
		cfg, err := NewWizard(strings.NewReader("\n\n\n\n\n"), &out).Run(base)

		require.NoError(t, err)
		assert.Equal(t, "valiqor", cfg.App)
		assert.Equal(t, "/tmp/scratch", cfg.ScratchDir)
		assert.Equal(t, "create_new", cfg.Sink.Policy)
		assert.Contains(t, out.String(), "Configuration complete!")
	})

	t.Run("re-prompts on invalid answers", func(t *testing.T) {
		input := strings.Join([]string{
			"bad app", "checkout",
			"prod",
			"/data",
			"append", "truncate",
			"loud", "debug",
		}, "\n") + "\n"

		var out bytes.Buffer
		cfg, err := NewWizard(strings.NewReader(input), &out).Run(nil)

		require.NoError(t, err)
		assert.Equal(t, "checkout", cfg.App)
		assert.Equal(t, "prod", cfg.Env)
		assert.Equal(t, "/data", cfg.ScratchDir)
		assert.Equal(t, "truncate", cfg.Sink.Policy)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 3, strings.Count(out.String(), "Error:"))
	})

	t.Run("does not modify base", func(t *testing.T) {
		base := DefaultConfig()
		_, err := NewWizard(strings.NewReader("other\n\n\n\n\n"), &bytes.Buffer{}).Run(base)
		require.NoError(t, err)
		assert.Equal(t, "valiqor", base.App)
	})

	t.Run("input ends early", func(t *testing.T) {
		_, err := NewWizard(strings.NewReader("app\n"), &bytes.Buffer{}).Run(nil)
		assert.Error(t, err)
	})
}
