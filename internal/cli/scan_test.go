package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valiqor/valiqor/pkg/scanner"
)

func makeRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	files := map[string]string{
		"main.py":                 "print('hi')\n",
		"prompts/system.txt":      "You are helpful.\n",
		"src/agent.py":            "def run(): pass\n",
		"node_modules/x/index.js": "module.exports = 1\n",
		"image.png":               "not really\n",
	}
	for name, body := range files {
		path := filepath.Join(repo, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return repo
}

func TestScanCommand(t *testing.T) {
	t.Run("writes context map", func(t *testing.T) {
		env := newTestEnv(t)
		repo := makeRepo(t)
		outFile := filepath.Join(t.TempDir(), "map.json")

		out, err := execute(t, env, "", "scan", repo, "--out", outFile)
		require.NoError(t, err)
		assert.Contains(t, out, "Scanned 3 files")
		assert.Contains(t, out, "Found 1 prompt files")

		data, err := os.ReadFile(outFile)
		require.NoError(t, err)

		var cm scanner.ContextMap
		require.NoError(t, json.Unmarshal(data, &cm))
		assert.Equal(t, 3, cm.FileCount)
		require.Len(t, cm.Prompts, 1)
		assert.Equal(t, "prompts/system.txt", cm.Prompts[0].Path)
	})

	t.Run("exclude and max files flags", func(t *testing.T) {
		env := newTestEnv(t)
		repo := makeRepo(t)
		outFile := filepath.Join(t.TempDir(), "map.json")

		out, err := execute(t, env, "", "scan", repo, "--out", outFile, "--exclude", "src/**", "--max-files", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Scanned 1 files")
	})

	t.Run("missing repository", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := execute(t, env, "", "scan", filepath.Join(env.scratch, "nope"), "--out", filepath.Join(t.TempDir(), "m.json"))
		assert.ErrorIs(t, err, scanner.ErrRepoNotFound)
	})
}
