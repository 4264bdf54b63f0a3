package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the directory created under the scratch dir
const DirName = "valiqor"

// FilePattern matches trace file names inside TraceDir
const FilePattern = "trace_*.jsonl"

// DefaultScratchDir returns the OS temporary directory
func DefaultScratchDir() string {
	return os.TempDir()
}

// TraceDir returns the directory holding trace files
func TraceDir(scratchDir string) string {
	if scratchDir == "" {
		scratchDir = DefaultScratchDir()
	}
	return filepath.Join(scratchDir, DirName)
}

// TracePath returns <scratchDir>/valiqor/trace_<runID>_<YYYYmmdd_HHMMSS>.jsonl
// with the timestamp in UTC.
func TracePath(scratchDir, runID string, startedAt time.Time) string {
	name := fmt.Sprintf("trace_%s_%s.jsonl", runID, startedAt.UTC().Format("20060102_150405"))
	return filepath.Join(TraceDir(scratchDir), name)
}

// ListTraces returns trace files under scratchDir, oldest name first
func ListTraces(scratchDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(TraceDir(scratchDir), FilePattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list trace files: %w", err)
	}
	return matches, nil
}

// RunIDFromPath extracts the run id from a trace file name
func RunIDFromPath(path string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	if !strings.HasPrefix(base, "trace_") {
		return "", false
	}
	base = strings.TrimPrefix(base, "trace_")
	// the timestamp suffix is _YYYYmmdd_HHMMSS
	if len(base) < 17 || base[len(base)-16] != '_' {
		return "", false
	}
	return base[:len(base)-16], true
}
