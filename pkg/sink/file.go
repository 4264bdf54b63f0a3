// Package sink writes trace records to an append-only JSON-lines file.
//
// Every Append is one write of one newline-terminated line followed by an
// fsync, so a crash leaves at most a partial final line behind and never
// loses a line that Append reported as written.
package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/valiqor/valiqor/internal/observability"
)

// Policy decides what happens when the target file already exists
type Policy string

const (
	// PolicyCreateNew fails when the file exists
	PolicyCreateNew Policy = "create_new"
	// PolicyTruncate empties an existing file
	PolicyTruncate Policy = "truncate"
)

// ParsePolicy validates a policy name. Empty selects PolicyCreateNew.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyCreateNew:
		return PolicyCreateNew, nil
	case PolicyTruncate:
		return PolicyTruncate, nil
	}
	return "", fmt.Errorf("unknown sink policy %q", s)
}

// File is an open trace file
type File struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	closed bool
}

// Create makes parent directories (0700) and opens path (0600) for appending.
func Create(path string, policy Policy) (*File, error) {
	observability.EnsureRegistered()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		observability.RecordSinkError("create")
		return nil, &IOError{Op: "create", Path: path, Err: fmt.Errorf("failed to create trace directory: %w", err)}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	switch policy {
	case PolicyTruncate:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		observability.RecordSinkError("create")
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	return &File{path: path, f: f}, nil
}

// Path returns the file location
func (f *File) Path() string {
	return f.path
}

// Append encodes v as one JSON line, writes it and syncs it to disk.
func (f *File) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		observability.RecordSinkError("encode")
		return &IOError{Op: "encode", Path: f.path, Err: err}
	}
	// json.Marshal escapes newlines inside strings, so data is a single line
	line := bytes.TrimSpace(data)
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return &IOError{Op: "write", Path: f.path, Err: os.ErrClosed}
	}

	start := time.Now()
	if _, err := f.f.Write(line); err != nil {
		observability.RecordSinkError("write")
		return &IOError{Op: "write", Path: f.path, Err: err}
	}
	if err := f.f.Sync(); err != nil {
		observability.RecordSinkError("sync")
		return &IOError{Op: "sync", Path: f.path, Err: err}
	}
	observability.RecordSinkWrite(time.Since(start))

	return nil
}

// Close releases the file. Later calls return nil.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.f.Close(); err != nil {
		observability.RecordSinkError("close")
		return &IOError{Op: "close", Path: f.path, Err: err}
	}
	return nil
}
