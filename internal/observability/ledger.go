package observability

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LedgerFile is the run ledger file name inside the trace directory
const LedgerFile = "runs.jsonl"

// LedgerEntry summarizes one closed trace session
type LedgerEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	App        string    `json:"app"`
	Env        string    `json:"env"`
	Path       string    `json:"path"`
	SpanCount  int       `json:"span_count"`
	DurationMS float64   `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// Ledger appends one JSON line per closed session
type Ledger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
	path   string
}

// OpenLedger opens (or creates) the ledger at path for appending
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	return &Ledger{
		logger: zerolog.New(file),
		file:   file,
		path:   path,
	}, nil
}

// Path returns the ledger location
func (l *Ledger) Path() string {
	return l.path
}

// Record appends entry and syncs the ledger. The entry is also attached to
// the current OpenTelemetry span as an event.
func (l *Ledger) Record(ctx context.Context, entry LedgerEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		entry.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent("ledger.record", trace.WithAttributes(
			attribute.String("ledger.run_id", entry.RunID),
			attribute.String("ledger.status", entry.Status),
			attribute.Int("ledger.span_count", entry.SpanCount),
		))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("ledger %s is closed", l.path)
	}

	event := l.logger.Log().
		Str("timestamp", entry.Timestamp.UTC().Format(time.RFC3339Nano)).
		Str("run_id", entry.RunID).
		Str("app", entry.App).
		Str("env", entry.Env).
		Str("path", entry.Path).
		Int("span_count", entry.SpanCount).
		Float64("duration_ms", entry.DurationMS).
		Str("status", entry.Status)
	if entry.Error != "" {
		event.Str("error", entry.Error)
	}
	if entry.TraceID != "" {
		event.Str("trace_id", entry.TraceID)
	}
	event.Send()

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return nil
}

// Close closes the ledger's file handle
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadLedger returns the entries stored at path, oldest first. A missing
// ledger yields no entries. Lines that fail to decode are skipped.
func ReadLedger(path string) ([]LedgerEntry, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	var entries []LedgerEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LedgerEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read ledger: %w", err)
	}
	return entries, nil
}
