package trace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/internal/tracing"
	"github.com/valiqor/valiqor/pkg/fields"
	"github.com/valiqor/valiqor/pkg/sink"
)

// State is the lifecycle state of a Session
type State int

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	if s == StateOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// Session is one bounded tracing run backed by exactly one trace file.
//
// A mutex serializes AddSpan and Close, so sequence assignment and the file
// write happen together. Meaningful ordering across goroutines is still the
// caller's business.
type Session struct {
	tracer    *Tracer
	runID     string
	metadata  *fields.Map
	startedAt time.Time
	path      string

	mu        sync.Mutex
	file      *sink.File
	spanCount int
	state     State
	failure   error
}

// Span is a recorded event. It is persisted before AddSpan returns and
// never changes afterwards.
type Span struct {
	ID            string
	RunID         string
	Name          string
	SequenceIndex int
	Timestamp     time.Time
	Fields        *fields.Map
}

// RunID returns the unique run identifier
func (s *Session) RunID() string { return s.runID }

// App returns the application name
func (s *Session) App() string { return s.tracer.app }

// Env returns the environment label
func (s *Session) Env() string { return s.tracer.env }

// Path returns the trace file location
func (s *Session) Path() string { return s.path }

// StartedAt returns the open time
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Metadata returns the sanitized session metadata
func (s *Session) Metadata() *fields.Map { return s.metadata }

// SpanCount returns the number of spans written so far
func (s *Session) SpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spanCount
}

// State returns the lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddSpan records a span
func (s *Session) AddSpan(name string, fs ...fields.Field) (*Span, error) {
	return s.AddSpanWithContext(context.Background(), name, fs...)
}

// AddSpanWithContext sanitizes name and fields, assigns the next sequence
// index and appends the span line. The span count only grows once the line
// is on disk.
func (s *Session) AddSpanWithContext(ctx context.Context, name string, fs ...fields.Field) (*Span, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.NewContext(ctx, &tracing.TraceContext{RunID: s.runID, App: s.tracer.app, Env: s.tracer.env})
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"span.add",
		attribute.String("valiqor.span_name", name),
	)
	defer span.End()
	logger := s.tracer.log(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		err := fmt.Errorf("cannot add span %q to run %s: %w", name, s.runID, ErrSessionClosed)
		tracing.FailSpan(span, err)
		observability.RecordSpan(false)
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		observability.RecordSpan(false)
		return nil, ErrEmptyName
	}

	rec := &Span{
		ID:            tracing.NewSpanID(),
		RunID:         s.runID,
		Name:          s.tracer.engine.SanitizeString(name),
		SequenceIndex: s.spanCount,
		Timestamp:     s.tracer.clock.Now(),
		Fields:        s.tracer.engine.SanitizeMap(fields.MapOf(fs...)),
	}

	line := buildRecord([]reservedField{
		{KeyRecordType, fields.String(RecordSpan)},
		{KeySpanID, fields.String(rec.ID)},
		{KeyRunID, fields.String(s.runID)},
		{KeyName, fields.String(rec.Name)},
		{KeySequenceIndex, fields.Int(int64(rec.SequenceIndex))},
		{KeyTimestamp, fields.String(FormatTimestamp(rec.Timestamp))},
	}, rec.Fields, logger)

	if err := s.file.Append(line); err != nil {
		tracing.FailSpan(span, err)
		observability.RecordSpan(false)
		logger.Error().Err(err).Str("span", rec.Name).Msg("Failed to write span")
		return nil, fmt.Errorf("failed to record span %q: %w", rec.Name, err)
	}

	s.spanCount++
	observability.RecordSpan(true)
	logger.Debug().Str("span", rec.Name).Int("sequence_index", rec.SequenceIndex).Msg("Span recorded")

	return rec, nil
}

// Close ends the session
func (s *Session) Close() error {
	return s.CloseWithContext(context.Background())
}

// CloseWithContext writes the summary record and releases the trace file.
// The first call does the work; later calls return nil. The session is
// CLOSED and the file released even when writing the summary fails.
func (s *Session) CloseWithContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.NewContext(ctx, &tracing.TraceContext{RunID: s.runID, App: s.tracer.app, Env: s.tracer.env})
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.close")
	defer span.End()
	logger := s.tracer.log(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	duration := s.tracer.clock.Since(s.startedAt)
	status := StatusOK
	if s.failure != nil {
		status = StatusError
	}

	reserved := []reservedField{
		{KeyRecordType, fields.String(RecordSummary)},
		{KeyRunID, fields.String(s.runID)},
		{KeyDurationMS, fields.Float(DurationMS(duration))},
		{KeySpanCount, fields.Int(int64(s.spanCount))},
		{KeyTimestamp, fields.String(FormatTimestamp(s.tracer.clock.Now()))},
		{KeyStatus, fields.String(status)},
	}
	if s.failure != nil {
		reserved = append(reserved, reservedField{KeyError, fields.String(s.tracer.engine.SanitizeString(s.failure.Error()))})
	}

	var errs []error
	if err := s.file.Append(buildRecord(reserved, nil, logger)); err != nil {
		errs = append(errs, fmt.Errorf("failed to write trace summary: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close trace file: %w", err))
	}
	err := errors.Join(errs...)
	if err != nil {
		tracing.FailSpan(span, err)
		logger.Error().Err(err).Msg("Trace session closed with errors")
	}

	observability.RecordSessionClosed(duration, status == StatusOK && err == nil)

	if s.tracer.ledger != nil {
		entry := observability.LedgerEntry{
			Timestamp:  s.tracer.clock.Now(),
			RunID:      s.runID,
			App:        s.tracer.app,
			Env:        s.tracer.env,
			Path:       s.path,
			SpanCount:  s.spanCount,
			DurationMS: DurationMS(duration),
			Status:     status,
		}
		if s.failure != nil {
			entry.Error = s.tracer.engine.SanitizeString(s.failure.Error())
		}
		if lerr := s.tracer.ledger.Record(ctx, entry); lerr != nil {
			logger.Warn().Err(lerr).Msg("Failed to append run ledger entry")
		}
	}

	logger.Debug().
		Int("span_count", s.spanCount).
		Float64("duration_ms", DurationMS(duration)).
		Str("status", status).
		Msg("Trace session closed")

	return err
}

// fail records a session.error span and marks the summary as failed
func (s *Session) fail(ctx context.Context, err error, errType string) {
	if _, rerr := s.AddSpanWithContext(ctx, "session.error",
		fields.F(KeyError, err.Error()),
		fields.F("error_type", errType),
	); rerr != nil {
		logger := s.tracer.log(ctx)
		logger.Debug().Err(rerr).Msg("Failed to record session error span")
	}

	s.mu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.mu.Unlock()
}
