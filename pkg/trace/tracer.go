package trace

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zoobzio/clockz"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/internal/tracing"
	"github.com/valiqor/valiqor/pkg/fields"
	"github.com/valiqor/valiqor/pkg/redact"
	"github.com/valiqor/valiqor/pkg/sink"
)

const tracerName = "valiqor.trace"

// DefaultEnv is used when no environment is configured
const DefaultEnv = "dev"

// Tracer holds process-wide tracing configuration. It is immutable after
// New and safe for concurrent use; each Session it opens is independent.
type Tracer struct {
	app        string
	env        string
	scratchDir string
	engine     *redact.Engine
	policy     sink.Policy
	clock      clockz.Clock
	logger     *zerolog.Logger
	ledger     Ledger
}

// New creates a tracer for app
func New(app string, opts ...Option) *Tracer {
	observability.EnsureRegistered()

	t := &Tracer{
		app:        app,
		env:        DefaultEnv,
		scratchDir: sink.DefaultScratchDir(),
		engine:     redact.NewEngine(nil),
		policy:     sink.PolicyCreateNew,
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// App returns the application name
func (t *Tracer) App() string { return t.app }

// Env returns the environment label
func (t *Tracer) Env() string { return t.env }

// ScratchDir returns the scratch directory
func (t *Tracer) ScratchDir() string { return t.scratchDir }

// Engine returns the redaction engine applied to all recorded data
func (t *Tracer) Engine() *redact.Engine { return t.engine }

func (t *Tracer) log(ctx context.Context) zerolog.Logger {
	base := log.Logger
	if t.logger != nil {
		base = *t.logger
	}
	return tracing.LoggerFromContext(ctx, base)
}

// Open starts a session: it allocates a run id, creates the trace file and
// writes the sanitized metadata record. On failure no session is returned.
// The caller must Close the session; prefer Session for scoped use.
func (t *Tracer) Open(ctx context.Context, metadata ...fields.Field) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	runID := tracing.NewRunID()
	ctx = tracing.NewContext(ctx, &tracing.TraceContext{RunID: runID, App: t.app, Env: t.env})
	ctx, span := tracing.StartSpan(ctx, tracerName, "session.open")
	defer span.End()
	logger := t.log(ctx)

	startedAt := t.clock.Now()
	path := sink.TracePath(t.scratchDir, runID, startedAt)

	file, err := sink.Create(path, t.policy)
	if err != nil {
		tracing.FailSpan(span, err)
		logger.Error().Err(err).Str("path", path).Msg("Failed to create trace file")
		return nil, fmt.Errorf("failed to open trace session: %w", err)
	}

	meta := t.engine.SanitizeMap(fields.MapOf(metadata...))
	record := buildRecord([]reservedField{
		{KeyRecordType, fields.String(RecordMetadata)},
		{KeyRunID, fields.String(runID)},
		{KeyApp, fields.String(t.app)},
		{KeyEnv, fields.String(t.env)},
		{KeyTimestamp, fields.String(FormatTimestamp(startedAt))},
	}, meta, logger)

	if err := file.Append(record); err != nil {
		_ = file.Close()
		tracing.FailSpan(span, err)
		logger.Error().Err(err).Str("path", path).Msg("Failed to write trace metadata")
		return nil, fmt.Errorf("failed to open trace session: %w", err)
	}

	observability.RecordSessionOpened()
	logger.Debug().Str("path", path).Msg("Trace session opened")

	return &Session{
		tracer:    t,
		runID:     runID,
		metadata:  meta,
		startedAt: startedAt,
		path:      path,
		file:      file,
		state:     StateOpen,
	}, nil
}

// Session opens a session, runs fn with it and always closes it, whether fn
// returns normally, returns an error or panics. The session is also
// available to fn through FromContext(ctx).
//
// When fn fails, a "session.error" span is recorded and the summary is
// marked with status "error" before fn's error is returned or its panic
// resumed. A close failure is returned only when fn succeeded.
func (t *Tracer) Session(ctx context.Context, fn func(ctx context.Context, s *Session) error, metadata ...fields.Field) error {
	s, err := t.Open(ctx, metadata...)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = NewContext(ctx, s)
	logger := t.log(ctx)

	panicking := true
	defer func() {
		if !panicking {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit
			_ = s.CloseWithContext(ctx)
			return
		}
		s.fail(ctx, fmt.Errorf("panic: %v", r), fmt.Sprintf("%T", r))
		if cerr := s.CloseWithContext(ctx); cerr != nil {
			logger.Error().Err(cerr).Msg("Failed to close trace session after panic")
		}
		panic(r)
	}()

	bodyErr := fn(ctx, s)
	panicking = false

	if bodyErr != nil {
		s.fail(ctx, bodyErr, fmt.Sprintf("%T", bodyErr))
	}

	closeErr := s.CloseWithContext(ctx)
	if bodyErr != nil {
		if closeErr != nil {
			logger.Error().Err(closeErr).Msg("Failed to close trace session after error")
		}
		return bodyErr
	}
	return closeErr
}

// AddSpan records a span in the session carried by ctx. Without an open
// session it returns ErrNoSession and touches no file.
func (t *Tracer) AddSpan(ctx context.Context, name string, fs ...fields.Field) (*Span, error) {
	s := FromContext(ctx)
	if s == nil {
		observability.RecordSpan(false)
		return nil, ErrNoSession
	}
	return s.AddSpanWithContext(ctx, name, fs...)
}

type sessionKey struct{}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	return tracing.NewContext(ctx, &tracing.TraceContext{RunID: s.runID, App: s.tracer.app, Env: s.tracer.env})
}

// FromContext returns the session carried by ctx, or nil
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
