package tracing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for the OpenTelemetry trace ID
	TraceIDKey ContextKey = "trace_id"
	// RunIDKey is the context key for the trace session run ID
	RunIDKey ContextKey = "run_id"
	// AppKey is the context key for the traced application name
	AppKey ContextKey = "app"
	// EnvKey is the context key for the traced environment
	EnvKey ContextKey = "env"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// TraceContext holds tracing information
type TraceContext struct {
	TraceID string
	RunID   string
	App     string
	Env     string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewRunID generates a run ID: "run_" followed by 12 hex characters
func NewRunID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "run_" + hex[:12]
}

// NewSpanID generates a span ID: "span_" followed by 12 nanoid characters
func NewSpanID() string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		// crypto/rand failure; fall back to uuid entropy
		id = strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	}
	return "span_" + id
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithApp adds the application name to the context
func WithApp(ctx context.Context, app string) context.Context {
	return context.WithValue(ctx, AppKey, app)
}

// WithEnv adds the environment to the context
func WithEnv(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, EnvKey, env)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetRunID retrieves the run ID from the context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// GetApp retrieves the application name from the context
func GetApp(ctx context.Context) string {
	if app, ok := ctx.Value(AppKey).(string); ok {
		return app
	}
	return ""
}

// GetEnv retrieves the environment from the context
func GetEnv(ctx context.Context) string {
	if env, ok := ctx.Value(EnvKey).(string); ok {
		return env
	}
	return ""
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID: GetTraceID(ctx),
		RunID:   GetRunID(ctx),
		App:     GetApp(ctx),
		Env:     GetEnv(ctx),
	}
}

// NewContext creates a new context with tracing information
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.RunID != "" {
		ctx = WithRunID(ctx, tc.RunID)
	}
	if tc.App != "" {
		ctx = WithApp(ctx, tc.App)
	}
	if tc.Env != "" {
		ctx = WithEnv(ctx, tc.Env)
	}
	return ctx
}
