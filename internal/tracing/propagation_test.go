package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestPropagateToLogger(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithRunID(ctx, "run_456")
	ctx = WithApp(ctx, "demo")
	ctx = WithEnv(ctx, "staging")

	var buf bytes.Buffer
	logger := PropagateToLogger(ctx, zerolog.New(&buf))
	logger.Info().Msg("test message")

	output := buf.String()
	for _, want := range []string{"trace-123", "run_456", `"app":"demo"`, `"env":"staging"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in log output: %s", want, output)
		}
	}
}

func TestLoggerFromContext_NoValues(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerFromContext(context.Background(), zerolog.New(&buf))
	logger.Info().Msg("test")

	if strings.Contains(buf.String(), "run_id") {
		t.Error("Unexpected run_id in log output")
	}
}
