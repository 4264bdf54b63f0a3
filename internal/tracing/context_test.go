package tracing

import (
	"context"
	"regexp"
	"testing"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if id1 == "" {
		t.Error("NewTraceID returned empty string")
	}

	if id1 == id2 {
		t.Error("NewTraceID returned duplicate IDs")
	}
}

func TestNewRunID(t *testing.T) {
	pattern := regexp.MustCompile(`^run_[0-9a-f]{12}$`)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := NewRunID()
		if !pattern.MatchString(id) {
			t.Fatalf("NewRunID returned malformed id %q", id)
		}
		if seen[id] {
			t.Fatalf("NewRunID returned duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewSpanID(t *testing.T) {
	pattern := regexp.MustCompile(`^span_[0-9a-z]{12}$`)

	id1 := NewSpanID()
	id2 := NewSpanID()

	if !pattern.MatchString(id1) {
		t.Errorf("NewSpanID returned malformed id %q", id1)
	}
	if id1 == id2 {
		t.Error("NewSpanID returned duplicate IDs")
	}
}

func TestWithRunID(t *testing.T) {
	ctx := context.Background()
	runID := "run_0123456789ab"

	ctx = WithRunID(ctx, runID)

	retrieved := GetRunID(ctx)
	if retrieved != runID {
		t.Errorf("Expected run ID %s, got %s", runID, retrieved)
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	if GetTraceID(ctx) != "" || GetRunID(ctx) != "" || GetApp(ctx) != "" || GetEnv(ctx) != "" {
		t.Error("Expected empty values from empty context")
	}
}

func TestNewContext_RoundTrip(t *testing.T) {
	tc := &TraceContext{
		TraceID: "trace-1",
		RunID:   "run_abc",
		App:     "demo",
		Env:     "dev",
	}

	got := FromContext(NewContext(context.Background(), tc))

	if *got != *tc {
		t.Errorf("Expected %+v, got %+v", *tc, *got)
	}
}

func TestNewContext_SkipsEmptyValues(t *testing.T) {
	ctx := WithApp(context.Background(), "kept")
	ctx = NewContext(ctx, &TraceContext{RunID: "run_x"})

	if GetApp(ctx) != "kept" {
		t.Error("Empty App overwrote existing value")
	}
	if GetRunID(ctx) != "run_x" {
		t.Error("Run ID not set")
	}
}
