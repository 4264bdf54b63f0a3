package trace

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/pkg/redact"
	"github.com/valiqor/valiqor/pkg/sink"
)

// Ledger receives one entry per closed session
type Ledger interface {
	Record(ctx context.Context, entry observability.LedgerEntry) error
}

// Option configures a Tracer
type Option func(*Tracer)

// WithEnv sets the environment label. Empty keeps the default "dev".
func WithEnv(env string) Option {
	return func(t *Tracer) {
		if env != "" {
			t.env = env
		}
	}
}

// WithScratchDir sets the directory under which valiqor/ is created
func WithScratchDir(dir string) Option {
	return func(t *Tracer) {
		if dir != "" {
			t.scratchDir = dir
		}
	}
}

// WithRules replaces the default redaction rules
func WithRules(rules *redact.Rules) Option {
	return func(t *Tracer) {
		t.engine = redact.NewEngine(rules)
	}
}

// WithPolicy sets how existing trace files are treated
func WithPolicy(policy sink.Policy) Option {
	return func(t *Tracer) {
		t.policy = policy
	}
}

// WithClock injects the clock used for timestamps and durations
func WithClock(clock clockz.Clock) Option {
	return func(t *Tracer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithLogger sets the logger; the global zerolog logger is used otherwise
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracer) {
		t.logger = &logger
	}
}

// WithLedger appends an entry to ledger whenever a session closes
func WithLedger(ledger Ledger) Option {
	return func(t *Tracer) {
		t.ledger = ledger
	}
}
