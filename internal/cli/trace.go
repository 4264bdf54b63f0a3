package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/pkg/sink"
	"github.com/valiqor/valiqor/pkg/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Record and inspect trace files",
	Long: `Record demo sessions and inspect trace files: print records, follow a
file as it grows, verify its structure and list recorded runs.`,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

// newTracer builds a tracer from the loaded configuration. The returned
// ledger, when not nil, must be closed by the caller.
func newTracer(app, env string) (*trace.Tracer, *observability.Ledger, error) {
	cfg := state.cfg

	rules, err := cfg.Rules()
	if err != nil {
		return nil, nil, err
	}
	policy, err := sink.ParsePolicy(cfg.Sink.Policy)
	if err != nil {
		return nil, nil, err
	}

	if app == "" {
		app = cfg.App
	}
	if env == "" {
		env = cfg.Env
	}

	opts := []trace.Option{
		trace.WithEnv(env),
		trace.WithScratchDir(cfg.ScratchDir),
		trace.WithRules(rules),
		trace.WithPolicy(policy),
	}

	var ledger *observability.Ledger
	if cfg.Ledger.Enabled {
		ledger, err = observability.OpenLedger(cfg.LedgerPath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run ledger: %w", err)
		}
		opts = append(opts, trace.WithLedger(ledger))
	}

	return trace.New(app, opts...), ledger, nil
}
