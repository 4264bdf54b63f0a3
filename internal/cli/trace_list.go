package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/pkg/sink"
)

var (
	listApp   string
	listLimit int
	listFiles bool
)

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Long: `List runs from the run ledger, newest first. With --files, list the
trace files present in the scratch directory instead.`,
	Args: cobra.NoArgs,
	RunE: runTraceList,
}

func init() {
	traceListCmd.Flags().StringVar(&listApp, "app", "", "only show runs of this application")
	traceListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of runs to show (0 for all)")
	traceListCmd.Flags().BoolVar(&listFiles, "files", false, "list trace files instead of ledger entries")
	traceCmd.AddCommand(traceListCmd)
}

func runTraceList(cmd *cobra.Command, args []string) error {
	if listFiles {
		return listTraceFiles(cmd)
	}

	entries, err := observability.ReadLedger(state.cfg.LedgerPath())
	if err != nil {
		return err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if listApp == "" || e.App == listApp {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	if listLimit > 0 && len(filtered) > listLimit {
		filtered = filtered[:listLimit]
	}

	out := cmd.OutOrStdout()
	if len(filtered) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tAPP\tENV\tSPANS\tDURATION\tSTATUS\tFINISHED\tFILE")
	for _, e := range filtered {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.RunID, e.App, e.Env, e.SpanCount,
			formatDuration(time.Duration(e.DurationMS*float64(time.Millisecond))),
			e.Status,
			e.Timestamp.UTC().Format(time.RFC3339),
			filepath.Base(e.Path),
		)
	}
	return w.Flush()
}

func listTraceFiles(cmd *cobra.Command) error {
	paths, err := sink.ListTraces(state.cfg.ScratchDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, "No trace files found")
		return nil
	}

	// newest first, by the timestamp suffix of the file name
	sort.SliceStable(paths, func(i, j int) bool {
		return traceStamp(paths[i]) > traceStamp(paths[j])
	})
	if listLimit > 0 && len(paths) > listLimit {
		paths = paths[:listLimit]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tFILE")
	for _, p := range paths {
		runID, _ := sink.RunIDFromPath(p)
		fmt.Fprintf(w, "%s\t%s\n", runID, p)
	}
	return w.Flush()
}

func traceStamp(path string) string {
	const suffix = len("20060102_150405.jsonl")
	base := filepath.Base(path)
	if len(base) < suffix {
		return base
	}
	return base[len(base)-suffix:]
}

// formatDuration renders d compactly: 1h2m3s, 2m30s, 45s or 120ms
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
