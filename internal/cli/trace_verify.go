package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/pkg/tracefile"
)

var verifyJSON bool

var traceVerifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Check the structure of a trace file",
	Long: `Check that a trace file is well formed: a metadata record first, spans
with contiguous sequence indexes, at most one summary at the end with a
matching span count, and a single run id. Record contents are not
inspected. Exits non-zero when problems are found.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceVerify,
}

func init() {
	traceVerifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the report as JSON")
	traceCmd.AddCommand(traceVerifyCmd)
}

func runTraceVerify(cmd *cobra.Command, args []string) error {
	report, err := tracefile.Verify(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if verifyJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		progress := "complete"
		if !report.Complete {
			progress = "incomplete (no summary yet)"
		}
		fmt.Fprintf(out, "File: %s\n", report.Path)
		fmt.Fprintf(out, "Run: %s\n", report.RunID)
		fmt.Fprintf(out, "Lines: %d, spans: %d, %s\n", report.Lines, report.Spans, progress)
		if report.Partial {
			fmt.Fprintln(out, "Trailing partial line ignored")
		}
		for _, p := range report.Problems {
			fmt.Fprintf(out, "  line %d: %s\n", p.Line, p.Message)
		}
		if report.OK() {
			fmt.Fprintln(out, "OK")
		}
	}

	if !report.OK() {
		return fmt.Errorf("trace file has %d problem(s)", len(report.Problems))
	}
	return nil
}
