package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/pkg/trace"
	"github.com/valiqor/valiqor/pkg/tracefile"
)

var (
	showFilter string
	tailFollow bool
)

var traceShowCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print the records of a trace file",
	Long: `Print every complete record of a trace file, one JSON object per line.
With --filter, each record is passed through a jq expression and every
value it yields is printed instead.`,
	Example: `  valiqor trace show trace.jsonl
  valiqor trace show trace.jsonl --filter 'select(.record_type == "span") | .name'`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceShow,
}

var traceTailCmd = &cobra.Command{
	Use:   "tail FILE",
	Short: "Print a trace file, optionally following appends",
	Long: `Print the complete lines of a trace file. With --follow, keep printing
lines as they are appended until the session writes its summary or the
command is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceTail,
}

func init() {
	traceShowCmd.Flags().StringVar(&showFilter, "filter", "", "jq expression applied to each record")
	traceTailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "keep reading as the file grows")
	traceCmd.AddCommand(traceShowCmd)
	traceCmd.AddCommand(traceTailCmd)
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	records, err := tracefile.Read(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showFilter == "" {
		for _, rec := range records {
			if err := printJSON(out, rec); err != nil {
				return err
			}
		}
		return nil
	}

	values, err := tracefile.Query(cmd.Context(), records, showFilter)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := printJSON(out, v); err != nil {
			return err
		}
	}
	return nil
}

func runTraceTail(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !tailFollow {
		records, err := tracefile.Read(args[0])
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := printJSON(out, rec); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := tracefile.Follow(ctx, args[0], func(_ trace.Record, line []byte) error {
		_, werr := fmt.Fprintf(out, "%s\n", line)
		return werr
	})
	if err != nil && ctx.Err() != nil {
		// interrupted by the user
		return nil
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
