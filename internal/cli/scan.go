package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/pkg/scanner"
)

var (
	scanOut      string
	scanMaxFiles int
	scanExclude  []string
	scanExts     []string
)

var scanCmd = &cobra.Command{
	Use:   "scan REPO",
	Short: "Build a context map of a local repository",
	Long: `Walk a local repository and write a context map: the files an AI
workflow may read, which of them look like prompts or templates, and the
directory structure. File contents are never read. The map is written as
YAML when --out ends in .yaml or .yml and as JSON otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanOut, "out", "context_map.json", "output file")
	scanCmd.Flags().IntVar(&scanMaxFiles, "max-files", scanner.DefaultMaxFiles, "maximum number of files to record")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "glob of paths to skip, relative to REPO (repeatable)")
	scanCmd.Flags().StringSliceVar(&scanExts, "ext", nil, "file extensions to include (default: built-in list)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	opts := state.cfg.ScanOptions()
	if cmd.Flags().Changed("max-files") {
		opts.MaxFiles = scanMaxFiles
	}
	if cmd.Flags().Changed("ext") {
		opts.Extensions = scanExts
	}
	opts.Exclude = append(opts.Exclude, scanExclude...)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning repository: %s\n", args[0])

	cm, err := scanner.Scan(cmd.Context(), args[0], scanOut, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scanned %d files (%d bytes)\n", cm.FileCount, cm.TotalSizeBytes)
	fmt.Fprintf(out, "Found %d prompt files\n", len(cm.Prompts))
	fmt.Fprintf(out, "Saved to: %s\n", scanOut)
	return nil
}
