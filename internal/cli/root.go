package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valiqor/valiqor/internal/config"
	"github.com/valiqor/valiqor/internal/logger"
	"github.com/valiqor/valiqor/internal/observability"
	"github.com/valiqor/valiqor/internal/tracing"
)

const version = "0.1.0"

var (
	cfgFile     string
	logLevel    string
	metricsFile string
)

// state is populated by setup before any subcommand runs
var state struct {
	cfg *config.Config
	log *logger.Logger
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "valiqor",
	Short: "Valiqor - local execution tracing for AI workflows",
	Long: `Valiqor records the execution of AI workflows (LLM calls, tool calls,
judge notes) as append-only JSONL trace files on the local disk.
Sensitive data is redacted before anything is written and nothing is
sent over the network.`,
	Version:            version,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if terr := teardown(rootCmd, nil); terr != nil && err == nil {
		err = terr
	}
	if serr := tracing.ShutdownOpenTelemetry(context.Background()); serr != nil {
		log.Warn().Err(serr).Msg("Failed to shut down tracer provider")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.valiqor/valiqor.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile on exit")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// setup loads configuration and installs logging and tracing
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	l, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Rules:     rules,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if err := tracing.InitOpenTelemetry("valiqor", version); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer provider")
	}

	state.cfg = cfg
	state.log = l
	log.Debug().Str("command", cmd.CommandPath()).Str("scratch_dir", cfg.ScratchDir).Msg("Configuration loaded")
	return nil
}

// teardown exports metrics and closes the log file. It runs at most once
// per setup.
func teardown(_ *cobra.Command, _ []string) error {
	if state.cfg == nil {
		return nil
	}
	cfg, l := state.cfg, state.log
	state.cfg, state.log = nil, nil

	var err error
	if cfg.Metrics.Textfile != "" {
		if werr := observability.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			err = fmt.Errorf("failed to write metrics: %w", werr)
		}
	}
	if l != nil {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
