package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a wizard reading answers from in and prompting on out.
// Nil arguments select stdin and stdout.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard starting from base
func (w *Wizard) Run(base *Config) (*Config, error) {
	fmt.Fprintln(w.out, "=== Valiqor Configuration ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	if base != nil {
		copied := *base
		cfg = &copied
	}
	validator := NewValidator()

	app, err := w.ask("Application name", cfg.App, func(s string) error {
		return validator.ValidateName("app", s)
	})
	if err != nil {
		return nil, err
	}
	cfg.App = app

	env, err := w.ask("Environment", cfg.Env, func(s string) error {
		return validator.ValidateName("env", s)
	})
	if err != nil {
		return nil, err
	}
	cfg.Env = env

	scratch, err := w.ask("Scratch directory", cfg.ScratchDir, nil)
	if err != nil {
		return nil, err
	}
	cfg.ScratchDir = scratch

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Sink policy options:")
	fmt.Fprintln(w.out, "  create_new - fail if the trace file already exists (default)")
	fmt.Fprintln(w.out, "  truncate   - overwrite an existing trace file")
	policy, err := w.ask("Sink policy", cfg.Sink.Policy, validator.ValidatePolicy)
	if err != nil {
		return nil, err
	}
	cfg.Sink.Policy = policy

	fmt.Fprintln(w.out)
	level, err := w.ask("Log level (debug/info/warn/error)", cfg.Logging.Level, validator.ValidateLogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = level

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

// ask prompts until the answer validates. An empty answer keeps def.
func (w *Wizard) ask(prompt, def string, validate func(string) error) (string, error) {
	for {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, def)
		answer, err := w.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" {
			answer = def
		}
		if validate != nil {
			if verr := validate(answer); verr != nil {
				fmt.Fprintf(w.out, "Error: %v\n", verr)
				continue
			}
		}
		return answer, nil
	}
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
