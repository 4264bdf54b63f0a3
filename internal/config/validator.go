package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/valiqor/valiqor/pkg/sink"
)

// maxScanFiles bounds scanner.max_files
const maxScanFiles = 1_000_000

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateName validates an app or env label. Labels end up in file
// names and log fields, so they are restricted to a safe character set.
func (v *Validator) ValidateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if !namePattern.MatchString(value) {
		return fmt.Errorf("invalid %s %q (letters, digits, '.', '_' and '-' only)", field, value)
	}
	return nil
}

// ValidatePolicy validates the sink open policy
func (v *Validator) ValidatePolicy(policy string) error {
	if _, err := sink.ParsePolicy(policy); err != nil {
		return err
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidatePattern validates a redaction pattern
func (v *Validator) ValidatePattern(p PatternConfig) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("redaction pattern name is required")
	}
	if p.Regex == "" {
		return fmt.Errorf("redaction pattern %s: regex is required", p.Name)
	}
	if _, err := regexp.Compile(p.Regex); err != nil {
		return fmt.Errorf("redaction pattern %s: %w", p.Name, err)
	}
	return nil
}

// ValidateScanner validates scanner limits and exclude globs
func (v *Validator) ValidateScanner(s ScannerConfig) []error {
	var errs []error
	if s.MaxFiles < 0 || s.MaxFiles > maxScanFiles {
		errs = append(errs, fmt.Errorf("scanner.max_files must be between 0 and %d, got %d", maxScanFiles, s.MaxFiles))
	}
	for _, pattern := range s.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("scanner.exclude: invalid pattern %q", pattern))
		}
	}
	for _, ext := range s.Extensions {
		if strings.TrimSpace(ext) == "" {
			errs = append(errs, fmt.Errorf("scanner.extensions: empty extension"))
		}
	}
	return errs
}

// ValidateLogging validates logging settings
func (v *Validator) ValidateLogging(l LoggingConfig) []error {
	var errs []error
	if err := v.ValidateLogLevel(l.Level); err != nil {
		errs = append(errs, err)
	}
	if l.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if l.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("logging.max_age must be >= 0"))
	}
	return errs
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateName("app", cfg.App); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateName("env", cfg.Env); err != nil {
		errors = append(errors, err)
	}
	if strings.TrimSpace(cfg.ScratchDir) == "" {
		errors = append(errors, fmt.Errorf("scratch_dir cannot be empty"))
	}

	if err := v.ValidatePolicy(cfg.Sink.Policy); err != nil {
		errors = append(errors, err)
	}

	for i, key := range cfg.Redaction.ExtraKeys {
		if strings.TrimSpace(key) == "" {
			errors = append(errors, fmt.Errorf("redaction.extra_keys[%d] is empty", i))
		}
	}
	for _, p := range cfg.Redaction.ExtraPatterns {
		if err := v.ValidatePattern(p); err != nil {
			errors = append(errors, err)
		}
	}

	errors = append(errors, v.ValidateLogging(cfg.Logging)...)
	errors = append(errors, v.ValidateScanner(cfg.Scanner)...)

	return errors
}
