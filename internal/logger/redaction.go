package logger

import (
	"io"

	"github.com/valiqor/valiqor/pkg/redact"
)

// Redactor scrubs sensitive content from log lines with the same content
// rules applied to trace records
type Redactor struct {
	engine *redact.Engine
}

// NewRedactor creates a redactor; nil rules select the defaults
func NewRedactor(rules *redact.Rules) *Redactor {
	return &Redactor{engine: redact.NewEngine(rules)}
}

// Redact redacts sensitive information from a string
func (r *Redactor) Redact(s string) string {
	return r.engine.SanitizeString(s)
}

// Wrap wraps an io.Writer to redact sensitive information
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{
		writer:   w,
		redactor: r,
	}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

// Write reports len(p) on success even when the redacted line is shorter
func (w *redactingWriter) Write(p []byte) (int, error) {
	redacted := w.redactor.Redact(string(p))
	if _, err := io.WriteString(w.writer, redacted); err != nil {
		return 0, err
	}
	return len(p), nil
}
