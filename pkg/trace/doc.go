// Package trace records AI workflow sessions as local JSON-lines files.
//
// A session file is always bracketed: one metadata record, one record per
// span in call order, and one summary record written on close. Every value
// passes through the redaction engine before it reaches the file, and every
// line is synced to disk before the call that wrote it returns.
//
// Invariants:
// - A closed session accepts no spans.
// - sequence_index starts at 0 and increases by one per written span.
// - span_count in the summary equals the number of span lines.
// - Reserved record keys cannot be overwritten by caller fields.
// - Two sessions never share a file.
//
// Usage:
//
//	tr := trace.New("demo", trace.WithEnv("dev"))
//	err := tr.Session(ctx, func(ctx context.Context, s *trace.Session) error {
//		_, err := tr.AddSpan(ctx, "llm.call", fields.F("model", "gpt-4"), fields.F("tokens", 100))
//		return err
//	}, fields.F("scenario", "smoke"))
package trace
