package tracefile

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/valiqor/valiqor/pkg/trace"
)

// Problem is one structural defect found by Verify
type Problem struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report is the outcome of Verify
type Report struct {
	Path     string    `json:"path"`
	RunID    string    `json:"run_id"`
	Lines    int       `json:"lines"`
	Spans    int       `json:"spans"`
	Complete bool      `json:"complete"`
	Partial  bool      `json:"partial_line"`
	Problems []Problem `json:"problems,omitempty"`
}

// OK reports whether no problems were found. An incomplete file (no
// summary yet) can still be OK.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) addProblem(line int, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Line: line, Message: fmt.Sprintf(format, args...)})
}

var envelopeSchemas = sync.OnceValues(func() (map[string]*gojsonschema.Schema, error) {
	timestamp := map[string]interface{}{"type": "string", "minLength": 1}
	runID := map[string]interface{}{"type": "string", "pattern": "^run_"}

	defs := map[string]map[string]interface{}{
		trace.RecordMetadata: {
			"type":     "object",
			"required": []interface{}{"record_type", "run_id", "app", "env", "timestamp"},
			"properties": map[string]interface{}{
				"record_type": map[string]interface{}{"const": trace.RecordMetadata},
				"run_id":      runID,
				"app":         map[string]interface{}{"type": "string"},
				"env":         map[string]interface{}{"type": "string"},
				"timestamp":   timestamp,
			},
		},
		trace.RecordSpan: {
			"type":     "object",
			"required": []interface{}{"record_type", "span_id", "run_id", "name", "timestamp"},
			"properties": map[string]interface{}{
				"record_type":    map[string]interface{}{"const": trace.RecordSpan},
				"span_id":        map[string]interface{}{"type": "string", "pattern": "^span_"},
				"run_id":         runID,
				"name":           map[string]interface{}{"type": "string", "minLength": 1},
				"sequence_index": map[string]interface{}{"type": "integer", "minimum": 0},
				"timestamp":      timestamp,
			},
		},
		trace.RecordSummary: {
			"type":     "object",
			"required": []interface{}{"record_type", "run_id", "duration_ms", "span_count", "timestamp"},
			"properties": map[string]interface{}{
				"record_type": map[string]interface{}{"const": trace.RecordSummary},
				"run_id":      runID,
				"duration_ms": map[string]interface{}{"type": "number", "minimum": 0},
				"span_count":  map[string]interface{}{"type": "integer", "minimum": 0},
				"timestamp":   timestamp,
				"status":      map[string]interface{}{"enum": []interface{}{trace.StatusOK, trace.StatusError}},
			},
		},
	}

	schemas := make(map[string]*gojsonschema.Schema, len(defs))
	for kind, def := range defs {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		schemas[kind] = schema
	}
	return schemas, nil
})

// Verify checks the structure of the trace file at path: every line is a
// record matching the envelope of its record_type, the metadata record is
// first, a summary (if any) is last, sequence indexes are contiguous from
// 0, span_count matches and all lines share one run_id. Content is never
// inspected. The error is non-nil only when the file cannot be read.
func Verify(path string) (*Report, error) {
	schemas, err := envelopeSchemas()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	report := &Report{Path: path}
	summaryLine := 0
	nextIndex := 0

	partial, err := scanLines(f, func(lineNo int, line []byte) error {
		report.Lines = lineNo

		rec, perr := parseLine(lineNo, line)
		if perr != nil {
			report.addProblem(lineNo, "%v", perr.(*LineError).Err)
			return nil
		}

		kind := rec.Type()
		schema, known := schemas[kind]
		if !known {
			report.addProblem(lineNo, "unknown record_type %q", kind)
			return nil
		}
		result, verr := schema.Validate(gojsonschema.NewBytesLoader(line))
		if verr != nil {
			report.addProblem(lineNo, "schema validation error: %v", verr)
			return nil
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			report.addProblem(lineNo, "%s record: %s", kind, strings.Join(msgs, "; "))
		}

		if summaryLine != 0 {
			report.addProblem(lineNo, "record after summary on line %d", summaryLine)
		}

		switch {
		case lineNo == 1:
			if kind != trace.RecordMetadata {
				report.addProblem(lineNo, "first record is %q, want metadata", kind)
			}
			report.RunID = rec.RunID()
		case rec.RunID() != report.RunID:
			report.addProblem(lineNo, "run_id %q differs from %q", rec.RunID(), report.RunID)
		}

		switch kind {
		case trace.RecordMetadata:
			if lineNo != 1 {
				report.addProblem(lineNo, "metadata record is not first")
			}
		case trace.RecordSpan:
			report.Spans++
			if idx, ok := rec.SequenceIndex(); ok && idx != nextIndex {
				report.addProblem(lineNo, "sequence_index %d, want %d", idx, nextIndex)
			}
			nextIndex++
		case trace.RecordSummary:
			summaryLine = lineNo
			report.Complete = true
			if count, ok := rec.SpanCount(); ok && count != report.Spans {
				report.addProblem(lineNo, "span_count %d but %d span lines", count, report.Spans)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Partial = len(partial) > 0
	if report.Lines == 0 {
		report.addProblem(0, "no complete records")
	}
	return report, nil
}
