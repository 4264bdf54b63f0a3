// Package tracefile reads, verifies, follows and queries trace files
// written by package trace.
package tracefile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/valiqor/valiqor/pkg/trace"
)

// LineError reports a complete line that is not a JSON object
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Read decodes every complete line of the trace file at path
func Read(path string) ([]trace.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads newline-terminated records from r. A final line without a
// newline is a write still in progress and is ignored.
func Decode(r io.Reader) ([]trace.Record, error) {
	var records []trace.Record
	_, err := scanLines(r, func(lineNo int, line []byte) error {
		rec, err := parseLine(lineNo, line)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	return records, err
}

func parseLine(lineNo int, line []byte) (trace.Record, error) {
	var rec trace.Record
	if len(bytes.TrimSpace(line)) == 0 {
		return rec, &LineError{Line: lineNo, Err: errors.New("empty line")}
	}
	if err := rec.UnmarshalJSON(line); err != nil {
		return rec, &LineError{Line: lineNo, Err: err}
	}
	return rec, nil
}

// scanLines calls fn for each complete line (without its newline) and
// returns the bytes of a trailing partial line, if any.
func scanLines(r io.Reader, fn func(lineNo int, line []byte) error) ([]byte, error) {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return line, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trace: %w", err)
		}
		lineNo++
		if ferr := fn(lineNo, bytes.TrimRight(line, "\r\n")); ferr != nil {
			return nil, ferr
		}
	}
}
