package tracefile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/valiqor/valiqor/pkg/trace"
)

// pollInterval re-reads the file when no write event arrives
const pollInterval = 500 * time.Millisecond

// Follow calls fn for every complete record already in path and then for
// each record appended later. It returns when ctx is done, when fn fails,
// or after the summary record has been delivered.
func Follow(ctx context.Context, path string, fn func(rec trace.Record, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// watch before the first read so no append is missed
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch trace file: %w", err)
	}

	t := &tailer{reader: bufio.NewReader(f), fn: fn}
	if done, err := t.drain(); done || err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return fmt.Errorf("trace file %s was removed", path)
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				if done, err := t.drain(); done || err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("path", path).Msg("Watcher error")

		case <-ticker.C:
			if done, err := t.drain(); done || err != nil {
				return err
			}
		}
	}
}

type tailer struct {
	reader  *bufio.Reader
	pending []byte
	lineNo  int
	fn      func(rec trace.Record, line []byte) error
}

// drain delivers every complete line available now. A partial line is kept
// until its newline arrives.
func (t *tailer) drain() (bool, error) {
	for {
		chunk, err := t.reader.ReadBytes('\n')
		t.pending = append(t.pending, chunk...)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to read trace: %w", err)
		}

		t.lineNo++
		line := bytes.Clone(bytes.TrimRight(t.pending, "\r\n"))
		t.pending = t.pending[:0]

		rec, perr := parseLine(t.lineNo, line)
		if perr != nil {
			return false, perr
		}
		if ferr := t.fn(rec, line); ferr != nil {
			return false, ferr
		}
		if rec.Type() == trace.RecordSummary {
			return true, nil
		}
	}
}
