package trace

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context) (int, error) {
	return 10, nil
}

func failing(_ context.Context) error {
	return errors.New("normalize failed")
}

func TestWrap_RecordsSuccess(t *testing.T) {
	tr, clock, _ := setupTestTracer(t)
	call := Wrap(tr, "compute", func(ctx context.Context) (int, error) {
		clock.Advance(30 * time.Millisecond)
		return double(ctx)
	}, Named("double"))

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		got, err := call(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, got)
		return nil
	})
	require.NoError(t, err)

	_, records := readTrace(t, path)
	require.Len(t, records, 3)
	span := records[1]
	assert.Equal(t, "compute", span[KeyName])
	assert.Equal(t, "double", span["function"])
	assert.Equal(t, StatusOK, span[KeyStatus])
	assert.Contains(t, span, KeyError)
	assert.Nil(t, span[KeyError])
	assert.Equal(t, 30.0, span[KeyDurationMS])
	assert.Equal(t, "2024-06-01T12:00:00.000Z", span["started_at"])
}

func TestWrap_ResolvesFunctionName(t *testing.T) {
	tr, _, _ := setupTestTracer(t)

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		_, err := Wrap(tr, "compute", double)(ctx)
		return err
	})
	require.NoError(t, err)

	_, records := readTrace(t, path)
	assert.Equal(t, "double", records[1]["function"])
}

func TestWrap_FailurePropagatesAfterSpan(t *testing.T) {
	tr, _, _ := setupTestTracer(t)
	errNormalize := errors.New("currency unknown")
	call := Wrap(tr, "tool.normalize_currency", func(ctx context.Context) (string, error) {
		return "partial", errNormalize
	})

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		got, err := call(ctx)
		assert.Equal(t, "partial", got)

		// the failure span is on disk before the error reaches the caller
		_, records := readTrace(t, path)
		require.Len(t, records, 2)
		assert.Equal(t, "tool.normalize_currency", records[1][KeyName])
		assert.Equal(t, StatusError, records[1][KeyStatus])
		assert.Equal(t, "currency unknown", records[1][KeyError])

		return err
	})
	assert.Equal(t, errNormalize, err)
}

func TestWrap_PanicRecordedAndResumed(t *testing.T) {
	tr, _, _ := setupTestTracer(t)
	call := Wrap(tr, "judge.reason", func(ctx context.Context) (bool, error) {
		panic("judge crashed")
	})

	var path string
	assert.PanicsWithValue(t, "judge crashed", func() {
		_ = tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
			path = s.Path()
			_, err := call(ctx)
			return err
		})
	})

	_, records := readTrace(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, "judge.reason", records[1][KeyName])
	assert.Equal(t, "panic: judge crashed", records[1][KeyError])
	assert.Equal(t, "session.error", records[2][KeyName])
	assert.Equal(t, StatusError, records[3][KeyStatus])
}

func TestWrap_GoexitRecorded(t *testing.T) {
	tr, _, _ := setupTestTracer(t)
	call := Wrap(tr, "tool.abort", func(ctx context.Context) (int, error) {
		if ctx != nil {
			runtime.Goexit()
		}
		return 0, nil
	})

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = call(ctx)
		}()
		<-done
		return nil
	})
	require.NoError(t, err)

	_, records := readTrace(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, "tool.abort", records[1][KeyName])
	assert.Equal(t, StatusError, records[1][KeyStatus])
	assert.Equal(t, "runtime.Goexit called", records[1][KeyError])
}

func TestWrap_NestedCallsRecordInnerFirst(t *testing.T) {
	tr, _, _ := setupTestTracer(t)
	inner := Wrap(tr, "inner", double)
	outer := Wrap(tr, "outer", func(ctx context.Context) (int, error) {
		v, err := inner(ctx)
		return v * 2, err
	})

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		got, err := outer(ctx)
		assert.Equal(t, 20, got)
		return err
	})
	require.NoError(t, err)

	_, records := readTrace(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, "inner", records[1][KeyName])
	assert.Equal(t, "outer", records[2][KeyName])
}

func TestWrap_NoSession(t *testing.T) {
	tr, _, _ := setupTestTracer(t)

	got, err := Wrap(tr, "compute", double)(context.Background())
	assert.Equal(t, 10, got)
	assert.ErrorIs(t, err, ErrNoSession)

	err = WrapFunc(tr, "normalize", failing)(context.Background())
	assert.EqualError(t, err, "normalize failed")
}

func TestWrapFunc(t *testing.T) {
	tr, _, _ := setupTestTracer(t)

	var path string
	err := tr.Session(context.Background(), func(ctx context.Context, s *Session) error {
		path = s.Path()
		return WrapFunc(tr, "normalize", failing)(ctx)
	})
	assert.EqualError(t, err, "normalize failed")

	_, records := readTrace(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, "failing", records[1]["function"])
	assert.Equal(t, "normalize failed", records[1][KeyError])
}
