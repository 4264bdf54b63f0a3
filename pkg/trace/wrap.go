package trace

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/valiqor/valiqor/pkg/fields"
)

// errGoexit marks a wrapped call that ended in runtime.Goexit
var errGoexit = errors.New("runtime.Goexit called")

// WrapOption configures Wrap and WrapFunc
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	function string
}

// Named overrides the function name recorded in the span
func Named(name string) WrapOption {
	return func(c *wrapConfig) {
		c.function = name
	}
}

// Wrap returns fn instrumented with a span named label. The span is
// recorded in the session carried by the call's context after fn returns
// and holds function, started_at, duration_ms, status and error.
//
// fn's results are returned untouched. A panic in fn is recorded with
// status "error" and then resumed; runtime.Goexit is recorded the same way. If fn succeeded but the span could not
// be recorded, the recording error is returned alongside fn's value; if fn
// failed, a recording failure is only logged.
//
// Nested wrapped calls each record their own span, innermost first.
func Wrap[T any](t *Tracer, label string, fn func(ctx context.Context) (T, error), opts ...WrapOption) func(ctx context.Context) (T, error) {
	cfg := wrapConfig{function: funcName(fn)}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context) (result T, err error) {
		start := t.clock.Now()

		panicking := true
		defer func() {
			if !panicking {
				return
			}
			r := recover()
			callErr := errGoexit
			if r != nil {
				callErr = fmt.Errorf("panic: %v", r)
			}
			if rerr := t.recordCall(ctx, label, cfg.function, start, callErr); rerr != nil {
				logger := t.log(ctx)
				logger.Warn().Err(rerr).Str("span", label).Msg("Failed to record span for aborted call")
			}
			if r != nil {
				panic(r)
			}
		}()

		result, err = fn(ctx)
		panicking = false

		if rerr := t.recordCall(ctx, label, cfg.function, start, err); rerr != nil {
			if err != nil {
				logger := t.log(ctx)
				logger.Warn().Err(rerr).Str("span", label).Msg("Failed to record span for failed call")
				return result, err
			}
			return result, rerr
		}
		return result, err
	}
}

// WrapFunc is Wrap for functions that only return an error
func WrapFunc(t *Tracer, label string, fn func(ctx context.Context) error, opts ...WrapOption) func(ctx context.Context) error {
	opts = append([]WrapOption{Named(funcName(fn))}, opts...)
	wrapped := Wrap(t, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)

	return func(ctx context.Context) error {
		_, err := wrapped(ctx)
		return err
	}
}

func (t *Tracer) recordCall(ctx context.Context, label, function string, start time.Time, callErr error) error {
	status := StatusOK
	errValue := fields.Null()
	if callErr != nil {
		status = StatusError
		errValue = fields.String(callErr.Error())
	}

	_, err := t.AddSpan(ctx, label,
		fields.F("function", function),
		fields.F("started_at", FormatTimestamp(start)),
		fields.F(KeyDurationMS, DurationMS(t.clock.Since(start))),
		fields.F(KeyStatus, status),
		fields.F(KeyError, errValue),
	)
	return err
}

// funcName resolves the declared name of fn without its package path
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
