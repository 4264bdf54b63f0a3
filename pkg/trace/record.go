package trace

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/valiqor/valiqor/pkg/fields"
)

// Record types
const (
	RecordMetadata = "metadata"
	RecordSpan     = "span"
	RecordSummary  = "summary"
)

// Summary statuses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Reserved record keys
const (
	KeyRecordType    = "record_type"
	KeyRunID         = "run_id"
	KeyApp           = "app"
	KeyEnv           = "env"
	KeyTimestamp     = "timestamp"
	KeySpanID        = "span_id"
	KeyName          = "name"
	KeySequenceIndex = "sequence_index"
	KeyDurationMS    = "duration_ms"
	KeySpanCount     = "span_count"
	KeyStatus        = "status"
	KeyError         = "error"
)

// TimestampFormat is UTC RFC3339 with millisecond precision
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way records store it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// DurationMS converts d to milliseconds rounded to 2 decimals
func DurationMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// Record is one line of a trace file, keys in file order
type Record struct {
	m *fields.Map
}

// NewRecord wraps an ordered map as a record
func NewRecord(m *fields.Map) Record {
	if m == nil {
		m = fields.NewMap()
	}
	return Record{m: m}
}

// Map returns the underlying ordered map
func (r Record) Map() *fields.Map {
	return r.m
}

// Get returns the value stored under key
func (r Record) Get(key string) (fields.Value, bool) {
	return r.m.Get(key)
}

func (r Record) str(key string) string {
	v, _ := r.m.Get(key)
	s, _ := v.AsString()
	return s
}

func (r Record) integer(key string) (int, bool) {
	v, ok := r.m.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// Type returns record_type
func (r Record) Type() string { return r.str(KeyRecordType) }

// RunID returns run_id
func (r Record) RunID() string { return r.str(KeyRunID) }

// Name returns the span name
func (r Record) Name() string { return r.str(KeyName) }

// SpanID returns span_id
func (r Record) SpanID() string { return r.str(KeySpanID) }

// Status returns the summary status
func (r Record) Status() string { return r.str(KeyStatus) }

// SequenceIndex returns the span position within its run
func (r Record) SequenceIndex() (int, bool) { return r.integer(KeySequenceIndex) }

// SpanCount returns the summary span count
func (r Record) SpanCount() (int, bool) { return r.integer(KeySpanCount) }

// Timestamp parses the record timestamp
func (r Record) Timestamp() (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339Nano, r.str(KeyTimestamp))
	return ts, err == nil
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	return r.m.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	var v fields.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m, ok := v.AsMap()
	if !ok {
		return fmt.Errorf("trace record must be a JSON object, got %s", v.Kind())
	}
	r.m = m
	return nil
}

type reservedField struct {
	key   string
	value fields.Value
}

// buildRecord lays out reserved keys first, then caller fields. Caller keys
// that collide with a reserved key are dropped.
func buildRecord(reserved []reservedField, caller *fields.Map, logger zerolog.Logger) *fields.Map {
	m := fields.NewMap()
	taken := make(map[string]struct{}, len(reserved))
	for _, f := range reserved {
		m.Set(f.key, f.value)
		taken[f.key] = struct{}{}
	}
	caller.Range(func(key string, v fields.Value) bool {
		if _, ok := taken[key]; ok {
			logger.Debug().Str("key", key).Msg("Dropping caller field that collides with a reserved key")
			return true
		}
		m.Set(key, v)
		return true
	})
	return m
}
