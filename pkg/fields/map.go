package fields

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion-ordered string-keyed map of Values.
// Setting an existing key keeps its original position.
type Map struct {
	om *orderedmap.OrderedMap[string, Value]
}

// Field is a single key/value pair handed to the tracer
type Field struct {
	Key   string
	Value any
}

// F builds a Field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// NewMap returns an empty map
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, Value]()}
}

// MapOf builds a map from fields in argument order. Values are converted
// with From. A repeated key keeps its first position and its last value.
func MapOf(fs ...Field) *Map {
	m := NewMap()
	for _, f := range fs {
		m.Set(f.Key, From(f.Value))
	}
	return m
}

// FromMap converts a plain Go map into fields sorted by key
func FromMap(src map[string]any) []Field {
	keys := sortedKeys(src)
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: src[k]})
	}
	return out
}

func (m *Map) init() {
	if m.om == nil {
		m.om = orderedmap.New[string, Value]()
	}
}

// Set stores v under key
func (m *Map) Set(key string, v Value) {
	m.init()
	m.om.Set(key, v)
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.om == nil {
		return Value{}, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key
func (m *Map) Delete(key string) {
	if m == nil || m.om == nil {
		return
	}
	m.om.Delete(key)
}

// Len returns the number of keys
func (m *Map) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for each pair in order until fn returns false
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil || m.om == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Equal compares keys, order and values
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	a, b := m.om.Oldest(), o.om.Oldest()
	for a != nil && b != nil {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
		a, b = a.Next(), b.Next()
	}
	return a == nil && b == nil
}

// MarshalJSON emits keys in insertion order
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil || m.om == nil {
		return []byte("{}"), nil
	}
	return m.om.MarshalJSON()
}

// UnmarshalJSON keeps the key order of the source document
func (m *Map) UnmarshalJSON(data []byte) error {
	m.om = orderedmap.New[string, Value]()
	return m.om.UnmarshalJSON(data)
}
