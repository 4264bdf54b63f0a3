package redact

import (
	"strings"

	"github.com/valiqor/valiqor/pkg/fields"
)

// Engine applies a rule set to values. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	rules *Rules
}

// NewEngine returns an engine over rules, or over DefaultRules when nil
func NewEngine(rules *Rules) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Rules returns the rule set the engine applies
func (e *Engine) Rules() *Rules {
	return e.rules
}

// Sanitize returns a redacted copy of v with the same shape. Values under
// sensitive keys become Marker whatever their shape; text has its content
// rules applied; null, booleans and numbers pass through.
func (e *Engine) Sanitize(v fields.Value) fields.Value {
	switch v.Kind() {
	case fields.KindString:
		s, _ := v.AsString()
		return fields.String(e.SanitizeString(s))
	case fields.KindList:
		items, _ := v.AsList()
		out := make([]fields.Value, len(items))
		for i, item := range items {
			out[i] = e.Sanitize(item)
		}
		return fields.List(out...)
	case fields.KindMap:
		m, _ := v.AsMap()
		return fields.MapValue(e.SanitizeMap(m))
	default:
		return v
	}
}

// SanitizeMap returns a redacted copy of m with keys in the same order
func (e *Engine) SanitizeMap(m *fields.Map) *fields.Map {
	out := fields.NewMap()
	m.Range(func(key string, v fields.Value) bool {
		if e.rules.IsSensitiveKey(key) {
			out.Set(key, fields.String(Marker))
		} else {
			out.Set(key, e.Sanitize(v))
		}
		return true
	})
	return out
}

// SanitizeAny converts x with fields.From and sanitizes the result
func (e *Engine) SanitizeAny(x any) fields.Value {
	return e.Sanitize(fields.From(x))
}

type segment struct {
	text     string
	redacted bool
}

// SanitizeString applies the content rules in priority order. Each rule
// replaces its leftmost non-overlapping matches; text already replaced by
// an earlier rule is not scanned again.
func (e *Engine) SanitizeString(s string) string {
	if s == "" {
		return s
	}

	segs := []segment{{text: s}}
	hit := false
	for _, p := range e.rules.patterns {
		next := make([]segment, 0, len(segs))
		for _, seg := range segs {
			if seg.redacted {
				next = append(next, seg)
				continue
			}
			locs := p.Regex.FindAllStringIndex(seg.text, -1)
			last := 0
			for _, loc := range locs {
				if loc[0] == loc[1] {
					continue
				}
				if loc[0] > last {
					next = append(next, segment{text: seg.text[last:loc[0]]})
				}
				next = append(next, segment{text: Marker, redacted: true})
				last = loc[1]
				hit = true
			}
			if last < len(seg.text) {
				next = append(next, segment{text: seg.text[last:]})
			}
		}
		segs = next
	}

	if !hit {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range segs {
		b.WriteString(seg.text)
	}
	return b.String()
}

// RedactKeys returns a copy of m where the listed keys, matched
// case-insensitively at any depth, are replaced by Marker. Unlike
// Sanitize it leaves text content alone.
func RedactKeys(m *fields.Map, keys ...string) *fields.Map {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return redactKeys(m, set)
}

func redactKeys(m *fields.Map, set map[string]struct{}) *fields.Map {
	out := fields.NewMap()
	m.Range(func(key string, v fields.Value) bool {
		if _, ok := set[strings.ToLower(key)]; ok {
			out.Set(key, fields.String(Marker))
			return true
		}
		out.Set(key, redactKeysValue(v, set))
		return true
	})
	return out
}

func redactKeysValue(v fields.Value, set map[string]struct{}) fields.Value {
	switch v.Kind() {
	case fields.KindMap:
		inner, _ := v.AsMap()
		return fields.MapValue(redactKeys(inner, set))
	case fields.KindList:
		items, _ := v.AsList()
		out := make([]fields.Value, len(items))
		for i, item := range items {
			out[i] = redactKeysValue(item, set)
		}
		return fields.List(out...)
	}
	return v
}
