package redact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valiqor/valiqor/pkg/fields"
)

func TestEngine_SanitizeString(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"openai style key", "my key is sk-1234567890abcdefghijk", "my key is [REDACTED]"},
		{"api key assignment", `api_key="abcd1234efgh"`, `[REDACTED]"`},
		{"bearer header", "Authorization: Bearer abc.def-ghi12345", "Authorization: [REDACTED]"},
		{"token assignment", "token=abcdefghijklmnopqrst", "[REDACTED]"},
		{"password assignment", "password: hunter2!!", "[REDACTED]"},
		{"email", "contact alice@example.com now", "contact [REDACTED] now"},
		{"ssn", "ssn 123-45-6789", "ssn [REDACTED]"},
		{"credit card", "card 4111 1111 1111 1111", "card [REDACTED]"},
		{"phone", "call 555-123-4567", "call [REDACTED]"},
		{"earlier rule wins", "password=sk-1234567890abcdefghijk", "password=[REDACTED]"},
		{"multiple matches", "a@b.io and c@d.io", "[REDACTED] and [REDACTED]"},
		{"clean text", "the answer is 42", "the answer is 42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.SanitizeString(tt.input))
		})
	}
}

func TestEngine_SensitiveKeysAtAnyDepth(t *testing.T) {
	e := NewEngine(nil)

	var in fields.Value
	require.NoError(t, json.Unmarshal([]byte(`{
		"user": {"profile": {"API_KEY": {"nested": "x"}, "name": "bob"}},
		"calls": [{"password": 123}, {"Token": ["a", "b"]}],
		"secret": null
	}`), &in))

	out := e.Sanitize(in)
	data, err := json.Marshal(out)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"user": {"profile": {"API_KEY": "[REDACTED]", "name": "bob"}},
		"calls": [{"password": "[REDACTED]"}, {"Token": "[REDACTED]"}],
		"secret": "[REDACTED]"
	}`, string(data))
}

func TestEngine_PreservesShape(t *testing.T) {
	e := NewEngine(nil)

	in := fields.MapValue(fields.MapOf(
		fields.F("zeta", 1.25),
		fields.F("alpha", []any{true, nil, "alice@example.com", []any{int64(7)}}),
		fields.F("mid", map[string]any{"k": "v"}),
	))
	out := e.Sanitize(in)

	m, ok := out.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	zeta, _ := m.Get("zeta")
	assert.True(t, zeta.Equal(fields.Float(1.25)))

	alpha, _ := m.Get("alpha")
	items, ok := alpha.AsList()
	require.True(t, ok)
	require.Len(t, items, 4)
	assert.True(t, items[0].Equal(fields.Bool(true)))
	assert.True(t, items[1].IsNull())
	assert.True(t, items[2].Equal(fields.String(Marker)))
	assert.Equal(t, fields.KindList, items[3].Kind())
}

func TestEngine_Idempotent(t *testing.T) {
	e := NewEngine(nil)

	inputs := []any{
		"password=sk-1234567890abcdefghijk and alice@example.com",
		"Bearer abcdefghijklmnop token: qwertyuiopasdfghjkl",
		"call +1 555-123-4567 or (555) 123-4567",
		map[string]any{"token": "x", "nested": []any{"4111-1111-1111-1111", 3}},
		"[REDACTED] already",
		"pwd=[REDACTED]",
	}

	for _, in := range inputs {
		once := e.SanitizeAny(in)
		twice := e.Sanitize(once)
		assert.True(t, once.Equal(twice), "not idempotent for %v: %s vs %s", in, once, twice)
	}
}

func TestEngine_Scalars(t *testing.T) {
	e := NewEngine(nil)
	for _, v := range []fields.Value{fields.Null(), fields.Bool(false), fields.Int(5551234567)} {
		assert.True(t, v.Equal(e.Sanitize(v)))
	}
}

func TestRules_WithLeavesReceiverUntouched(t *testing.T) {
	base := DefaultRules()
	p, err := CompilePattern("session_id", `sess_[a-z0-9]{8}`)
	require.NoError(t, err)

	extended := base.With([]string{" Session_Cookie "}, []Pattern{p})

	assert.True(t, extended.IsSensitiveKey("session_cookie"))
	assert.False(t, base.IsSensitiveKey("session_cookie"))
	assert.Len(t, extended.Patterns(), len(base.Patterns())+1)

	e := NewEngine(extended)
	assert.Equal(t, "id [REDACTED]", e.SanitizeString("id sess_ab12cd34"))
	assert.Equal(t, "id sess_ab12cd34", NewEngine(base).SanitizeString("id sess_ab12cd34"))
}

func TestRules_EmptyMatchesIgnored(t *testing.T) {
	p, err := CompilePattern("greedy", `x*`)
	require.NoError(t, err)

	e := NewEngine(DefaultRules().With(nil, []Pattern{p}))
	assert.Equal(t, "abc", e.SanitizeString("abc"))
	assert.Equal(t, "a[REDACTED]c", e.SanitizeString("axxc"))
}

func TestCompilePattern_Invalid(t *testing.T) {
	_, err := CompilePattern("broken", `(`)
	assert.Error(t, err)
}

func TestRedactKeys(t *testing.T) {
	m := fields.MapOf(
		fields.F("Email", "alice@example.com"),
		fields.F("note", "alice@example.com"),
		fields.F("items", []any{map[string]any{"email": "b@c.io"}}),
	)

	out := RedactKeys(m, "email")
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, `{"Email":"[REDACTED]","note":"alice@example.com","items":[{"email":"[REDACTED]"}]}`, string(data))
}
