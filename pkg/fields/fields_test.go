package fields

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("zeta", Int(1))
	m.Set("alpha", Int(2))
	m.Set("mid", Int(3))
	m.Set("zeta", Int(4))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":4,"alpha":2,"mid":3}`, string(data))
}

func TestMap_UnmarshalKeepsSourceOrder(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":{"y":true,"x":null},"c":[1,"two"]}`), &v))

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

	inner, _ := m.Get("a")
	im, ok := inner.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, im.Keys())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":{"y":true,"x":null},"c":[1,"two"]}`, string(out))
}

func TestMap_NilSafe(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Has("x"))
	assert.Empty(t, m.Keys())
	m.Delete("x")

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestMapOf_FirstPositionLastValue(t *testing.T) {
	m := MapOf(F("a", 1), F("b", "x"), F("a", 2))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.True(t, v.Equal(Int(2)))
}

func TestFrom(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	str := "pointed"

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, `null`},
		{"bool", true, `true`},
		{"int", 42, `42`},
		{"uint8", uint8(7), `7`},
		{"float", 1.5, `1.5`},
		{"nan", math.NaN(), `"NaN"`},
		{"inf", math.Inf(1), `"+Inf"`},
		{"string", "hi", `"hi"`},
		{"bytes", []byte("raw"), `"raw"`},
		{"time", ts, `"2024-03-01T11:00:00Z"`},
		{"error", errors.New("boom"), `"boom"`},
		{"pointer", &str, `"pointed"`},
		{"nil pointer", (*string)(nil), `null`},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
		{"unordered map sorted", map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
		{"int keys", map[int]string{2: "x", 1: "y"}, `{"1":"y","2":"x"}`},
		{"struct via json", payload{Name: "n", Count: 3}, `{"name":"n","count":3}`},
		{"func", func() {}, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := From(tt.in)
			if tt.want == "" {
				assert.Equal(t, KindString, v.Kind())
				return
			}
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestFrom_CycleHitsDepthCap(t *testing.T) {
	cyclic := map[string]any{"name": "loop"}
	cyclic["self"] = cyclic

	v := From(cyclic)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), DepthMarker)
}

func TestValue_Interface(t *testing.T) {
	m := MapOf(F("n", 3), F("f", 2.5), F("list", []any{"a", nil}))
	got := MapValue(m).Interface()

	assert.Equal(t, map[string]any{
		"n":    int64(3),
		"f":    2.5,
		"list": []any{"a", nil},
	}, got)
}

func TestValue_Equal(t *testing.T) {
	a := MapValue(MapOf(F("x", 1), F("y", "z")))
	b := MapValue(MapOf(F("x", 1), F("y", "z")))
	c := MapValue(MapOf(F("y", "z"), F("x", 1)))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "key order is part of equality")
	assert.False(t, Int(1).Equal(String("1")))
	assert.True(t, List(Null(), Bool(false)).Equal(List(Null(), Bool(false))))
}

func TestNumber_InvalidLiteralBecomesText(t *testing.T) {
	v := Number("12abc")
	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "12abc", s)
}

func TestFromMap_SortsKeys(t *testing.T) {
	fs := FromMap(map[string]any{"z": 1, "a": 2})
	require.Len(t, fs, 2)
	assert.Equal(t, "a", fs[0].Key)
	assert.Equal(t, "z", fs[1].Key)
}
