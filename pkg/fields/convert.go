package fields

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// MaxDepth bounds conversion of nested data
const MaxDepth = 32

// DepthMarker replaces data nested deeper than MaxDepth
const DepthMarker = "[MAX_DEPTH_EXCEEDED]"

// From converts arbitrary Go data into a Value. It never fails: data that
// has no JSON shape is kept as its fmt.Sprint text.
func From(x any) Value {
	return convert(x, 0)
}

func convert(x any, depth int) Value {
	if depth > MaxDepth {
		return String(DepthMarker)
	}

	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case *Map:
		if v == nil {
			return Null()
		}
		return MapValue(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case []byte:
		return String(string(v))
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return Uint(uint64(v))
	case uint8:
		return Uint(uint64(v))
	case uint16:
		return Uint(uint64(v))
	case uint32:
		return Uint(uint64(v))
	case uint64:
		return Uint(v)
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case json.Number:
		return Number(v)
	case json.RawMessage:
		var out Value
		if err := out.UnmarshalJSON(v); err != nil {
			return String(string(v))
		}
		return out
	case time.Time:
		return String(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return String(v.String())
	case error:
		return String(v.Error())
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(v) {
			m.Set(k, convert(v[k], depth+1))
		}
		return MapValue(m)
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = convert(item, depth+1)
		}
		return List(items...)
	case fmt.Stringer:
		return String(v.String())
	}

	return convertReflect(reflect.ValueOf(x), depth)
}

func convertReflect(rv reflect.Value, depth int) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return convert(rv.Elem().Interface(), depth+1)
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return List()
		}
		fallthrough
	case reflect.Array:
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = convert(rv.Index(i).Interface(), depth+1)
		}
		return List(items...)
	case reflect.Map:
		type entry struct {
			key string
			val reflect.Value
		}
		entries := make([]entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries = append(entries, entry{key: mapKey(iter.Key()), val: iter.Value()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		m := NewMap()
		for _, e := range entries {
			m.Set(e.key, convert(e.val.Interface(), depth+1))
		}
		return MapValue(m)
	case reflect.Struct:
		return convertStruct(rv, depth)
	}
	return String(fmt.Sprint(rv.Interface()))
}

// structs go through their JSON form so json tags are honored
func convertStruct(rv reflect.Value, depth int) Value {
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return String(fmt.Sprint(rv.Interface()))
	}
	var out Value
	if err := out.UnmarshalJSON(data); err != nil {
		return String(string(data))
	}
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
