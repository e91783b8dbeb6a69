package value

import (
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

// FromAny converts Go data into a Value. Maps with string keys become objects
// with sorted keys, slices become arrays, time.Time becomes a date. Structs
// and other typed collections go through their JSON encoding so struct field
// order is kept. Shapes with no representation (channels, funcs, complex
// numbers) fail with ErrUnsupported.
func FromAny(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Value:
		if v == nil {
			return Null(), nil
		}
		return *v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float32:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Null(), fmt.Errorf("%w: number %q", ErrUnsupported, v.String())
		}
		return Number(f), nil
	case string:
		return String(v), nil
	case time.Time:
		return Date(v), nil
	case *time.Time:
		if v == nil {
			return Null(), nil
		}
		return Date(*v), nil
	case []Value:
		return Array(v...), nil
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			converted, err := FromAny(item)
			if err != nil {
				return Null(), fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return Value{kind: KindArray, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			converted, err := FromAny(v[k])
			if err != nil {
				return Null(), fmt.Errorf("field %q: %w", k, err)
			}
			fields = append(fields, F(k, converted))
		}
		return Object(fields...), nil
	default:
		data, err := json.Marshal(in)
		if err != nil {
			return Null(), fmt.Errorf("%w: %T: %v", ErrUnsupported, in, err)
		}
		return ParseJSON(data)
	}
}

// MustFromAny is FromAny for literals in tests and examples; it panics on
// unsupported input.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}
	return v
}

// ToAny converts v back into plain Go data: nil, bool, float64, string,
// time.Time, []any and map[string]any.
func ToAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindDate:
		return v.t
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = ToAny(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj.keys))
		for _, k := range v.obj.keys {
			out[k] = ToAny(v.obj.fields[k])
		}
		return out
	default:
		return nil
	}
}

// Decode copies v into out, which must be a pointer to a type that can be
// decoded from JSON (typically a struct mirroring the form values).
func Decode(v Value, out any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("value: decode into %T: %w", out, err)
	}
	return nil
}
