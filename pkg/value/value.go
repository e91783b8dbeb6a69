package value

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrUnsupported is returned when a Go value has no Value representation.
	ErrUnsupported = errors.New("value: unsupported shape")
	// ErrNotObject is returned by object writes on a non-object value.
	ErrNotObject = errors.New("value: not an object")
	// ErrNotArray is returned by array writes on a non-array value.
	ErrNotArray = errors.New("value: not an array")
	// ErrIndexRange is returned when an array index is out of range.
	ErrIndexRange = errors.New("value: index out of range")
)

// Value is an immutable snapshot of one editable datum. The zero Value is
// null. Writes never mutate the receiver; they return a new Value that shares
// every untouched child with the original.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	t     time.Time
	items []Value
	obj   *object
}

type object struct {
	keys   []string
	fields map[string]Value
}

// Field is a single key/value pair used to build ordered objects.
type Field struct {
	Name  string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an integer as a number.
func Int(n int) Value { return Value{kind: KindNumber, n: float64(n)} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Date wraps a point in time.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Array builds an array from the supplied items.
func Array(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindArray, items: out}
}

// Object builds an object preserving the order of the supplied fields. Later
// duplicates overwrite earlier ones but keep the first position.
func Object(fields ...Field) Value {
	obj := &object{
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]Value, len(fields)),
	}
	for _, f := range fields {
		if _, exists := obj.fields[f.Name]; !exists {
			obj.keys = append(obj.keys, f.Name)
		}
		obj.fields[f.Name] = f.Value
	}
	return Value{kind: KindObject, obj: obj}
}

// F is shorthand for constructing a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is null. Encoders use it for omitempty.
func (v Value) IsZero() bool { return v.kind == KindNull }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; false for other kinds.
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsNumber returns the numeric payload; 0 for other kinds.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.n
}

// AsString returns the string payload; empty for other kinds.
func (v Value) AsString() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// AsDate returns the date payload; the zero time for other kinds.
func (v Value) AsDate() time.Time {
	if v.kind != KindDate {
		return time.Time{}
	}
	return v.t
}

// Len returns the number of items (arrays) or keys (objects).
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.obj.keys)
	default:
		return 0
	}
}

// Items returns a copy of the array items.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Index returns the item at i.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Keys returns the object keys in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return append([]string(nil), v.obj.keys...)
}

// Field returns the value stored under name.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	out, ok := v.obj.fields[name]
	return out, ok
}

// With returns a copy of the object with name set to field. New keys are
// appended after the existing ones.
func (v Value) With(name string, field Value) (Value, error) {
	if v.kind != KindObject {
		return v, fmt.Errorf("%w: set %q on %s", ErrNotObject, name, v.kind)
	}
	next := &object{
		keys:   v.obj.keys,
		fields: make(map[string]Value, len(v.obj.fields)+1),
	}
	for k, f := range v.obj.fields {
		next.fields[k] = f
	}
	if _, exists := v.obj.fields[name]; !exists {
		next.keys = append(append(make([]string, 0, len(v.obj.keys)+1), v.obj.keys...), name)
	}
	next.fields[name] = field
	return Value{kind: KindObject, obj: next}, nil
}

// WithIndex returns a copy of the array with item i replaced.
func (v Value) WithIndex(i int, item Value) (Value, error) {
	if v.kind != KindArray {
		return v, fmt.Errorf("%w: set index %d on %s", ErrNotArray, i, v.kind)
	}
	if i < 0 || i >= len(v.items) {
		return v, fmt.Errorf("%w: %d (len %d)", ErrIndexRange, i, len(v.items))
	}
	items := make([]Value, len(v.items))
	copy(items, v.items)
	items[i] = item
	return Value{kind: KindArray, items: items}, nil
}

// Append returns a copy of the array with item added at the end.
func (v Value) Append(item Value) (Value, error) {
	if v.kind != KindArray {
		return v, fmt.Errorf("%w: append on %s", ErrNotArray, v.kind)
	}
	items := make([]Value, len(v.items), len(v.items)+1)
	copy(items, v.items)
	return Value{kind: KindArray, items: append(items, item)}, nil
}

// Without returns a copy of the array without the items for which drop
// returns true, along with the indices that were removed.
func (v Value) Without(drop func(Value) bool) (Value, []int, error) {
	if v.kind != KindArray {
		return v, nil, fmt.Errorf("%w: remove on %s", ErrNotArray, v.kind)
	}
	items := make([]Value, 0, len(v.items))
	var removed []int
	for i, item := range v.items {
		if drop(item) {
			removed = append(removed, i)
			continue
		}
		items = append(items, item)
	}
	return Value{kind: KindArray, items: items}, removed, nil
}

// String renders v for display. Numbers use their shortest form, dates
// RFC 3339.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(time.RFC3339)
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return v.kind.String()
		}
		return string(data)
	}
}

// FormatNumber renders n in its canonical short form ("12", "0.5", "-3").
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
