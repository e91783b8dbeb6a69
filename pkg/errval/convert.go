package errval

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-typeform/pkg/value"
)

var equalOptions = cmp.Options{
	cmp.AllowUnexported(Error{}),
	cmpopts.EquateEmpty(),
}

// Equal reports structural equality. Trailing absent array slots do not
// count.
func Equal(a, b Error) bool {
	return cmp.Equal(a, b, equalOptions)
}

// CmpOptions exposes the comparison options for cmp.Diff in tests.
func CmpOptions() cmp.Options {
	return equalOptions
}

// FromAny decodes a loose error payload: nil, bool, string, []any,
// map[string]any (and their typed variants). Shapes it does not recognise are
// treated as absent.
func FromAny(in any) Error {
	switch v := in.(type) {
	case nil:
		return None()
	case Error:
		return v
	case bool:
		if v {
			return Invalid()
		}
		return Valid()
	case string:
		return Message(v)
	case []string:
		return Message(strings.Join(normalizeMessages(v), " "))
	case []Error:
		return List(v...)
	case []any:
		items := make([]Error, len(v))
		for i, item := range v {
			items[i] = FromAny(item)
		}
		return List(items...)
	case map[string]Error:
		return Fields(v)
	case map[string]any:
		fields := make(map[string]Error, len(v))
		for k, item := range v {
			fields[k] = FromAny(item)
		}
		return Fields(fields)
	default:
		return None()
	}
}

// ToAny converts e into plain data: nil, bool, string, []any or
// map[string]any.
func ToAny(e Error) any {
	switch e.kind {
	case KindFlag:
		return e.flag
	case KindMessage:
		return e.msg
	case KindArray:
		out := make([]any, len(e.items))
		for i, item := range e.items {
			out[i] = ToAny(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(e.fields))
		for k, f := range e.fields {
			out[k] = ToAny(f)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToAny(e))
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = FromAny(raw)
	return nil
}

// Get walks a dotted path through e. Missing positions yield None().
func Get(e Error, path string) Error {
	return GetAt(e, value.SplitPath(path)...)
}

// GetAt walks raw segments through e. Missing positions yield None().
func GetAt(e Error, segments ...string) Error {
	current := e
	for _, segment := range segments {
		current = current.Child(segment)
		if current.kind == KindAbsent {
			return current
		}
	}
	return current
}

// Set writes leaf at path. shape is the value tree e annotates; it decides
// whether numeric segments address array slots or object keys.
func Set(e Error, shape value.Value, path string, leaf Error) Error {
	return setSegments(e, shape, value.SplitPath(path), leaf)
}

func setSegments(e Error, shape value.Value, segments []string, leaf Error) Error {
	if len(segments) == 0 {
		return leaf
	}
	segment := segments[0]
	if shape.Kind() == value.KindArray {
		if i, err := strconv.Atoi(segment); err == nil {
			item, _ := shape.Index(i)
			return e.WithAt(i, setSegments(e.At(i), item, segments[1:], leaf))
		}
	}
	child, _ := shape.Field(segment)
	return e.WithChild(segment, setSegments(e.Child(segment), child, segments[1:], leaf))
}

// Paths lists the dotted paths of every invalid leaf, sorted.
func Paths(e Error) []string {
	segments := InvalidSegments(e)
	out := make([]string, len(segments))
	for i, path := range segments {
		out[i] = strings.Join(path, ".")
	}
	return out
}

// InvalidSegments lists the segment paths of every invalid leaf, ordered by
// their dotted form. Unlike Paths the segments survive keys that contain
// dots or spaces.
func InvalidSegments(e Error) [][]string {
	var out [][]string
	collectInvalid(e, nil, &out)
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.Join(out[i], "."), strings.Join(out[j], ".")
		if a != b {
			return a < b
		}
		return slices.Compare(out[i], out[j]) < 0
	})
	return out
}

func collectInvalid(e Error, prefix []string, out *[][]string) {
	switch e.kind {
	case KindFlag, KindMessage:
		if !IsValid(e) {
			*out = append(*out, append([]string(nil), prefix...))
		}
	case KindArray:
		for i, item := range e.items {
			collectInvalid(item, append(prefix[:len(prefix):len(prefix)], strconv.Itoa(i)), out)
		}
	case KindObject:
		for k, f := range e.fields {
			collectInvalid(f, append(prefix[:len(prefix):len(prefix)], k), out)
		}
	}
}
