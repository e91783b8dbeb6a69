package errval

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by an Error.
type Kind uint8

const (
	// KindAbsent means no error was recorded at this position.
	KindAbsent Kind = iota
	// KindFlag is a boolean: false is explicitly valid, true is invalid without
	// a message.
	KindFlag
	// KindMessage is an invalid position carrying a display message.
	KindMessage
	// KindArray mirrors an array value; slots may be missing.
	KindArray
	// KindObject mirrors an object value; keys may be missing.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindFlag:
		return "flag"
	case KindMessage:
		return "message"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Error is the validation state of one position in a value tree. It is
// immutable; the With* methods return modified copies. The zero Error is
// absent.
type Error struct {
	kind   Kind
	flag   bool
	msg    string
	items  []Error
	fields map[string]Error
}

// None returns the absent error.
func None() Error { return Error{} }

// Valid returns the explicit "no error" flag.
func Valid() Error { return Error{kind: KindFlag} }

// Invalid returns the "invalid, no message" flag.
func Invalid() Error { return Error{kind: KindFlag, flag: true} }

// Message returns an invalid error carrying msg. An empty message becomes
// Invalid().
func Message(msg string) Error {
	if msg == "" {
		return Invalid()
	}
	return Error{kind: KindMessage, msg: msg}
}

// List builds an array-shaped error. Absent entries are allowed; trailing
// ones are dropped.
func List(items ...Error) Error {
	out := make([]Error, len(items))
	copy(out, items)
	return Error{kind: KindArray, items: trimAbsent(out)}
}

// Fields builds an object-shaped error. Absent entries are dropped.
func Fields(fields map[string]Error) Error {
	out := make(map[string]Error, len(fields))
	for k, f := range fields {
		if f.kind == KindAbsent {
			continue
		}
		out[k] = f
	}
	return Error{kind: KindObject, fields: out}
}

// Kind reports the variant.
func (e Error) Kind() Kind { return e.kind }

// IsAbsent reports whether nothing is recorded here.
func (e Error) IsAbsent() bool { return e.kind == KindAbsent }

// Flag returns the boolean payload; false for non-flag errors.
func (e Error) Flag() bool { return e.kind == KindFlag && e.flag }

// Text returns the message payload; empty for non-message errors.
func (e Error) Text() string {
	if e.kind != KindMessage {
		return ""
	}
	return e.msg
}

// Len returns the number of array slots or object keys.
func (e Error) Len() int {
	switch e.kind {
	case KindArray:
		return len(e.items)
	case KindObject:
		return len(e.fields)
	default:
		return 0
	}
}

// Keys returns the object keys, sorted.
func (e Error) Keys() []string {
	if e.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Child returns the error stored under name. Arrays accept decimal indices.
// Any shape mismatch yields None().
func (e Error) Child(name string) Error {
	switch e.kind {
	case KindObject:
		return e.fields[name]
	case KindArray:
		i, err := strconv.Atoi(name)
		if err != nil {
			return None()
		}
		return e.At(i)
	default:
		return None()
	}
}

// At returns the array slot i, or None() when missing or not an array.
func (e Error) At(i int) Error {
	if e.kind != KindArray || i < 0 || i >= len(e.items) {
		return None()
	}
	return e.items[i]
}

// WithChild returns a copy with name set to child. A non-object receiver is
// replaced by an object holding only child; an array receiver with a numeric
// name is written positionally. Setting None() removes the key.
func (e Error) WithChild(name string, child Error) Error {
	if e.kind == KindArray {
		if i, err := strconv.Atoi(name); err == nil {
			return e.WithAt(i, child)
		}
	}
	fields := make(map[string]Error, len(e.fields)+1)
	if e.kind == KindObject {
		for k, f := range e.fields {
			fields[k] = f
		}
	}
	if child.kind == KindAbsent {
		delete(fields, name)
	} else {
		fields[name] = child
	}
	return Error{kind: KindObject, fields: fields}
}

// WithAt returns a copy with slot i set to child, padding with None(). A
// non-array receiver is replaced by an array.
func (e Error) WithAt(i int, child Error) Error {
	if i < 0 {
		return e
	}
	var items []Error
	if e.kind == KindArray {
		items = e.items
	}
	size := len(items)
	if i >= size {
		size = i + 1
	}
	out := make([]Error, size)
	copy(out, items)
	out[i] = child
	return Error{kind: KindArray, items: trimAbsent(out)}
}

// WithoutAt returns a copy of an array error with the given slots removed so
// the remaining slots stay aligned with their items. Other shapes are
// returned unchanged.
func (e Error) WithoutAt(indices ...int) Error {
	if e.kind != KindArray || len(indices) == 0 {
		return e
	}
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	out := make([]Error, 0, len(e.items))
	for i, item := range e.items {
		if _, ok := drop[i]; ok {
			continue
		}
		out = append(out, item)
	}
	return Error{kind: KindArray, items: trimAbsent(out)}
}

func trimAbsent(items []Error) []Error {
	end := len(items)
	for end > 0 && items[end-1].kind == KindAbsent {
		end--
	}
	return items[:end]
}

// IsValid reports whether e and everything below it is absent or false. A true
// flag or a message anywhere makes the whole tree invalid.
func IsValid(e Error) bool {
	switch e.kind {
	case KindFlag:
		return !e.flag
	case KindMessage:
		return false
	case KindArray:
		for _, item := range e.items {
			if !IsValid(item) {
				return false
			}
		}
		return true
	case KindObject:
		for _, f := range e.fields {
			if !IsValid(f) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Merge overlays patch onto base. Composite positions of the same shape merge
// key by key (or slot by slot); elsewhere a present patch entry wins and an
// absent one keeps base.
func Merge(base, patch Error) Error {
	switch {
	case patch.kind == KindAbsent:
		return base
	case patch.kind == KindObject && base.kind == KindObject:
		out := base
		for k, f := range patch.fields {
			out = out.WithChild(k, Merge(base.fields[k], f))
		}
		return out
	case patch.kind == KindArray && base.kind == KindArray:
		out := base
		for i, item := range patch.items {
			if item.kind == KindAbsent {
				continue
			}
			out = out.WithAt(i, Merge(base.At(i), item))
		}
		return out
	default:
		return patch
	}
}

// String renders e for logs.
func (e Error) String() string {
	switch e.kind {
	case KindAbsent:
		return "<none>"
	case KindFlag:
		return strconv.FormatBool(e.flag)
	case KindMessage:
		return strconv.Quote(e.msg)
	case KindArray:
		parts := make([]string, len(e.items))
		for i, item := range e.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindObject:
		keys := e.Keys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + e.fields[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return e.kind.String()
	}
}
