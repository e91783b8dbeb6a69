package value

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitPath breaks a dotted path into segments. Bracket indices are accepted
// as an alternative spelling: "items[2].name" equals "items.2.name".
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinPath appends child to a dotted parent path.
func JoinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// Get resolves a dotted path. Numeric segments index arrays.
func Get(root Value, path string) (Value, bool) {
	return GetAt(root, SplitPath(path)...)
}

// GetAt resolves a path given as raw segments. Segments are used verbatim, so
// object keys may contain dots, brackets, spaces or be empty.
func GetAt(root Value, segments ...string) (Value, bool) {
	current := root
	for _, segment := range segments {
		switch current.kind {
		case KindObject:
			next, ok := current.Field(segment)
			if !ok {
				return Null(), false
			}
			current = next
		case KindArray:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return Null(), false
			}
			next, ok := current.Index(idx)
			if !ok {
				return Null(), false
			}
			current = next
		default:
			return Null(), false
		}
	}
	return current, true
}

// Set writes v at path and returns the new root. Missing intermediate
// containers are created: an array when the following segment is numeric, an
// object otherwise. Arrays grow with null padding. Only the containers along
// the path are copied.
func Set(root Value, path string, v Value) (Value, error) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return v, nil
	}
	return setSegments(root, segments, v, path)
}

func setSegments(node Value, segments []string, v Value, path string) (Value, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch node.kind {
	case KindNull:
		if _, err := strconv.Atoi(segment); err == nil {
			node = Array()
		} else {
			node = Object()
		}
	case KindObject, KindArray:
	default:
		return node, fmt.Errorf("value: path %q: cannot descend into %s at %q", path, node.kind, segment)
	}

	if node.kind == KindObject {
		child, _ := node.Field(segment)
		if !last {
			next, err := setSegments(child, segments[1:], v, path)
			if err != nil {
				return node, err
			}
			v = next
		}
		return node.With(segment, v)
	}

	idx, err := strconv.Atoi(segment)
	if err != nil || idx < 0 {
		return node, fmt.Errorf("value: path %q: expected array index, got %q", path, segment)
	}
	items := node.items
	if idx >= len(items) {
		grown := make([]Value, idx+1)
		copy(grown, items)
		node = Value{kind: KindArray, items: grown}
	}
	child := node.items[idx]
	if !last {
		next, err := setSegments(child, segments[1:], v, path)
		if err != nil {
			return node, err
		}
		v = next
	}
	return node.WithIndex(idx, v)
}
