package errval

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeform/pkg/value"
)

// MergeMessages concatenates and normalises message slices, trimming
// whitespace and removing duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapPayload maps a server error payload (go-errors style: JSON pointers,
// dotted or bracket paths, optionally under body/data/payload wrappers) onto
// an error tree shaped like values. Every key resolves to the longest value
// path it matches; keys that match nothing, or name the form itself, become
// form-level messages so nothing is lost.
func MapPayload(values value.Value, payload map[string][]string) (Error, []string) {
	out := None()
	if len(payload) == 0 {
		return out, nil
	}

	valuePaths := make(map[string]struct{})
	collectValuePaths(values, "", valuePaths)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var formLevel []string
	fieldMessages := make(map[string][]string)
	var fieldOrder []string
	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		mapped, isForm := mapErrorPath(rawPath, valuePaths)
		if isForm || mapped == "" {
			formLevel = append(formLevel, messages...)
			continue
		}
		if _, seen := fieldMessages[mapped]; !seen {
			fieldOrder = append(fieldOrder, mapped)
		}
		fieldMessages[mapped] = append(fieldMessages[mapped], messages...)
	}

	for _, path := range fieldOrder {
		msg := strings.Join(normalizeMessages(fieldMessages[path]), " ")
		out = Set(out, values, path, Message(msg))
	}
	return out, normalizeMessages(formLevel)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, valuePaths map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range buildSegmentVariants(segments) {
		if path := longestMatchingPath(variant, valuePaths); path != "" {
			if len(value.SplitPath(path)) > len(value.SplitPath(best)) {
				best = path
			}
		}
	}

	if best != "" {
		return best, false
	}
	return "", true
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// buildSegmentVariants tries the path as given, without leading wrappers, and
// finally without indices (for errors addressed at an array as a whole).
func buildSegmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)

	appendVariant := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, append([]string(nil), candidate...))
	}

	appendVariant(segments)
	noWrappers := dropWrapperSegments(segments)
	appendVariant(noWrappers)
	appendVariant(stripNumericSegments(segments))
	appendVariant(stripNumericSegments(noWrappers))

	return variants
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestMatchingPath(segments []string, valuePaths map[string]struct{}) string {
	if len(segments) == 0 || len(valuePaths) == 0 {
		return ""
	}
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := valuePaths[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func collectValuePaths(v value.Value, prefix string, dest map[string]struct{}) {
	switch v.Kind() {
	case value.KindObject:
		for _, key := range v.Keys() {
			path := value.JoinPath(prefix, key)
			dest[path] = struct{}{}
			child, _ := v.Field(key)
			collectValuePaths(child, path, dest)
		}
	case value.KindArray:
		for i, item := range v.Items() {
			path := value.JoinPath(prefix, strconv.Itoa(i))
			dest[path] = struct{}{}
			collectValuePaths(item, path, dest)
		}
	}
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
