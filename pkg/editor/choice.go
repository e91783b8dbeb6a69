package editor

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-typeform/pkg/value"
)

// NoSelection is the index of the placeholder entry of a select editor.
const NoSelection = -1

// SelectIndex returns the index of the option structurally equal to v, or
// NoSelection.
func SelectIndex(options []Option, v value.Value) int {
	for i, option := range options {
		if value.Equal(option.Value, v) {
			return i
		}
	}
	return NoSelection
}

// Choose returns the value of option index. The placeholder and out of range
// indices select nothing.
func Choose(options []Option, index int) (value.Value, bool) {
	if index <= NoSelection || index >= len(options) {
		return value.Null(), false
	}
	return options[index].Value, true
}

// OptionTexts lists the display text of each option, falling back to the
// option value.
func OptionTexts(options []Option) []string {
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = option.Text
		if out[i] == "" {
			out[i] = option.Value.String()
		}
	}
	return out
}

// ToggleNull is the write a null editor performs: enabled switches to the
// not-null replacement, disabled switches to null.
func ToggleNull(enabled bool, notNull value.Value) value.Value {
	if !enabled {
		return value.Null()
	}
	return notNull
}

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// Sanitize strips every HTML element from text, keeping its content.
func Sanitize(text string) string {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(stripPolicy.Sanitize(text))
}
