package editor

import (
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeform/pkg/value"
)

// ParseNumber turns editor text into a number the way a browser number field
// does: int editors take the longest integer prefix, float editors the
// longest decimal prefix. Text without a numeric prefix becomes 0. The result
// is clamped to min/max when set.
func ParseNumber(text string, typ NumberType, min, max *float64) float64 {
	var n float64
	var ok bool
	switch typ {
	case NumberFloat:
		n, ok = parseFloatPrefix(text)
	default:
		n, ok = parseIntPrefix(text)
	}
	if !ok || math.IsNaN(n) {
		n = 0
	}
	if min != nil && n < *min {
		n = *min
	}
	if max != nil && n > *max {
		n = *max
	}
	return n
}

// FormatEditorNumber is the canonical text of a committed number.
func FormatEditorNumber(n float64) string {
	if n == 0 {
		// no "-0"
		n = 0
	}
	return value.FormatNumber(n)
}

func parseIntPrefix(text string) (float64, bool) {
	s := strings.TrimLeft(text, " \t\n\r\f\v")
	end := signLen(s)
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	return n, err == nil
}

func parseFloatPrefix(text string) (float64, bool) {
	s := strings.TrimLeft(text, " \t\n\r\f\v")
	end := signLen(s)
	if strings.HasPrefix(s[end:], "Infinity") {
		if end > 0 && s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	mantissa := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		frac := end + 1
		for frac < len(s) && isDigit(s[frac]) {
			frac++
			mantissa++
		}
		if mantissa > 0 {
			end = frac
		}
	}
	if mantissa == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		exp += signLen(s[exp:])
		start := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// out of range still yields ±Inf, like the browser
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n, true
		}
		return 0, false
	}
	return n, true
}

func signLen(s string) int {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// NumberBuffer keeps the text of a number editor apart from its committed
// value, so intermediate input like "-" or "3." survives until it resolves
// or the editor loses focus.
type NumberBuffer struct {
	typ      NumberType
	min, max *float64
	text     string
	value    float64
}

// NewNumberBuffer starts a buffer showing v.
func NewNumberBuffer(v float64, cfg Config) *NumberBuffer {
	return &NumberBuffer{
		typ:   cfg.Number,
		min:   cfg.Min,
		max:   cfg.Max,
		text:  FormatEditorNumber(v),
		value: v,
	}
}

// Text is what the editor displays.
func (b *NumberBuffer) Text() string { return b.text }

// Value is the last committed number.
func (b *NumberBuffer) Value() float64 { return b.value }

// Change records typed text. It commits and returns true only when the text
// is already the canonical form of the number it parses to.
func (b *NumberBuffer) Change(text string) (float64, bool) {
	b.text = text
	n := ParseNumber(text, b.typ, b.min, b.max)
	if text != FormatEditorNumber(n) {
		return b.value, false
	}
	b.value = n
	return n, true
}

// Blur commits whatever the text parses to and normalizes the text.
func (b *NumberBuffer) Blur() float64 {
	b.value = ParseNumber(b.text, b.typ, b.min, b.max)
	b.text = FormatEditorNumber(b.value)
	return b.value
}

// Sync replaces the buffer after the value changed elsewhere.
func (b *NumberBuffer) Sync(v float64) {
	b.value = v
	b.text = FormatEditorNumber(v)
}

// Valid reports whether the displayed text is a canonical number.
func (b *NumberBuffer) Valid() bool {
	return b.text == FormatEditorNumber(ParseNumber(b.text, b.typ, b.min, b.max))
}
