package editor

import (
	"time"
)

// Default date layouts: the editable text and the human readable hint.
const (
	DefaultWriteLayout = "2. 1. 2006 15:04:05"
	DefaultReadLayout  = "January 2, 2006 3:04 PM"
)

// DateBuffer keeps the text of a date editor apart from its committed value.
// Text is parsed strictly with the write layout when the editor loses focus;
// unparseable text reverts to the committed value.
type DateBuffer struct {
	write, read string
	text        string
	value       time.Time
}

// NewDateBuffer starts a buffer showing t.
func NewDateBuffer(t time.Time, cfg Config) *DateBuffer {
	b := &DateBuffer{write: cfg.FormatWrite, read: cfg.FormatRead}
	if b.write == "" {
		b.write = DefaultWriteLayout
	}
	if b.read == "" {
		b.read = DefaultReadLayout
	}
	b.Sync(t)
	return b
}

// Text is what the editor displays.
func (b *DateBuffer) Text() string { return b.text }

// Value is the last committed date.
func (b *DateBuffer) Value() time.Time { return b.value }

// Change records typed text without committing.
func (b *DateBuffer) Change(text string) { b.text = text }

// Valid reports whether the text parses under the write layout.
func (b *DateBuffer) Valid() bool {
	_, err := b.parse(b.text)
	return err == nil
}

// Hint renders the text (or the committed value when the text does not
// parse) with the read layout, for display next to the label.
func (b *DateBuffer) Hint() string {
	if t, err := b.parse(b.text); err == nil {
		return t.Format(b.read)
	}
	return b.value.Format(b.read)
}

// Blur commits the text when it parses and reports whether it did; otherwise
// the text reverts to the committed value.
func (b *DateBuffer) Blur() (time.Time, bool) {
	t, err := b.parse(b.text)
	if err != nil {
		b.text = b.value.Format(b.write)
		return b.value, false
	}
	b.Sync(t)
	return t, true
}

// Sync replaces the buffer after the value changed elsewhere.
func (b *DateBuffer) Sync(t time.Time) {
	b.value = t
	b.text = t.Format(b.write)
}

func (b *DateBuffer) parse(text string) (time.Time, error) {
	loc := b.value.Location()
	return time.ParseInLocation(b.write, text, loc)
}
