package editor

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-typeform/pkg/value"
)

var (
	// ErrUnknownShape is returned when no editor governs a value's shape.
	ErrUnknownShape = errors.New("editor: unknown value shape")
	// ErrCustomUnsupported is returned for the custom editor mode.
	ErrCustomUnsupported = errors.New("editor: custom editors are not implemented")
)

// Kind names the editor template that governs a value.
type Kind string

// Editor kinds.
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindNull    Kind = "null"
	KindSelect  Kind = "select"
)

// Mode selects how a binding is edited.
type Mode string

// Editing modes. The zero Mode is ModeInput.
const (
	ModeInput  Mode = "input"
	ModeSelect Mode = "select"
	ModeCustom Mode = "custom"
)

// Resolve maps a value's runtime shape to its editor. Select mode always
// yields KindSelect; custom mode fails with ErrCustomUnsupported.
func Resolve(v value.Value, mode Mode) (Kind, error) {
	switch mode {
	case ModeSelect:
		return KindSelect, nil
	case ModeCustom:
		return "", ErrCustomUnsupported
	case "", ModeInput:
	default:
		return "", fmt.Errorf("editor: unknown mode %q", mode)
	}

	switch v.Kind() {
	case value.KindNumber:
		return KindNumber, nil
	case value.KindString:
		return KindString, nil
	case value.KindBool:
		return KindBoolean, nil
	case value.KindDate:
		return KindDate, nil
	case value.KindArray:
		return KindArray, nil
	case value.KindNull:
		return KindNull, nil
	case value.KindObject:
		return KindObject, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownShape, v.Kind())
	}
}
