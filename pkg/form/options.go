package form

import (
	"log/slog"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/validation"
)

// Option configures a Form.
type Option func(*Form)

// WithValidator sets the whole-form validator run on submit.
func WithValidator(validator validation.FormValidator) Option {
	return func(f *Form) {
		f.validator = validator
	}
}

// WithValidateOnChange also runs the form validator after every value edit.
// A rejection then replaces the error tree and an advisory result sets the
// form message.
func WithValidateOnChange() Option {
	return func(f *Form) {
		f.validateOnChange = true
	}
}

// WithValidateBeforeSubmit runs every field pipeline before Submit checks
// validity, so untouched required fields block submission too.
func WithValidateBeforeSubmit() Option {
	return func(f *Form) {
		f.validateOnSubmit = true
	}
}

// WithRules attaches validation rules to a dotted path. A "*" segment matches
// any array index ("items.*.name"). Rules set here take precedence over rules
// derived from the editor config.
func WithRules(path string, rules validation.Rules) Option {
	return func(f *Form) {
		f.rules[normalizePattern(path)] = rules
	}
}

// WithConfig derives validation rules from editor configuration: required
// flags, caller validators and the built-in checks of each field's editor.
func WithConfig(cfg editor.Config) Option {
	return func(f *Form) {
		f.config = &cfg
	}
}

// WithLogger sets the logger. nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOnChange registers a callback receiving the state after every write.
// It runs outside the form lock, on the writing goroutine.
func WithOnChange(fn func(State)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}
