package validation

import (
	"context"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/value"
)

// FormValidator checks the whole value tree. It may pass, pass with an
// advisory message, or reject with structured field errors.
type FormValidator func(ctx context.Context, values value.Value) Verdict

type verdictKind uint8

const (
	verdictPass verdictKind = iota
	verdictAdvise
	verdictReject
)

// Verdict is the result of a FormValidator.
type Verdict struct {
	kind    verdictKind
	message string
	errors  errval.Error
}

// Pass accepts the values.
func Pass() Verdict { return Verdict{kind: verdictPass} }

// Advise accepts the values and attaches a message for display. An empty
// message is a plain pass.
func Advise(message string) Verdict {
	if message == "" {
		return Pass()
	}
	return Verdict{kind: verdictAdvise, message: message}
}

// Reject refuses the values with errors shaped like the value tree. A valid
// error tree is still a rejection; callers decide how to surface it.
func Reject(errs errval.Error) Verdict {
	return Verdict{kind: verdictReject, errors: errs}
}

// Rejected reports whether the verdict blocks submission.
func (v Verdict) Rejected() bool { return v.kind == verdictReject }

// Message returns the advisory message, if any.
func (v Verdict) Message() string { return v.message }

// Errors returns the structured errors of a rejection.
func (v Verdict) Errors() errval.Error { return v.errors }

// Chain runs validators in order and returns the first rejection. Advisory
// messages are kept from the last validator that gave one.
func Chain(validators ...FormValidator) FormValidator {
	return func(ctx context.Context, values value.Value) Verdict {
		out := Pass()
		for _, validate := range validators {
			if validate == nil {
				continue
			}
			verdict := validate(ctx, values)
			if verdict.Rejected() {
				return verdict
			}
			if verdict.message != "" {
				out = verdict
			}
		}
		return out
	}
}
