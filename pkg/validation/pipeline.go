package validation

import (
	"context"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/value"
)

// Rules is the validation configuration of one field.
type Rules struct {
	Required        bool
	RequiredMessage string
	// OnValidate is the caller's validator. It runs before Validators.
	OnValidate FieldValidator
	// Validators are the built-in checks contributed by the field's editor.
	Validators []FieldValidator
}

// IsZero reports whether the rules check nothing.
func (r Rules) IsZero() bool {
	return !r.Required && r.OnValidate == nil && len(r.Validators) == 0
}

// Result is what an editor displays for a field.
type Result struct {
	Valid   bool
	Message string
}

// Outcome is the result of running the field pipeline once.
type Outcome struct {
	Result Result
	// Computed is the error the pipeline wants stored for the field.
	Computed errval.Error
	// Write is false when the stored error must be left alone, either because
	// an external error short-circuited the pipeline or because Computed
	// already equals the stored error.
	Write bool
}

// Evaluate runs the field pipeline:
//
//  1. an external message error wins as-is;
//  2. an external "invalid" flag wins as-is;
//  3. a failing required check yields the required message;
//  4. the caller validator runs, then the built-ins when it passes;
//  5. otherwise the field is valid.
//
// external reports whether stored was pushed from outside the pipeline.
func Evaluate(ctx context.Context, v value.Value, stored errval.Error, external bool, rules Rules) Outcome {
	if external {
		switch stored.Kind() {
		case errval.KindMessage:
			return Outcome{Result: Result{Message: stored.Text()}, Computed: stored}
		case errval.KindFlag:
			if stored.Flag() {
				return Outcome{Result: Result{}, Computed: stored}
			}
		}
	}

	computed := errval.Valid()
	switch {
	case rules.Required && IsEmpty(v):
		computed = ValidateRequired(v, rules.RequiredMessage)
	case rules.OnValidate != nil || len(rules.Validators) > 0:
		computed = Compose(rules.OnValidate, Compose(rules.Validators...))(ctx, v)
	}

	return Outcome{
		Result:   ResultOf(computed),
		Computed: computed,
		Write:    !errval.Equal(computed, stored),
	}
}

// ResultOf summarises an error for display.
func ResultOf(e errval.Error) Result {
	if errval.IsValid(e) {
		return Result{Valid: true}
	}
	return Result{Message: e.Text()}
}
