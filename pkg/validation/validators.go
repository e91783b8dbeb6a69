package validation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/value"
)

// Default messages of the built-in validators.
const (
	MessageRequired   = "Required."
	MessageInt        = "The number has to be integer."
	MessageDate       = "The date is not valid."
	MessageDateFormat = "Date is not in right format."
	MessageMail       = "Not valid e-mail."
)

var mailPattern = regexp.MustCompile(`^(([^<>()[\]\\.,;:\s@"]+(\.[^<>()[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// FieldValidator checks one field value. It returns errval.Valid() (or
// absent) when the value passes and an invalid error otherwise.
type FieldValidator func(ctx context.Context, v value.Value) errval.Error

// Compose chains validators; the first invalid result wins.
func Compose(validators ...FieldValidator) FieldValidator {
	return func(ctx context.Context, v value.Value) errval.Error {
		for _, validate := range validators {
			if validate == nil {
				continue
			}
			if err := validate(ctx, v); !errval.IsValid(err) {
				return err
			}
		}
		return errval.Valid()
	}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// ValidateRequired fails for null, false, the empty string and zero.
func ValidateRequired(v value.Value, message string) errval.Error {
	if IsEmpty(v) {
		return errval.Message(orDefault(message, MessageRequired))
	}
	return errval.Valid()
}

// IsEmpty reports whether v counts as "not filled in" for the required check.
func IsEmpty(v value.Value) bool {
	switch v.Kind() {
	case value.KindNull:
		return true
	case value.KindBool:
		return !v.AsBool()
	case value.KindString:
		return v.AsString() == ""
	case value.KindNumber:
		return v.AsNumber() == 0
	default:
		return false
	}
}

// ValidateInt fails unless v is an integral number.
func ValidateInt(v value.Value, message string) errval.Error {
	n := v.AsNumber()
	if v.Kind() != value.KindNumber || math.IsInf(n, 0) || n != math.Trunc(n) {
		return errval.Message(orDefault(message, MessageInt))
	}
	return errval.Valid()
}

// ValidateMin fails for null, non-numbers and numbers below min.
func ValidateMin(v value.Value, min float64, message string) errval.Error {
	if v.Kind() != value.KindNumber || v.AsNumber() < min {
		return errval.Message(orDefault(message, fmt.Sprintf("Value has to be minimum %s.", value.FormatNumber(min))))
	}
	return errval.Valid()
}

// ValidateMax fails for null, non-numbers and numbers above max.
func ValidateMax(v value.Value, max float64, message string) errval.Error {
	if v.Kind() != value.KindNumber || v.AsNumber() > max {
		return errval.Message(orDefault(message, fmt.Sprintf("Value has to be maximum %s.", value.FormatNumber(max))))
	}
	return errval.Valid()
}

// ValidateDate fails for null, non-dates and the zero time.
func ValidateDate(v value.Value, message string) errval.Error {
	if v.Kind() != value.KindDate || v.AsDate().IsZero() {
		return errval.Message(orDefault(message, MessageDate))
	}
	return errval.Valid()
}

// ValidateDateString fails unless v is a string that parses strictly under
// the Go time layout.
func ValidateDateString(v value.Value, layout, message string) errval.Error {
	if v.Kind() != value.KindString {
		return errval.Message(orDefault(message, MessageDateFormat))
	}
	if _, err := time.Parse(layout, v.AsString()); err != nil {
		return errval.Message(orDefault(message, MessageDateFormat))
	}
	return errval.Valid()
}

// ValidateMail fails unless v is a string shaped like an e-mail address.
func ValidateMail(v value.Value, message string) errval.Error {
	if v.Kind() != value.KindString || !mailPattern.MatchString(v.AsString()) {
		return errval.Message(orDefault(message, MessageMail))
	}
	return errval.Valid()
}

// ValidateMinLength fails for strings shorter than n runes and arrays with
// fewer than n items. Other kinds pass.
func ValidateMinLength(v value.Value, n int, message string) errval.Error {
	if size, ok := length(v); ok && size < n {
		return errval.Message(orDefault(message, fmt.Sprintf("Value has to be at least %d long.", n)))
	}
	return errval.Valid()
}

// ValidateMaxLength fails for strings longer than n runes and arrays with
// more than n items. Other kinds pass.
func ValidateMaxLength(v value.Value, n int, message string) errval.Error {
	if size, ok := length(v); ok && size > n {
		return errval.Message(orDefault(message, fmt.Sprintf("Value has to be at most %d long.", n)))
	}
	return errval.Valid()
}

// ValidatePattern fails for strings that do not match re.
func ValidatePattern(v value.Value, re *regexp.Regexp, message string) errval.Error {
	if re == nil {
		return errval.Valid()
	}
	if v.Kind() != value.KindString || !re.MatchString(v.AsString()) {
		return errval.Message(orDefault(message, "Value does not match the required pattern."))
	}
	return errval.Valid()
}

func length(v value.Value) (int, bool) {
	switch v.Kind() {
	case value.KindString:
		return utf8.RuneCountInString(v.AsString()), true
	case value.KindArray:
		return v.Len(), true
	default:
		return 0, false
	}
}

// Required wraps ValidateRequired as a FieldValidator.
func Required(message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateRequired(v, message)
	}
}

// Int wraps ValidateInt.
func Int(message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateInt(v, message)
	}
}

// Min wraps ValidateMin.
func Min(min float64, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateMin(v, min, message)
	}
}

// Max wraps ValidateMax.
func Max(max float64, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateMax(v, max, message)
	}
}

// Date wraps ValidateDate.
func Date(message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateDate(v, message)
	}
}

// DateString wraps ValidateDateString.
func DateString(layout, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateDateString(v, layout, message)
	}
}

// Mail wraps ValidateMail.
func Mail(message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateMail(v, message)
	}
}

// MinLength wraps ValidateMinLength.
func MinLength(n int, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateMinLength(v, n, message)
	}
}

// MaxLength wraps ValidateMaxLength.
func MaxLength(n int, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidateMaxLength(v, n, message)
	}
}

// Pattern wraps ValidatePattern.
func Pattern(re *regexp.Regexp, message string) FieldValidator {
	return func(_ context.Context, v value.Value) errval.Error {
		return ValidatePattern(v, re, message)
	}
}
