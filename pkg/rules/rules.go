package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/rules/expr"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

// ErrMessageRequired is returned for form-level rules without a message.
var ErrMessageRequired = errors.New("rules: form-level rule needs a message")

// Rule is one declarative cross-field check. When is an expression over the
// form values; when it holds the rule is violated. A rule with a Field
// rejects the values with Message stored at that path. A rule without a
// Field only advises: Message becomes the form message and submission goes
// on.
type Rule struct {
	Field   string `yaml:"field,omitempty" json:"field,omitempty"`
	When    string `yaml:"when" json:"when"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger used for rules that fail to evaluate.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Set) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type compiled struct {
	rule Rule
	when *expr.Expression
}

// Set is a compiled list of rules.
type Set struct {
	rules  []compiled
	logger *slog.Logger
}

// Compile checks and compiles rules in order.
func Compile(list []Rule, opts ...Option) (*Set, error) {
	s := &Set{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	for i, rule := range list {
		when, err := expr.Compile(rule.When)
		if err != nil {
			return nil, fmt.Errorf("rules: rule %d (%s): %w", i, describe(rule), err)
		}
		if strings.TrimSpace(rule.Field) == "" && strings.TrimSpace(rule.Message) == "" {
			return nil, fmt.Errorf("%w: rule %d (%s)", ErrMessageRequired, i, describe(rule))
		}
		rule.Field = strings.Join(value.SplitPath(rule.Field), ".")
		s.rules = append(s.rules, compiled{rule: rule, when: when})
	}
	return s, nil
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Validate evaluates every rule. Field violations are collected into one
// rejection, the first message per field winning. Without field violations
// the advisory messages are joined into one. A rule that cannot be evaluated
// against the values (for example ordering a string against an object) is
// logged and skipped.
func (s *Set) Validate(ctx context.Context, values value.Value) validation.Verdict {
	errs := errval.None()
	rejected := false
	var advice []string

	for _, c := range s.rules {
		if ctx.Err() != nil {
			break
		}
		hit, err := c.when.Eval(values)
		if err != nil {
			s.logger.Warn("rule not evaluated", slog.String("when", c.when.String()), slog.Any("error", err))
			continue
		}
		if !hit {
			continue
		}
		if c.rule.Field == "" {
			advice = append(advice, c.rule.Message)
			continue
		}
		if !errval.Get(errs, c.rule.Field).IsAbsent() {
			continue
		}
		leaf := errval.Message(c.rule.Message)
		errs = errval.Set(errs, values, c.rule.Field, leaf)
		rejected = true
	}

	if rejected {
		return validation.Reject(errs)
	}
	return validation.Advise(strings.Join(advice, " "))
}

// Validator returns Validate as a form validator.
func (s *Set) Validator() validation.FormValidator {
	return s.Validate
}

func describe(rule Rule) string {
	if rule.Field != "" {
		return rule.Field
	}
	return "form"
}
