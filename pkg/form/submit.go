package form

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

// SubmitStatus is the outcome of a submit attempt.
type SubmitStatus string

const (
	// Submitted means the submit function ran.
	Submitted SubmitStatus = "submitted"
	// Rejected means the form validator returned structured errors; they were
	// merged into the error tree.
	Rejected SubmitStatus = "rejected"
	// Invalid means stored errors blocked the submit function.
	Invalid SubmitStatus = "invalid"
)

// SubmitResult reports a submit attempt.
type SubmitResult struct {
	Status  SubmitStatus
	Message string
	Values  value.Value
}

// Submit runs the form validator when one is configured, then refuses to
// submit while any stored error is invalid. Otherwise it calls the submit
// function with the current values and stores its message as the form
// message. Validation outcomes are reported in the result; the error is only
// set when ctx is done.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, fmt.Errorf("form: submit: %w", err)
	}

	if f.validateOnSubmit {
		f.Validate(ctx)
	}

	advice := ""
	if f.validator != nil {
		verdict := f.validator(ctx, f.Values())
		if verdict.Rejected() {
			state := f.mergeErrors(verdict.Errors())
			f.logger.Debug("form submit rejected", slog.Any("paths", errval.Paths(verdict.Errors())))
			return SubmitResult{Status: Rejected, Values: state.Values}, nil
		}
		advice = verdict.Message()
	}

	f.mu.Lock()
	values := f.values
	valid := errval.IsValid(f.errors)
	if !valid {
		f.message = advice
	}
	state := f.stateLocked()
	f.mu.Unlock()

	if !valid {
		f.logger.Debug("form submit blocked", slog.Any("paths", errval.Paths(state.Errors)))
		f.notify(state)
		return SubmitResult{Status: Invalid, Message: advice, Values: values}, nil
	}

	if err := ctx.Err(); err != nil {
		return SubmitResult{}, fmt.Errorf("form: submit: %w", err)
	}
	message := ""
	if f.submit != nil {
		message = f.submit(ctx, values)
	}

	f.mu.Lock()
	f.message = message
	state = f.stateLocked()
	f.mu.Unlock()

	f.logger.Debug("form submitted", slog.Bool("message", message != ""))
	f.notify(state)
	return SubmitResult{Status: Submitted, Message: message, Values: values}, nil
}

func (f *Form) mergeErrors(patch errval.Error) State {
	f.mu.Lock()
	f.errors = errval.Merge(f.errors, patch)
	f.message = ""
	state := f.stateLocked()
	f.mu.Unlock()
	f.notify(state)
	return state
}

// Validate runs the field pipeline for every position that has rules and
// reports whether the form is valid afterwards.
func (f *Form) Validate(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, path := range f.validatedPaths() {
		b, err := f.FieldAt(path...)
		if err != nil {
			// the position vanished under a concurrent write
			continue
		}
		b.Validate(ctx)
	}
	return f.IsValid()
}

func (f *Form) validatedPaths() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	var walk func(v value.Value, path []string)
	walk = func(v value.Value, path []string) {
		if !f.rulesFor(path, v).IsZero() {
			out = append(out, path)
		}
		switch v.Kind() {
		case value.KindObject:
			for _, key := range v.Keys() {
				child, _ := v.Field(key)
				walk(child, childSegments(path, key))
			}
		case value.KindArray:
			for i, item := range v.Items() {
				walk(item, childSegments(path, strconv.Itoa(i)))
			}
		}
	}
	walk(f.values, nil)
	return out
}

// rulesFor resolves the rules of the position at segments: explicit rules
// first (exact, then wildcard patterns in sorted order), then rules derived
// from the editor config. Patterns compare segment by segment, so a key
// holding a dot never matches a nested pattern.
func (f *Form) rulesFor(segments []string, v value.Value) validation.Rules {
	exact := make([]string, 0, len(f.rules))
	wild := make([]string, 0, len(f.rules))
	for pattern := range f.rules {
		if strings.Contains(pattern, "*") {
			wild = append(wild, pattern)
		} else {
			exact = append(exact, pattern)
		}
	}
	for _, pattern := range exact {
		if slices.Equal(patternSegments(pattern), segments) {
			return f.rules[pattern]
		}
	}
	sort.Strings(wild)
	for _, pattern := range wild {
		if matchPattern(patternSegments(pattern), segments) {
			return f.rules[pattern]
		}
	}

	if f.config == nil {
		return validation.Rules{}
	}
	cfg := *f.config
	for _, segment := range segments {
		cfg = cfg.Child(segment)
	}
	kind, err := editor.Resolve(v, cfg.Mode())
	if err != nil {
		return validation.Rules{}
	}
	return cfg.Rules(kind)
}

func matchPattern(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, p := range pattern {
		if p == "*" {
			if _, err := strconv.Atoi(segments[i]); err != nil {
				return false
			}
			continue
		}
		if p != segments[i] {
			return false
		}
	}
	return true
}

func patternSegments(pattern string) []string {
	if pattern == "" {
		return nil
	}
	return strings.Split(pattern, ".")
}

func normalizePattern(path string) string {
	return strings.Join(value.SplitPath(path), ".")
}
