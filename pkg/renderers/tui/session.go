package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

const placeholder = "(keep current)"

// Session walks a form in the terminal: one prompt per leaf binding, nested
// groups and lists in declaration order, then submit. Invalid submissions
// offer to revisit the fields that carry errors.
type Session struct {
	driver   PromptDriver
	registry *editor.Registry
	logger   *slog.Logger
	theme    Theme
}

// New constructs a session with defaults (survey driver, built-in widgets).
func New(options ...Option) (*Session, error) {
	s := &Session{
		registry: editor.NewRegistry(),
		logger:   slog.Default(),
		theme:    DefaultTheme,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	return s, nil
}

// Run fills every field of f and submits it. It returns the last submit
// result; the error is set only when prompting fails or ctx is done.
func (s *Session) Run(ctx context.Context, f *form.Form) (form.SubmitResult, error) {
	if ctx == nil {
		return form.SubmitResult{}, errors.New("tui: context is required")
	}
	if f == nil {
		return form.SubmitResult{}, ErrNoForm
	}
	cfg := f.Config()

	for _, b := range f.Scope().Fields() {
		if err := s.fill(ctx, b, cfg.Child(b.Name())); err != nil {
			return form.SubmitResult{}, err
		}
	}

	for {
		result, err := f.Submit(ctx)
		if err != nil {
			return result, err
		}
		s.logger.Debug("tui submit", slog.String("status", string(result.Status)))
		if result.Message != "" {
			s.info(ctx, result.Message)
		}
		if result.Status == form.Submitted {
			return result, nil
		}

		paths := errval.InvalidSegments(f.Errors())
		if len(paths) == 0 {
			// nothing to revisit
			return result, nil
		}
		for _, path := range paths {
			s.fail(ctx, displayName(strings.Join(path, ".")), errval.GetAt(f.Errors(), path...).Text())
		}
		retry, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Fix invalid fields?", Default: true})
		if err != nil {
			return result, err
		}
		if !retry {
			return result, nil
		}
		for _, path := range paths {
			b, err := f.FieldAt(path...)
			if err != nil {
				s.logger.Debug("tui field gone", slog.Any("path", path), slog.Any("error", err))
				continue
			}
			if err := b.SetError(errval.None()); err != nil {
				return result, err
			}
			if err := s.fill(ctx, b, configAt(cfg, path)); err != nil {
				return result, err
			}
		}
	}
}

func (s *Session) fill(ctx context.Context, b *form.Binding, cfg editor.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, widget, err := s.registry.Resolve(editor.Target{Name: b.Name(), Value: b.Value(), Config: cfg})
	if err != nil {
		return fmt.Errorf("tui: %s: %w", displayName(b.Path()), err)
	}
	label := s.label(b, cfg)

	if cfg.ReadOnly {
		s.info(ctx, fmt.Sprintf("%s: %s", label, b.Value()))
		return nil
	}
	if stored := b.Error(); !errval.IsValid(stored) && (stored.Kind() == errval.KindMessage || stored.Kind() == errval.KindFlag) {
		s.fail(ctx, label, stored.Text())
		if err := b.SetError(errval.None()); err != nil {
			return err
		}
	}

	switch kind {
	case editor.KindObject:
		return s.fillGroup(ctx, b, cfg)
	case editor.KindArray:
		return s.fillList(ctx, b, cfg, label)
	case editor.KindNull:
		return s.fillNull(ctx, b, cfg, label)
	}

	for {
		v, err := s.prompt(ctx, b, cfg, kind, widget, label)
		if err != nil {
			return err
		}
		result, err := b.Edit(ctx, v)
		if err != nil {
			return err
		}
		if result.Valid {
			return nil
		}
		s.fail(ctx, label, message(result))
	}
}

func (s *Session) prompt(ctx context.Context, b *form.Binding, cfg editor.Config, kind editor.Kind, widget, label string) (value.Value, error) {
	current := b.Value()
	switch kind {
	case editor.KindSelect:
		return s.promptSelect(ctx, current, cfg, label)
	case editor.KindNumber:
		return s.promptNumber(ctx, current, cfg, label)
	case editor.KindBoolean:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current.AsBool(), Help: cfg.Help})
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(ok), nil
	case editor.KindDate:
		return s.promptDate(ctx, current, cfg, label)
	}

	var (
		text string
		err  error
	)
	input := InputConfig{Message: label, Default: current.AsString(), Help: cfg.Help}
	switch widget {
	case editor.WidgetPassword:
		text, err = s.driver.Password(ctx, input)
	case editor.WidgetTextArea:
		text, err = s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: input.Default, Help: cfg.Help})
	default:
		text, err = s.driver.Input(ctx, input)
	}
	if err != nil {
		return value.Null(), err
	}
	if cfg.StripMarkup {
		text = editor.Sanitize(text)
	}
	return value.String(text), nil
}

func (s *Session) promptSelect(ctx context.Context, current value.Value, cfg editor.Config, label string) (value.Value, error) {
	options := editor.OptionTexts(cfg.Options)
	selected := editor.SelectIndex(cfg.Options, current)
	offset := 0
	if selected == editor.NoSelection {
		options = append([]string{placeholder}, options...)
		offset = 1
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: selected + offset,
		Help:         cfg.Help,
	})
	if err != nil {
		return value.Null(), err
	}
	if v, ok := editor.Choose(cfg.Options, idx-offset); ok {
		return v, nil
	}
	return current, nil
}

func (s *Session) promptNumber(ctx context.Context, current value.Value, cfg editor.Config, label string) (value.Value, error) {
	buf := editor.NewNumberBuffer(current.AsNumber(), cfg)
	text, err := s.driver.Input(ctx, InputConfig{Message: label, Default: buf.Text(), Help: cfg.Help})
	if err != nil {
		return value.Null(), err
	}
	if _, ok := buf.Change(strings.TrimSpace(text)); !ok {
		n := buf.Blur()
		s.info(ctx, fmt.Sprintf("%s: using %s", label, editor.FormatEditorNumber(n)))
	}
	return value.Number(buf.Value()), nil
}

func (s *Session) promptDate(ctx context.Context, current value.Value, cfg editor.Config, label string) (value.Value, error) {
	buf := editor.NewDateBuffer(current.AsDate(), cfg)
	for {
		text, err := s.driver.Input(ctx, InputConfig{
			Message: label,
			Default: buf.Text(),
			Help:    strings.TrimSpace(cfg.Help + " " + buf.Hint()),
		})
		if err != nil {
			return value.Null(), err
		}
		buf.Change(strings.TrimSpace(text))
		if t, ok := buf.Blur(); ok {
			return value.Date(t), nil
		}
		s.fail(ctx, label, fmt.Sprintf("expected a date like %s", buf.Text()))
	}
}

func (s *Session) fillGroup(ctx context.Context, b *form.Binding, cfg editor.Config) error {
	scope, err := b.Object()
	if err != nil {
		return err
	}
	for _, child := range scope.Fields() {
		if err := s.fill(ctx, child, cfg.Child(child.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) fillList(ctx context.Context, b *form.Binding, cfg editor.Config, label string) error {
	scope, err := b.Array()
	if err != nil {
		return err
	}
	for _, item := range scope.Items() {
		if err := s.fill(ctx, item.Binding, cfg.Child(strconv.Itoa(item.Index))); err != nil {
			return err
		}
	}

	for {
		more, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add to %s?", label)})
		if err != nil {
			return err
		}
		if !more {
			break
		}
		template, ok := itemTemplate(scope.Value(), cfg)
		if !ok {
			s.fail(ctx, label, "no template for new items")
			break
		}
		if err := scope.AddContext(ctx, template); err != nil {
			return err
		}
		items := scope.Items()
		last := items[len(items)-1]
		if err := s.fill(ctx, last.Binding, cfg.Child(strconv.Itoa(last.Index))); err != nil {
			return err
		}
	}

	if result := b.Validate(ctx); !result.Valid {
		s.fail(ctx, label, message(result))
	}
	return nil
}

func (s *Session) fillNull(ctx context.Context, b *form.Binding, cfg editor.Config, label string) error {
	if cfg.NotNull.IsNull() {
		s.info(ctx, fmt.Sprintf("%s: empty", label))
		return nil
	}
	enable, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Set %s?", label), Help: cfg.Help})
	if err != nil {
		return err
	}
	if !enable {
		return nil
	}
	if _, err := b.Edit(ctx, editor.ToggleNull(true, cfg.NotNull)); err != nil {
		return err
	}
	return s.fill(ctx, b, cfg)
}

func (s *Session) label(b *form.Binding, cfg editor.Config) string {
	text, ok := editor.Label(b.Name(), cfg)
	if !ok {
		return displayName(b.Path())
	}
	return text
}

func (s *Session) info(ctx context.Context, msg string) {
	if err := s.driver.Info(ctx, s.theme.InfoPrefix+msg); err != nil {
		s.logger.Debug("tui info not shown", slog.Any("error", err))
	}
}

func (s *Session) fail(ctx context.Context, label, msg string) {
	if msg == "" {
		msg = "invalid"
	}
	if err := s.driver.Info(ctx, fmt.Sprintf("%s%s: %s", s.theme.ErrorPrefix, label, msg)); err != nil {
		s.logger.Debug("tui error not shown", slog.Any("error", err))
	}
}

// itemTemplate picks the value appended to a list: the configured template,
// else the zero value of the existing items' shape.
func itemTemplate(list value.Value, cfg editor.Config) (value.Value, bool) {
	if !cfg.Template.IsNull() {
		return cfg.Template, true
	}
	if item, ok := list.Index(0); ok {
		kind := item.Kind()
		if kind != value.KindNull && !kind.IsComposite() {
			return value.Zero(kind), true
		}
	}
	return value.Null(), false
}

func configAt(cfg editor.Config, path []string) editor.Config {
	for _, segment := range path {
		cfg = cfg.Child(segment)
	}
	return cfg
}

func message(result validation.Result) string {
	if result.Message != "" {
		return result.Message
	}
	return "invalid"
}

func displayName(path string) string {
	if path == "" {
		return "form"
	}
	return path
}
