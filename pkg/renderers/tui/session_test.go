package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	selects      []SelectConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	passPos      int
	inputErr     error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputErr != nil {
		return "", s.inputErr
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selects = append(s.selects, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) said(substr string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func newSession(t *testing.T, driver PromptDriver) *Session {
	t.Helper()
	s, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func newForm(t *testing.T, initial value.Value, submit form.SubmitFunc, opts ...form.Option) *form.Form {
	t.Helper()
	f, err := form.New(initial, submit, opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func ptr[T any](v T) *T { return &v }

func TestRun_FillsAndSubmits(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Jane", "42"},
		confirm:   []bool{true},
		selectIdx: []int{2},
		textAreas: []string{"hello"},
	}
	cfg := editor.Config{Fields: map[string]editor.Config{
		"age":  {Number: editor.NumberInt, Min: ptr(1.0)},
		"role": {Options: []editor.Option{{Value: value.String("admin"), Text: "Admin"}, {Value: value.String("user"), Text: "User"}}},
		"bio":  {Text: editor.TextArea},
	}}
	initial := value.Object(
		value.F("name", value.String("")),
		value.F("age", value.Int(1)),
		value.F("newsletter", value.Bool(false)),
		value.F("role", value.String("")),
		value.F("bio", value.String("")),
	)
	f := newForm(t, initial, func(context.Context, value.Value) string { return "thanks" }, form.WithConfig(cfg))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != form.Submitted || result.Message != "thanks" {
		t.Fatalf("unexpected result %+v", result)
	}

	want := value.Object(
		value.F("name", value.String("Jane")),
		value.F("age", value.Int(42)),
		value.F("newsletter", value.Bool(true)),
		value.F("role", value.String("user")),
		value.F("bio", value.String("hello")),
	)
	if diff := cmp.Diff(want, result.Values, value.CmpOptions()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{placeholder, "Admin", "User"}, driver.selects[0].Options); diff != "" {
		t.Fatalf("select options mismatch (-want +got):\n%s", diff)
	}
	if !driver.said("thanks") {
		t.Fatalf("expected submit message to be shown, got %v", driver.infoMessages)
	}
}

func TestRun_RepromptsInvalidField(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", "<b>Ann</b>"}}
	cfg := editor.Config{Fields: map[string]editor.Config{
		"name": {Required: true, RequiredMessage: "Name please", StripMarkup: true},
	}}
	f := newForm(t, value.Object(value.F("name", value.String(""))), nil, form.WithConfig(cfg))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, _ := result.Values.Field("name"); got.AsString() != "Ann" {
		t.Fatalf("expected sanitized name, got %v", got)
	}
	if !driver.said("Name: Name please") {
		t.Fatalf("expected required message, got %v", driver.infoMessages)
	}
}

func TestRun_NumberAndDateBuffers(t *testing.T) {
	driver := &stubDriver{inputs: []string{"0.5", "31. 2. 2020 00:00:00", "1. 3. 2020 10:00:00"}}
	cfg := editor.Config{Fields: map[string]editor.Config{
		"count": {Number: editor.NumberInt, Min: ptr(1.0)},
	}}
	initial := value.Object(
		value.F("count", value.Int(3)),
		value.F("born", value.Date(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))),
	)
	f := newForm(t, initial, nil, form.WithConfig(cfg))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := value.Object(
		value.F("count", value.Int(1)),
		value.F("born", value.Date(time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC))),
	)
	if diff := cmp.Diff(want, result.Values, value.CmpOptions()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !driver.said("Count: using 1") {
		t.Fatalf("expected normalized number notice, got %v", driver.infoMessages)
	}
	if !driver.said("Born: expected a date") {
		t.Fatalf("expected date parse failure, got %v", driver.infoMessages)
	}
}

func TestRun_ListAndNull(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"x", "y", "o@example.com"},
		confirm: []bool{true, false, true},
	}
	cfg := editor.Config{Fields: map[string]editor.Config{
		"tags":  {Template: value.String("")},
		"owner": {NotNull: value.Object(value.F("email", value.String("")))},
	}}
	initial := value.Object(
		value.F("tags", value.Array(value.String("a"))),
		value.F("owner", value.Null()),
	)
	f := newForm(t, initial, nil, form.WithConfig(cfg))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := value.Object(
		value.F("tags", value.Array(value.String("x"), value.String("y"))),
		value.F("owner", value.Object(value.F("email", value.String("o@example.com")))),
	)
	if diff := cmp.Diff(want, result.Values, value.CmpOptions()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RejectedThenFixed(t *testing.T) {
	driver := &stubDriver{
		passwords: []string{"secret"},
		inputs:    []string{"other", "secret"},
		confirm:   []bool{true},
	}
	cfg := editor.Config{Fields: map[string]editor.Config{
		"password": {Text: editor.TextPassword},
	}}
	matching := func(_ context.Context, v value.Value) validation.Verdict {
		password, _ := v.Field("password")
		confirm, _ := v.Field("confirm")
		if !value.Equal(password, confirm) {
			return validation.Reject(errval.Fields(map[string]errval.Error{"confirm": errval.Message("Does not match")}))
		}
		return validation.Pass()
	}
	initial := value.Object(
		value.F("password", value.String("")),
		value.F("confirm", value.String("")),
	)
	f := newForm(t, initial, nil, form.WithConfig(cfg), form.WithValidator(matching))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != form.Submitted {
		t.Fatalf("expected submit after fix, got %+v", result)
	}
	if !driver.said("confirm: Does not match") {
		t.Fatalf("expected rejection to be shown, got %v", driver.infoMessages)
	}
	if driver.passPos != 1 || driver.inputPos != 2 {
		t.Fatalf("expected only confirm to be asked again")
	}
}

func TestRun_GiveUpAfterRejection(t *testing.T) {
	driver := &stubDriver{inputs: []string{"x"}, confirm: []bool{false}}
	reject := func(context.Context, value.Value) validation.Verdict {
		return validation.Reject(errval.Fields(map[string]errval.Error{"name": errval.Message("Taken")}))
	}
	f := newForm(t, value.Object(value.F("name", value.String(""))), nil, form.WithValidator(reject))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != form.Rejected {
		t.Fatalf("expected rejected result, got %s", result.Status)
	}
}

func TestRun_RejectedWithoutFieldErrors(t *testing.T) {
	driver := &stubDriver{inputs: []string{"x"}}
	reject := func(context.Context, value.Value) validation.Verdict {
		return validation.Reject(errval.Valid())
	}
	f := newForm(t, value.Object(value.F("name", value.String(""))), nil, form.WithValidator(reject))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != form.Rejected {
		t.Fatalf("expected rejected result, got %s", result.Status)
	}
	if driver.confirmPos != 0 {
		t.Fatalf("nothing to fix, so no confirmation should be asked")
	}
}

func TestRun_RejectedDottedKeyRefilled(t *testing.T) {
	driver := &stubDriver{inputs: []string{"taken", "free"}, confirm: []bool{true}}
	available := func(_ context.Context, v value.Value) validation.Verdict {
		if mail, _ := v.Field("e.mail"); mail.AsString() == "taken" {
			return validation.Reject(errval.Fields(map[string]errval.Error{"e.mail": errval.Message("Taken")}))
		}
		return validation.Pass()
	}
	initial := value.Object(
		value.F("e", value.Object(value.F("mail", value.String("nested")))),
		value.F("e.mail", value.String("")),
	)
	cfg := editor.Config{Fields: map[string]editor.Config{"e": {ReadOnly: true}}}
	f := newForm(t, initial, nil, form.WithConfig(cfg), form.WithValidator(available))

	result, err := newSession(t, driver).Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != form.Submitted {
		t.Fatalf("expected submit after fix, got %+v", result)
	}
	if got, _ := result.Values.Field("e.mail"); got.AsString() != "free" {
		t.Fatalf("dotted key holds %v", got)
	}
	if nested, _ := value.GetAt(result.Values, "e", "mail"); nested.AsString() != "nested" {
		t.Fatalf("nested field changed to %v", nested)
	}
}

func TestRun_ReadOnlyAndErrors(t *testing.T) {
	t.Run("read only", func(t *testing.T) {
		driver := &stubDriver{}
		cfg := editor.Config{Fields: map[string]editor.Config{"id": {ReadOnly: true}}}
		f := newForm(t, value.Object(value.F("id", value.Int(7))), nil, form.WithConfig(cfg))
		if _, err := newSession(t, driver).Run(context.Background(), f); err != nil {
			t.Fatalf("run: %v", err)
		}
		if !driver.said("Id: 7") {
			t.Fatalf("expected read-only value to be shown, got %v", driver.infoMessages)
		}
	})

	t.Run("aborted", func(t *testing.T) {
		driver := &stubDriver{inputErr: ErrAborted}
		f := newForm(t, value.Object(value.F("name", value.String(""))), nil)
		if _, err := newSession(t, driver).Run(context.Background(), f); !errors.Is(err, ErrAborted) {
			t.Fatalf("expected ErrAborted, got %v", err)
		}
	})

	t.Run("nil form", func(t *testing.T) {
		if _, err := newSession(t, &stubDriver{}).Run(context.Background(), nil); !errors.Is(err, ErrNoForm) {
			t.Fatalf("expected ErrNoForm, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := newForm(t, value.Object(value.F("name", value.String(""))), nil)
		if _, err := newSession(t, &stubDriver{}).Run(ctx, f); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
