package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/validation"
	"github.com/goliatone/go-typeform/pkg/value"
)

func mustForm(t *testing.T, initial value.Value, submit form.SubmitFunc, opts ...form.Option) *form.Form {
	t.Helper()
	f, err := form.New(initial, submit, opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func mustField(t *testing.T, f *form.Form, path string) *form.Binding {
	t.Helper()
	b, err := f.Field(path)
	if err != nil {
		t.Fatalf("field %q: %v", path, err)
	}
	return b
}

func tooYoung(_ context.Context, v value.Value) errval.Error {
	if v.AsNumber() < 20 {
		return errval.Message("Still too young.")
	}
	return errval.Valid()
}

func person() value.Value {
	return value.Object(
		value.F("name", value.String("")),
		value.F("age", value.Int(25)),
	)
}

func TestNew_RejectsNonObject(t *testing.T) {
	if _, err := form.New(value.Array(), nil); !errors.Is(err, form.ErrNotObject) {
		t.Fatalf("expected ErrNotObject, got %v", err)
	}
	cfg := editor.Config{Fields: map[string]editor.Config{"name": {Widget: "custom"}}}
	if _, err := form.New(person(), nil, form.WithConfig(cfg)); !errors.Is(err, editor.ErrCustomUnsupported) {
		t.Fatalf("expected ErrCustomUnsupported, got %v", err)
	}
}

func TestScenario_RequiredName(t *testing.T) {
	ctx := context.Background()
	f := mustForm(t, person(), nil, form.WithRules("name", validation.Rules{Required: true}))

	name := mustField(t, f, "name")
	if got := name.Validate(ctx); got.Valid || got.Message != "Required." {
		t.Fatalf("empty name: %+v", got)
	}
	if f.IsValid() {
		t.Fatalf("form should be invalid while name is empty")
	}

	got, err := name.Edit(ctx, value.String("Jane"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !got.Valid {
		t.Fatalf("expected valid result, got %+v", got)
	}
	if !f.IsChanged() || !f.IsValid() {
		t.Fatalf("changed=%v valid=%v", f.IsChanged(), f.IsValid())
	}
	if diff := cmp.Diff(errval.Valid(), name.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("name error mismatch (-want +got):\n%s", diff)
	}
}

func TestScenario_FieldValidatorBlocksSubmit(t *testing.T) {
	ctx := context.Background()
	called := false
	submit := func(context.Context, value.Value) string {
		called = true
		return "saved"
	}
	f := mustForm(t, person(), submit, form.WithRules("age", validation.Rules{OnValidate: tooYoung}))

	age := mustField(t, f, "age")
	if got := age.Validate(ctx); !got.Valid {
		t.Fatalf("25 should be valid: %+v", got)
	}
	if _, err := age.Edit(ctx, value.Int(18)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if diff := cmp.Diff(errval.Message("Still too young."), age.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("age error mismatch (-want +got):\n%s", diff)
	}
	if f.IsValid() {
		t.Fatalf("form should be invalid")
	}

	result, err := f.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != form.Invalid {
		t.Fatalf("expected invalid status, got %s", result.Status)
	}
	if called {
		t.Fatalf("submit function must not run on an invalid form")
	}
}

func TestScenario_ArrayAddRemove(t *testing.T) {
	f := mustForm(t, value.Object(value.F("equipment", value.Array(value.String("Bread")))), nil)

	scope, err := mustField(t, f, "equipment").Array()
	if err != nil {
		t.Fatalf("array scope: %v", err)
	}
	if err := scope.Add(value.String("NEW")); err != nil {
		t.Fatalf("add: %v", err)
	}
	want := value.Array(value.String("Bread"), value.String("NEW"))
	if diff := cmp.Diff(want, scope.Value(), value.CmpOptions()); diff != "" {
		t.Fatalf("after add (-want +got):\n%s", diff)
	}

	items := scope.Items()
	if len(items) != 2 || !items[0].IsFirst || items[1].IsFirst || !items[1].IsLast || items[0].IsLast {
		t.Fatalf("unexpected item flags %+v", items)
	}

	if err := items[0].Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff(value.Array(value.String("NEW")), scope.Value(), value.CmpOptions()); diff != "" {
		t.Fatalf("after remove (-want +got):\n%s", diff)
	}

	notified := false
	g := mustForm(t, f.Values(), nil, form.WithOnChange(func(form.State) { notified = true }))
	gs, _ := mustField(t, g, "equipment").Array()
	if err := gs.Remove(value.String("missing")); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if notified || g.IsChanged() {
		t.Fatalf("removing an absent value must be a no-op")
	}
}

func TestArrayRemove_DropsAllEqualItemsAndErrorSlots(t *testing.T) {
	f := mustForm(t, value.Object(value.F("tags", value.Array(
		value.String("a"), value.String("b"), value.String("a"), value.String("c"),
	))), nil)
	scope, _ := mustField(t, f, "tags").Array()
	if err := scope.SetError(3, errval.Message("c is bad")); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if err := scope.SetError(0, errval.Message("a is bad")); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if err := scope.Remove(value.String("a")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if diff := cmp.Diff(value.Array(value.String("b"), value.String("c")), scope.Value(), value.CmpOptions()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	wantErr := errval.List(errval.None(), errval.Message("c is bad"))
	if diff := cmp.Diff(wantErr, scope.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestArrayRemove_RevalidatesShiftedItems(t *testing.T) {
	ctx := context.Background()
	f := mustForm(t, value.Object(value.F("items", value.Array(value.String("a"), value.String("")))), nil,
		form.WithRules("items.*", validation.Rules{Required: true}))

	if f.Validate(ctx) {
		t.Fatalf("empty item should make the form invalid")
	}
	scope, _ := mustField(t, f, "items").Array()
	if diff := cmp.Diff(errval.List(errval.Valid(), errval.Message("Required.")), scope.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors before remove (-want +got):\n%s", diff)
	}
	if err := scope.Remove(value.String("a")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff(errval.List(errval.Message("Required.")), scope.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors after remove (-want +got):\n%s", diff)
	}

	got, err := mustField(t, f, "items.0").Edit(ctx, value.String("filled"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !got.Valid || !f.IsValid() {
		t.Fatalf("fixed item must clear its error: result=%+v errors=%s", got, f.Errors())
	}
	result, err := f.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != form.Submitted {
		t.Fatalf("expected submitted, got %s", result.Status)
	}
}

func TestArrayItems_RebindOnLengthChange(t *testing.T) {
	f := mustForm(t, value.Object(value.F("tags", value.Array(value.String("a"), value.String("b")))), nil)
	scope, _ := mustField(t, f, "tags").Array()

	before := scope.Items()
	if err := scope.SetValue(1, value.String("c")); err != nil {
		t.Fatalf("set: %v", err)
	}
	same := scope.Items()
	if same[0].Binding != before[0].Binding || same[1].Binding != before[1].Binding {
		t.Fatalf("bindings must be kept while the length is unchanged")
	}

	if err := scope.Remove(value.String("a")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	after := scope.Items()
	if len(after) != 1 {
		t.Fatalf("expected 1 item, got %d", len(after))
	}
	if after[0].Binding == before[0].Binding {
		t.Fatalf("item 0 must get a fresh binding after a removal")
	}
	if got := after[0].Binding.Value().AsString(); got != "c" {
		t.Fatalf("item 0 reads %q", got)
	}
}

func TestSetValue_PreservesSiblings(t *testing.T) {
	initial := value.Object(
		value.F("owner", value.Object(
			value.F("email", value.String("a@b.c")),
			value.F("phone", value.String("123")),
		)),
		value.F("items", value.Array(value.Int(1), value.Int(2), value.Int(3))),
	)
	f := mustForm(t, initial, nil)

	phone := mustField(t, f, "owner.phone")
	if err := phone.SetError(errval.Message("Bad phone.")); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if err := mustField(t, f, "owner.email").SetValue(value.String("x@y.z")); err != nil {
		t.Fatalf("set value: %v", err)
	}
	items, _ := mustField(t, f, "items").Array()
	if err := items.SetError(2, errval.Invalid()); err != nil {
		t.Fatalf("set item error: %v", err)
	}
	if err := items.SetValue(1, value.Int(20)); err != nil {
		t.Fatalf("set item: %v", err)
	}

	want := value.Object(
		value.F("owner", value.Object(
			value.F("email", value.String("x@y.z")),
			value.F("phone", value.String("123")),
		)),
		value.F("items", value.Array(value.Int(1), value.Int(20), value.Int(3))),
	)
	if diff := cmp.Diff(want, f.Values(), value.CmpOptions()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	wantErr := errval.Fields(map[string]errval.Error{
		"owner": errval.Fields(map[string]errval.Error{"phone": errval.Message("Bad phone.")}),
		"items": errval.List(errval.None(), errval.None(), errval.Invalid()),
	})
	if diff := cmp.Diff(wantErr, f.Errors(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
	if !f.IsChanged() {
		t.Fatalf("form should be changed")
	}
}

func TestSetValue_KeysWithPathCharacters(t *testing.T) {
	initial := value.Object(
		value.F("a", value.Object(value.F("b", value.String("nested")))),
		value.F("a.b", value.String("flat")),
		value.F(" pad ", value.String("padded")),
		value.F("", value.String("empty")),
		value.F("x[0]", value.String("bracket")),
		value.F("$", value.String("dollar")),
	)
	cases := []struct {
		name string
		key  string
		want string
	}{
		{"dotted", "a.b", "flat"},
		{"padded", " pad ", "padded"},
		{"empty", "", "empty"},
		{"bracket", "x[0]", "bracket"},
		{"dollar", "$", "dollar"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := mustForm(t, initial, nil)
			var b *form.Binding
			for _, field := range f.Scope().Fields() {
				if field.Name() == tc.key {
					b = field
				}
			}
			if b == nil {
				t.Fatalf("no binding for %q", tc.key)
			}
			if got := b.Value().AsString(); got != tc.want {
				t.Fatalf("binding reads %q, want %q", got, tc.want)
			}

			if err := b.SetValue(value.String("edited")); err != nil {
				t.Fatalf("set value: %v", err)
			}
			if got := b.Value().AsString(); got != "edited" {
				t.Fatalf("binding reads %q after write", got)
			}
			stored, _ := f.Values().Field(tc.key)
			if got := stored.AsString(); got != "edited" {
				t.Fatalf("stored %q", got)
			}
			if nested, _ := value.GetAt(f.Values(), "a", "b"); nested.AsString() != "nested" {
				t.Fatalf("write to %q changed a.b to %v", tc.key, nested)
			}

			at, err := f.FieldAt(tc.key)
			if err != nil {
				t.Fatalf("field at: %v", err)
			}
			if at != b {
				t.Fatalf("FieldAt must resolve the same binding")
			}
			if err := b.SetError(errval.Message("bad")); err != nil {
				t.Fatalf("set error: %v", err)
			}
			if diff := cmp.Diff([][]string{{tc.key}}, errval.InvalidSegments(f.Errors())); diff != "" {
				t.Fatalf("invalid segments (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("whole scope name yields to a real key", func(t *testing.T) {
		f := mustForm(t, initial, nil)
		b, err := f.Scope().Field(form.WholeScope)
		if err != nil {
			t.Fatalf("field: %v", err)
		}
		if got := b.Value().AsString(); got != "dollar" {
			t.Fatalf("expected the $ key, got %v", b.Value())
		}
	})
}

func TestValidate_KeysWithPathCharacters(t *testing.T) {
	ctx := context.Background()
	cfg := editor.Config{Fields: map[string]editor.Config{
		"a.b":   {Required: true},
		" pad ": {Required: true},
	}}
	initial := value.Object(
		value.F("a", value.Object(value.F("b", value.String("nested")))),
		value.F("a.b", value.String("")),
		value.F(" pad ", value.String("")),
	)
	called := false
	submit := func(context.Context, value.Value) string {
		called = true
		return ""
	}
	f := mustForm(t, initial, submit, form.WithConfig(cfg), form.WithValidateBeforeSubmit())

	result, err := f.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != form.Invalid || called {
		t.Fatalf("required keys must block submit, got %s", result.Status)
	}
	want := errval.Fields(map[string]errval.Error{
		"a.b":   errval.Message("Required."),
		" pad ": errval.Message("Required."),
	})
	if diff := cmp.Diff(want, f.Errors(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}

	for _, key := range []string{"a.b", " pad "} {
		b, err := f.FieldAt(key)
		if err != nil {
			t.Fatalf("field at %q: %v", key, err)
		}
		if _, err := b.Edit(ctx, value.String("set")); err != nil {
			t.Fatalf("edit %q: %v", key, err)
		}
	}
	result, err = f.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != form.Submitted {
		t.Fatalf("expected submitted, got %s (errors %s)", result.Status, f.Errors())
	}
}

func TestSetValue_Idempotent(t *testing.T) {
	f := mustForm(t, person(), nil)
	name := mustField(t, f, "name")
	_ = name.SetValue(value.String("Jane"))
	first := f.State()
	_ = name.SetValue(value.String("Jane"))
	second := f.State()
	if diff := cmp.Diff(first, second, value.CmpOptions(), errval.CmpOptions()); diff != "" {
		t.Fatalf("state changed on repeated write (-first +second):\n%s", diff)
	}
}

func TestFields_StableIdentity(t *testing.T) {
	f := mustForm(t, person(), nil)
	scope := f.Scope()

	first := scope.Fields()
	_ = scope.SetValue("name", value.String("Jane"))
	second := scope.Fields()
	if &first[0] != &second[0] {
		t.Fatalf("fields slice should be reused while keys are unchanged")
	}

	name, _ := scope.Field("name")
	next := value.Object(
		value.F("name", value.String("Jane")),
		value.F("email", value.String("")),
	)
	if err := scope.SetValue(form.WholeScope, next); err != nil {
		t.Fatalf("whole write: %v", err)
	}
	third := scope.Fields()
	if len(third) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(third))
	}
	if third[0] != name {
		t.Fatalf("surviving key must keep its binding")
	}
	if third[1].Name() != "email" {
		t.Fatalf("unexpected new field %q", third[1].Name())
	}

	if _, err := scope.Field("age"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFields_FollowKeyOrder(t *testing.T) {
	f := mustForm(t, person(), nil)
	scope := f.Scope()
	name, _ := scope.Field("name")
	_ = scope.Fields()

	reordered := value.Object(
		value.F("age", value.Int(25)),
		value.F("name", value.String("")),
	)
	if err := scope.SetValue(form.WholeScope, reordered); err != nil {
		t.Fatalf("whole write: %v", err)
	}
	fields := scope.Fields()
	var got []string
	for _, b := range fields {
		got = append(got, b.Name())
	}
	if diff := cmp.Diff([]string{"age", "name"}, got); diff != "" {
		t.Fatalf("field order (-want +got):\n%s", diff)
	}
	if fields[1] != name {
		t.Fatalf("reordered key must keep its binding")
	}
}

func TestWholeScope(t *testing.T) {
	options := []value.Value{
		value.Object(value.F("id", value.Int(1))),
		value.Object(value.F("id", value.Int(2))),
	}
	f := mustForm(t, value.Object(value.F("plan", options[0])), nil)

	plan, err := mustField(t, f, "plan").Object()
	if err != nil {
		t.Fatalf("object scope: %v", err)
	}
	whole := plan.Whole()
	if err := whole.SetValue(options[1]); err != nil {
		t.Fatalf("whole set: %v", err)
	}
	if err := plan.SetError(form.WholeScope, errval.Message("Plan unavailable.")); err != nil {
		t.Fatalf("whole error: %v", err)
	}
	if diff := cmp.Diff(options[1], whole.Value(), value.CmpOptions()); diff != "" {
		t.Fatalf("whole value (-want +got):\n%s", diff)
	}
	if got := errval.Get(f.Errors(), "plan"); got.Text() != "Plan unavailable." {
		t.Fatalf("expected scalar error on the whole object, got %s", got)
	}

	if err := f.Scope().Whole().SetValue(value.String("nope")); !errors.Is(err, form.ErrNotObject) {
		t.Fatalf("root must stay an object, got %v", err)
	}
}

func TestWholeScope_ValidChildKeepsObjectError(t *testing.T) {
	ctx := context.Background()
	f := mustForm(t, value.Object(value.F("plan", value.Object(value.F("id", value.Int(1))))), nil,
		form.WithRules("plan.id", validation.Rules{Required: true}))

	plan, _ := mustField(t, f, "plan").Object()
	if err := plan.SetError(form.WholeScope, errval.Message("Plan unavailable.")); err != nil {
		t.Fatalf("whole error: %v", err)
	}
	if got := mustField(t, f, "plan.id").Validate(ctx); !got.Valid {
		t.Fatalf("id should be valid, got %+v", got)
	}
	if diff := cmp.Diff(errval.Message("Plan unavailable."), plan.Error(), errval.CmpOptions()); diff != "" {
		t.Fatalf("object error (-want +got):\n%s", diff)
	}
	if f.IsValid() {
		t.Fatalf("form must stay invalid")
	}
}

func TestSetInitial_Resets(t *testing.T) {
	ctx := context.Background()
	f := mustForm(t, person(), func(context.Context, value.Value) string { return "Saved." })
	_ = mustField(t, f, "name").SetValue(value.String("Jane"))
	_ = mustField(t, f, "age").SetError(errval.Invalid())

	reset, err := f.SetInitial(person())
	if err != nil || reset {
		t.Fatalf("same content must not reset: %v %v", reset, err)
	}

	next := value.Object(value.F("name", value.String("Bob")), value.F("age", value.Int(40)))
	_ = mustField(t, f, "age").SetError(errval.None())
	if _, err := f.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.Message() != "Saved." {
		t.Fatalf("expected submit message, got %q", f.Message())
	}
	_ = mustField(t, f, "age").SetError(errval.Invalid())

	reset, err = f.SetInitial(next)
	if err != nil || !reset {
		t.Fatalf("new content must reset: %v %v", reset, err)
	}
	state := f.State()
	if !value.Equal(state.Values, next) || !state.Errors.IsAbsent() || state.Message != "" || state.IsChanged {
		t.Fatalf("unexpected state after reset %+v", state)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores message until next edit", func(t *testing.T) {
		var got value.Value
		f := mustForm(t, person(), func(_ context.Context, v value.Value) string {
			got = v
			return "Thanks."
		})
		result, err := f.Submit(ctx)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if result.Status != form.Submitted || result.Message != "Thanks." || !value.Equal(got, person()) {
			t.Fatalf("unexpected result %+v", result)
		}
		_ = mustField(t, f, "age").SetError(errval.Valid())
		if f.Message() != "Thanks." {
			t.Fatalf("error writes keep the message")
		}
		_ = mustField(t, f, "age").SetValue(value.Int(30))
		if f.Message() != "" {
			t.Fatalf("value edits clear the message")
		}
	})

	t.Run("structured rejection merges errors", func(t *testing.T) {
		called := false
		validator := func(context.Context, value.Value) validation.Verdict {
			return validation.Reject(errval.Fields(map[string]errval.Error{"name": errval.Message("Taken.")}))
		}
		f := mustForm(t, person(), func(context.Context, value.Value) string {
			called = true
			return ""
		}, form.WithValidator(validator))
		_ = mustField(t, f, "age").SetError(errval.Valid())

		result, err := f.Submit(ctx)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if result.Status != form.Rejected || called {
			t.Fatalf("unexpected result %+v (called=%v)", result, called)
		}
		want := errval.Fields(map[string]errval.Error{
			"name": errval.Message("Taken."),
			"age":  errval.Valid(),
		})
		if diff := cmp.Diff(want, f.Errors(), errval.CmpOptions()); diff != "" {
			t.Fatalf("errors (-want +got):\n%s", diff)
		}
	})

	t.Run("advice proceeds to submit", func(t *testing.T) {
		validator := func(context.Context, value.Value) validation.Verdict {
			return validation.Advise("Double check the age.")
		}
		f := mustForm(t, person(), func(context.Context, value.Value) string { return "" }, form.WithValidator(validator))
		result, err := f.Submit(ctx)
		if err != nil || result.Status != form.Submitted {
			t.Fatalf("unexpected result %+v %v", result, err)
		}
	})

	t.Run("validate before submit", func(t *testing.T) {
		called := false
		f := mustForm(t, person(), func(context.Context, value.Value) string {
			called = true
			return ""
		}, form.WithRules("name", validation.Rules{Required: true}), form.WithValidateBeforeSubmit())
		result, err := f.Submit(ctx)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if result.Status != form.Invalid || called {
			t.Fatalf("untouched required field must block submit, got %+v", result)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		f := mustForm(t, person(), nil)
		if _, err := f.Submit(cctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestValidate_ExternalErrorWins(t *testing.T) {
	ctx := context.Background()
	f := mustForm(t, person(), nil, form.WithRules("name", validation.Rules{Required: true}))
	name := mustField(t, f, "name")

	_ = name.SetError(errval.Message("Name taken."))
	if got := name.Validate(ctx); got.Valid || got.Message != "Name taken." {
		t.Fatalf("external message must win, got %+v", got)
	}
	if got := name.Error(); got.Text() != "Name taken." {
		t.Fatalf("external error must be left alone, got %s", got)
	}
}

func TestValidate_DropsStaleResult(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	slow := func(_ context.Context, v value.Value) errval.Error {
		if v.AsString() == "slow" {
			close(entered)
			<-release
			return errval.Message("Too slow.")
		}
		return errval.Valid()
	}
	f := mustForm(t, value.Object(value.F("name", value.String("slow"))), nil,
		form.WithRules("name", validation.Rules{OnValidate: slow}))
	name := mustField(t, f, "name")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		name.Validate(ctx)
	}()
	<-entered
	if err := name.SetValue(value.String("fast")); err != nil {
		t.Fatalf("set value: %v", err)
	}
	close(release)
	wg.Wait()

	if got := name.Error(); !got.IsAbsent() {
		t.Fatalf("stale result must be dropped, got %s", got)
	}
	if got := name.Validate(ctx); !got.Valid {
		t.Fatalf("fresh validation should pass, got %+v", got)
	}
}

func TestValidate_FromConfigAndWildcards(t *testing.T) {
	ctx := context.Background()
	min := 30.0
	initial := value.Object(
		value.F("age", value.Int(25)),
		value.F("items", value.Array(
			value.Object(value.F("name", value.String(""))),
			value.Object(value.F("name", value.String("x"))),
		)),
	)
	cfg := editor.Config{Fields: map[string]editor.Config{"age": {Min: &min}}}
	f := mustForm(t, initial, nil,
		form.WithConfig(cfg),
		form.WithRules("items[*].name", validation.Rules{Required: true}),
	)

	if f.Validate(ctx) {
		t.Fatalf("form should be invalid")
	}
	want := errval.Fields(map[string]errval.Error{
		"age": errval.Message("Value has to be minimum 30."),
		"items": errval.List(
			errval.Fields(map[string]errval.Error{"name": errval.Message("Required.")}),
			errval.Fields(map[string]errval.Error{"name": errval.Valid()}),
		),
	})
	if diff := cmp.Diff(want, f.Errors(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestValidateOnChange(t *testing.T) {
	validator := func(_ context.Context, v value.Value) validation.Verdict {
		age, _ := v.Field("age")
		if age.AsNumber() > 100 {
			return validation.Reject(errval.Fields(map[string]errval.Error{"age": errval.Message("Unlikely.")}))
		}
		if age.AsNumber() > 90 {
			return validation.Advise("Are you sure?")
		}
		return validation.Pass()
	}
	var states []form.State
	f := mustForm(t, person(), nil,
		form.WithValidator(validator),
		form.WithValidateOnChange(),
		form.WithOnChange(func(s form.State) { states = append(states, s) }),
	)
	age := mustField(t, f, "age")

	_ = age.SetValue(value.Int(95))
	if f.Message() != "Are you sure?" {
		t.Fatalf("expected advisory message, got %q", f.Message())
	}
	_ = age.SetValue(value.Int(120))
	if got := age.Error(); got.Text() != "Unlikely." || f.Message() != "" {
		t.Fatalf("expected rejection, got %s / %q", got, f.Message())
	}
	if len(states) != 2 || states[1].IsValid {
		t.Fatalf("unexpected notifications %+v", states)
	}
}

func TestApplyPayload(t *testing.T) {
	f := mustForm(t, value.Object(
		value.F("name", value.String("")),
		value.F("owner", value.Object(value.F("email", value.String("")))),
	), nil)

	formLevel := f.ApplyPayload(map[string][]string{
		"body.owner.email": {"Email invalid"},
		"/name":            {"Name is required"},
		"non_field_errors": {"Try again later"},
	})
	if diff := cmp.Diff([]string{"Try again later"}, formLevel); diff != "" {
		t.Fatalf("form-level (-want +got):\n%s", diff)
	}
	if f.Message() != "Try again later" {
		t.Fatalf("unexpected message %q", f.Message())
	}
	if got := mustField(t, f, "owner.email").Error(); got.Text() != "Email invalid" {
		t.Fatalf("unexpected owner.email error %s", got)
	}
	if got := mustField(t, f, "name").Error(); got.Text() != "Name is required" {
		t.Fatalf("unexpected name error %s", got)
	}
}

func TestField_Errors(t *testing.T) {
	f := mustForm(t, value.Object(
		value.F("name", value.String("")),
		value.F("tags", value.Array(value.String("a"))),
	), nil)

	cases := []struct {
		path string
		want error
	}{
		{"missing", form.ErrUnknownField},
		{"tags.5", form.ErrUnknownField},
		{"tags.x", form.ErrUnknownField},
		{"name.first", form.ErrShapeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if _, err := f.Field(tc.path); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := mustField(t, f, "name").Array(); !errors.Is(err, form.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
