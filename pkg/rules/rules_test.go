package rules_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/rules"
	"github.com/goliatone/go-typeform/pkg/value"
)

func signup(password, confirm string, age int) value.Value {
	return value.Object(
		value.F("password", value.String(password)),
		value.F("confirm", value.String(confirm)),
		value.F("age", value.Int(age)),
		value.F("items", value.Array(value.Object(value.F("qty", value.Int(0))))),
	)
}

func mustCompile(t *testing.T, list []rules.Rule) *rules.Set {
	t.Helper()
	set, err := rules.Compile(list)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return set
}

func TestSet_Validate(t *testing.T) {
	ctx := context.Background()
	set := mustCompile(t, []rules.Rule{
		{Field: "confirm", When: "confirm != password", Message: "Passwords differ."},
		{Field: "confirm", When: `confirm == ""`, Message: "Confirm your password."},
		{Field: "items[0].qty", When: "items.0.qty <= 0", Message: "Pick at least one."},
		{When: "age < 21", Message: "Some offers need you to be 21."},
	})

	verdict := set.Validate(ctx, signup("secret", "", 30))
	if !verdict.Rejected() {
		t.Fatalf("expected rejection")
	}
	want := errval.Fields(map[string]errval.Error{
		"confirm": errval.Message("Passwords differ."),
		"items":   errval.List(errval.Fields(map[string]errval.Error{"qty": errval.Message("Pick at least one.")})),
	})
	if diff := cmp.Diff(want, verdict.Errors(), errval.CmpOptions()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSet_AdviceOnly(t *testing.T) {
	ctx := context.Background()
	set := mustCompile(t, []rules.Rule{
		{Field: "confirm", When: "confirm != password", Message: "Passwords differ."},
		{When: "age < 21", Message: "Some offers need you to be 21."},
		{When: "age < 18", Message: "Ask a parent."},
	})

	verdict := set.Validator()(ctx, signup("a", "a", 16))
	if verdict.Rejected() {
		t.Fatalf("advisory rules must not reject")
	}
	if got := verdict.Message(); got != "Some offers need you to be 21. Ask a parent." {
		t.Fatalf("unexpected advice %q", got)
	}

	if got := set.Validate(ctx, signup("a", "a", 40)); got.Rejected() || got.Message() != "" {
		t.Fatalf("expected plain pass, got %+v", got)
	}
}

func TestSet_SkipsRulesThatCannotEvaluate(t *testing.T) {
	set := mustCompile(t, []rules.Rule{
		{Field: "items", When: "items < password", Message: "never"},
	})
	if got := set.Validate(context.Background(), signup("a", "b", 1)); got.Rejected() {
		t.Fatalf("unevaluable rule must be skipped")
	}
}

func TestCompile_Errors(t *testing.T) {
	if _, err := rules.Compile([]rules.Rule{{When: "age < 3"}}); !errors.Is(err, rules.ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if _, err := rules.Compile([]rules.Rule{{Field: "age", When: "age = 3"}}); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := rules.Compile([]rules.Rule{{Field: "age"}}); err == nil {
		t.Fatalf("expected empty expression error")
	}
}
