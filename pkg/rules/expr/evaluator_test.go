package expr

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-typeform/pkg/value"
)

func sampleValues() value.Value {
	return value.Object(
		value.F("name", value.String("Jane")),
		value.F("age", value.Int(17)),
		value.F("newsletter", value.Bool(false)),
		value.F("role", value.String("admin")),
		value.F("password", value.String("secret")),
		value.F("confirm", value.String("secret2")),
		value.F("start", value.Date(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))),
		value.F("end", value.Date(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))),
		value.F("owner", value.Object(value.F("email", value.String("")))),
		value.F("items", value.Array(
			value.Object(value.F("qty", value.Int(0))),
		)),
		value.F("note", value.Null()),
	)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want bool
	}{
		{"age < 18", true},
		{"age <= 17", true},
		{"age > 17", false},
		{"age >= 17.0", true},
		{"age == 17 && role == \"admin\"", true},
		{"age == 17 && role == 'user'", false},
		{"newsletter || role == admin", true},
		{"!newsletter", true},
		{"newsletter == false", true},
		{"note == null", true},
		{"missing == null", true},
		{"name != null", true},
		{"password != confirm", true},
		{"start > end", true},
		{"start >= \"2024-05-01\"", true},
		{"end < \"2024-04-01T00:00:00Z\"", false},
		{"owner.email == \"\"", true},
		{"items[0].qty <= 0", true},
		{"items.0.qty == 0 && (age < 10 || name == \"Jane\")", true},
		{"name > \"A\"", true},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			got, err := Eval(tc.src, sampleValues())
			if err != nil {
				t.Fatalf("Eval returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v", tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"age = 3",
		"a & b",
		"a | b",
		"(a == 1",
		"\"unterminated",
		"== 3",
		"a ==",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			if _, err := Compile(src); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := Compile("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"newsletter < true",
		"note > null",
		"start > \"yesterday\"",
		"owner < items",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			if _, err := Eval(src, sampleValues()); err == nil {
				t.Fatalf("expected evaluation error")
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()

	e := MustCompile(`password != confirm && password != "" && !newsletter`)
	want := []string{"password", "confirm", "newsletter"}
	if diff := cmp.Diff(want, e.Identifiers()); diff != "" {
		t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
	}
	if e.String() != `password != confirm && password != "" && !newsletter` {
		t.Fatalf("unexpected source %q", e.String())
	}
}
