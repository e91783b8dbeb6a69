package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/openapi"
	"github.com/goliatone/go-typeform/pkg/rules"
	"github.com/goliatone/go-typeform/pkg/rules/expr"
	"github.com/goliatone/go-typeform/pkg/value"
)

// ErrNoValues is returned when a definition has neither values nor an OpenAPI
// seed.
var ErrNoValues = errors.New("config: definition needs values or an openapi seed")

// Definition is a form definition file.
type Definition struct {
	Title   string                   `yaml:"title,omitempty"`
	Values  value.Value              `yaml:"values,omitempty"`
	OpenAPI *OpenAPI                 `yaml:"openapi,omitempty"`
	Fields  map[string]editor.Config `yaml:"fields,omitempty"`
	Rules   []rules.Rule             `yaml:"rules,omitempty"`
	Submit  Submit                   `yaml:"submit,omitempty"`

	dir string
}

// OpenAPI points a definition at an operation whose request body seeds the
// values and editor config.
type OpenAPI struct {
	Source    string `yaml:"source"`
	Operation string `yaml:"operation"`
}

// Submit configures the offline submit function: Message is returned on
// success, RejectMessage when RejectWhen holds for the submitted values.
type Submit struct {
	Message       string `yaml:"message,omitempty"`
	RejectWhen    string `yaml:"rejectWhen,omitempty"`
	RejectMessage string `yaml:"rejectMessage,omitempty"`
}

// Load reads a YAML or JSON definition file.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("config: %s: %w", path, err)
	}
	def.dir = filepath.Dir(path)
	return def, nil
}

// Parse decodes a YAML or JSON definition. Unknown keys are rejected.
func Parse(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, errors.New("config: definition is empty")
	}
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return Definition{}, fmt.Errorf("config: parse: %w", err)
	}
	return def, nil
}

// Validate checks the parts of a definition that can be checked without
// loading the OpenAPI document.
func (d Definition) Validate() error {
	if d.OpenAPI == nil {
		if d.Values.Kind() != value.KindObject {
			return ErrNoValues
		}
	} else if strings.TrimSpace(d.OpenAPI.Source) == "" || strings.TrimSpace(d.OpenAPI.Operation) == "" {
		return errors.New("config: openapi needs source and operation")
	}
	if err := d.EditorConfig().Check(); err != nil {
		return fmt.Errorf("config: fields: %w", err)
	}
	if _, err := rules.Compile(d.Rules); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if d.Submit.RejectWhen != "" {
		if _, err := expr.Compile(d.Submit.RejectWhen); err != nil {
			return fmt.Errorf("config: submit.rejectWhen: %w", err)
		}
	}
	return nil
}

// EditorConfig returns the field configuration as a root editor config.
func (d Definition) EditorConfig() editor.Config {
	return editor.Config{Fields: d.Fields}
}

// Resolve loads the OpenAPI seed when one is configured and overlays the
// definition on it: declared values replace seeded values key by key and
// declared field configs replace seeded ones. Without a seed it returns the
// definition's own values and config. A relative source file is resolved
// against the directory of the definition file.
func (d Definition) Resolve(ctx context.Context, opts ...openapi.LoaderOption) (value.Value, editor.Config, error) {
	if err := d.Validate(); err != nil {
		return value.Null(), editor.Config{}, err
	}
	if d.OpenAPI == nil {
		return d.Values, d.EditorConfig(), nil
	}

	src, err := openapi.ParseSource(d.OpenAPI.Source)
	if err != nil {
		return value.Null(), editor.Config{}, fmt.Errorf("config: %w", err)
	}
	if src.Kind() == openapi.SourceKindFile && d.dir != "" && !filepath.IsAbs(src.Location()) {
		src = openapi.SourceFromFile(filepath.Join(d.dir, src.Location()))
	}
	seed, err := openapi.LoadSeed(ctx, src, d.OpenAPI.Operation, opts...)
	if err != nil {
		return value.Null(), editor.Config{}, fmt.Errorf("config: %w", err)
	}
	return Overlay(seed.Values, seed.Config, d.Values, d.Fields)
}

// Overlay applies declared values and field configs over seeded ones.
func Overlay(values value.Value, cfg editor.Config, declared value.Value, fields map[string]editor.Config) (value.Value, editor.Config, error) {
	if declared.Kind() == value.KindObject {
		for _, key := range declared.Keys() {
			v, _ := declared.Field(key)
			next, err := values.With(key, v)
			if err != nil {
				return value.Null(), editor.Config{}, fmt.Errorf("config: values.%s: %w", key, err)
			}
			values = next
		}
	}
	if len(fields) > 0 {
		merged := make(map[string]editor.Config, len(cfg.Fields)+len(fields))
		for name, c := range cfg.Fields {
			merged[name] = c
		}
		for name, c := range fields {
			merged[name] = c
		}
		cfg.Fields = merged
	}
	if err := cfg.Check(); err != nil {
		return value.Null(), editor.Config{}, fmt.Errorf("config: %w", err)
	}
	return values, cfg, nil
}

// Validator compiles the cross-field rules. It returns nil when there are
// none.
func (d Definition) Validator(opts ...rules.Option) (*rules.Set, error) {
	if len(d.Rules) == 0 {
		return nil, nil
	}
	set, err := rules.Compile(d.Rules, opts...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return set, nil
}

// SubmitFunc builds the offline submit function described by Submit. A
// rejectWhen expression that cannot be evaluated counts as not matching.
func (s Submit) SubmitFunc() (form.SubmitFunc, error) {
	var reject *expr.Expression
	if strings.TrimSpace(s.RejectWhen) != "" {
		compiled, err := expr.Compile(s.RejectWhen)
		if err != nil {
			return nil, fmt.Errorf("config: submit.rejectWhen: %w", err)
		}
		reject = compiled
	}
	return func(_ context.Context, values value.Value) string {
		if reject != nil {
			if hit, err := reject.Eval(values); err == nil && hit {
				return s.RejectMessage
			}
		}
		return s.Message
	}, nil
}
