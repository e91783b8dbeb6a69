// Package typeform builds typed, validated forms over structured values.
//
// The building blocks live in subpackages: pkg/value (the value model),
// pkg/errval (error trees), pkg/validation (field pipeline and validators),
// pkg/editor (editor selection and input buffers), pkg/form (bindings, scopes
// and submit), pkg/rules (cross-field rules), pkg/openapi (seeding from
// request bodies) and pkg/renderers/tui (terminal sessions). This package
// re-exports the common types and wires the OpenAPI path end to end.
package typeform

import (
	"context"
	"fmt"

	"github.com/goliatone/go-typeform/pkg/editor"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/openapi"
	"github.com/goliatone/go-typeform/pkg/value"
)

// Form aliases form.Form.
type Form = form.Form

// SubmitFunc aliases form.SubmitFunc.
type SubmitFunc = form.SubmitFunc

// Config aliases editor.Config.
type Config = editor.Config

// Value aliases value.Value.
type Value = value.Value

// Option customises FromOpenAPI.
type Option func(*options)

type options struct {
	loader []openapi.LoaderOption
	form   []form.Option
	fields map[string]editor.Config
}

// WithLoaderOptions configures how the OpenAPI document is fetched.
func WithLoaderOptions(opts ...openapi.LoaderOption) Option {
	return func(o *options) {
		o.loader = append(o.loader, opts...)
	}
}

// WithFormOptions passes options to form.New after the seeded config.
func WithFormOptions(opts ...form.Option) Option {
	return func(o *options) {
		o.form = append(o.form, opts...)
	}
}

// WithFieldConfig replaces the seeded editor config of a top-level field.
func WithFieldConfig(name string, cfg editor.Config) Option {
	return func(o *options) {
		if o.fields == nil {
			o.fields = make(map[string]editor.Config)
		}
		o.fields[name] = cfg
	}
}

// NewLoader exposes the OpenAPI loader constructor from the top-level module.
func NewLoader(opts ...openapi.LoaderOption) *openapi.Loader {
	return openapi.NewLoader(opts...)
}

// FromOpenAPI loads the document at src, seeds initial values and editor
// config from the request body of operationID and returns the form.
func FromOpenAPI(ctx context.Context, src openapi.Source, operationID string, submit SubmitFunc, opts ...Option) (*Form, error) {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	seed, err := openapi.LoadSeed(ctx, src, operationID, o.loader...)
	if err != nil {
		return nil, err
	}
	cfg := seed.Config
	if len(o.fields) > 0 {
		fields := make(map[string]editor.Config, len(cfg.Fields)+len(o.fields))
		for name, c := range cfg.Fields {
			fields[name] = c
		}
		for name, c := range o.fields {
			fields[name] = c
		}
		cfg.Fields = fields
		if err := cfg.Check(); err != nil {
			return nil, fmt.Errorf("typeform: %w", err)
		}
	}
	formOpts := append([]form.Option{form.WithConfig(cfg)}, o.form...)
	return form.New(seed.Values, submit, formOpts...)
}
