package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-typeform/internal/config"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/rules"
	"github.com/goliatone/go-typeform/pkg/value"
)

// buildForm resolves the definition into a form: seeded and declared values,
// --set overrides, editor config, cross-field rules and the submit function.
func buildForm(ctx context.Context, g *globalFlags, logger *slog.Logger, extra ...form.Option) (*form.Form, config.Definition, error) {
	def, err := g.definition()
	if err != nil {
		return nil, config.Definition{}, err
	}
	values, cfg, err := def.Resolve(ctx, g.loaderOptions()...)
	if err != nil {
		return nil, def, err
	}
	values, err = applySets(values, g.sets)
	if err != nil {
		return nil, def, err
	}

	submit, err := def.Submit.SubmitFunc()
	if err != nil {
		return nil, def, err
	}
	opts := []form.Option{
		form.WithConfig(cfg),
		form.WithLogger(logger),
		form.WithValidateBeforeSubmit(),
	}
	set, err := def.Validator(rules.WithLogger(logger))
	if err != nil {
		return nil, def, err
	}
	if set != nil {
		opts = append(opts, form.WithValidator(set.Validator()))
	}
	opts = append(opts, extra...)

	f, err := form.New(values, submit, opts...)
	if err != nil {
		return nil, def, err
	}
	logger.Debug("form ready",
		slog.String("title", def.Title),
		slog.Int("fields", values.Len()),
		slog.Int("rules", len(def.Rules)),
	)
	return f, def, nil
}

func applySets(values value.Value, sets []string) (value.Value, error) {
	for _, raw := range sets {
		path, text, err := splitSet(raw)
		if err != nil {
			return value.Null(), err
		}
		v := value.String("")
		if strings.TrimSpace(text) != "" {
			v, err = value.ParseYAML([]byte(text))
			if err != nil {
				return value.Null(), fmt.Errorf("--set %s: %w", path, err)
			}
		}
		values, err = value.Set(values, path, v)
		if err != nil {
			return value.Null(), fmt.Errorf("--set %s: %w", path, err)
		}
	}
	return values, nil
}
