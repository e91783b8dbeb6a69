package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-typeform/pkg/errval"
	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/value"
)

type checkReport struct {
	Status  form.SubmitStatus `json:"status" yaml:"status"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
	Invalid []string          `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Errors  any               `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var (
		format     string
		valuesPath string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate values against a form without prompting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			f, _, err := buildForm(cmd.Context(), g, logger)
			if err != nil {
				return err
			}
			if valuesPath != "" {
				if err := loadValues(f, valuesPath); err != nil {
					return err
				}
			}

			result, err := f.Submit(cmd.Context())
			if err != nil {
				return err
			}
			report := checkReport{Status: result.Status, Message: result.Message}
			if result.Status != form.Submitted {
				report.Invalid = errval.Paths(f.Errors())
				report.Errors = errval.ToAny(f.Errors())
			}
			if err := writeDocument(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if result.Status != form.Submitted {
				return fmt.Errorf("%w: %s", errInvalid, result.Status)
			}
			return nil
		},
	}
	addFormFlags(cmd, g)
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "report format (json or yaml)")
	cmd.Flags().StringVar(&valuesPath, "values", "", "YAML or JSON file whose values replace the form values")
	return cmd
}

// loadValues writes every top-level key of the file into the form through the
// root scope, the way an editor commits a field.
func loadValues(f *form.Form, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("--values: %w", err)
	}
	values, err := value.ParseYAML(data)
	if err != nil {
		return fmt.Errorf("--values %s: %w", path, err)
	}
	if values.Kind() != value.KindObject {
		return fmt.Errorf("--values %s: expected an object, got %s", path, values.Kind())
	}
	scope := f.Scope()
	for _, key := range values.Keys() {
		v, _ := values.Field(key)
		if err := scope.SetValue(key, v); err != nil {
			return fmt.Errorf("--values %s: %w", path, err)
		}
	}
	return nil
}
