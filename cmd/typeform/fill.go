package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-typeform/pkg/form"
	"github.com/goliatone/go-typeform/pkg/renderers/tui"
)

func newFillCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Prompt for every field, validate and print the submitted values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			f, def, err := buildForm(cmd.Context(), g, logger)
			if err != nil {
				return err
			}
			if def.Title != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), def.Title)
			}

			session, err := tui.New(tui.WithLogger(logger))
			if err != nil {
				return err
			}
			result, err := session.Run(cmd.Context(), f)
			if err != nil {
				return err
			}
			if result.Status != form.Submitted {
				return fmt.Errorf("%w: %s", errInvalid, result.Status)
			}

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return writeDocument(out, format, result.Values)
		},
	}
	addFormFlags(cmd, g)
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write values to this file instead of stdout")
	return cmd
}
