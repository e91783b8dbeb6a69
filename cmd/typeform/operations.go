package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-typeform/pkg/openapi"
)

func newOperationsCmd(g *globalFlags) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the operations of an OpenAPI document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if source == "" {
				return errors.New("--openapi is required")
			}
			src, err := openapi.ParseSource(source)
			if err != nil {
				return err
			}
			data, err := openapi.NewLoader(g.loaderOptions()...).Load(cmd.Context(), src)
			if err != nil {
				return err
			}
			ops, err := openapi.Operations(cmd.Context(), data)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s %s\t%s\n", op.ID, op.Method, op.Path, op.Summary)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&source, "openapi", "", "OpenAPI document path or URL")
	return cmd
}
