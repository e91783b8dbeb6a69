package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-typeform/internal/config"
	"github.com/goliatone/go-typeform/pkg/openapi"
)

// Exit codes.
const (
	exitError   = 1
	exitInvalid = 2
)

// errInvalid marks runs that ended with a form that did not submit.
var errInvalid = errors.New("form not submitted")

func exitCode(err error) int {
	if errors.Is(err, errInvalid) {
		return exitInvalid
	}
	return exitError
}

type globalFlags struct {
	logLevel    string
	configPath  string
	openAPI     string
	operation   string
	httpTimeout time.Duration
	sets        []string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "typeform",
		Short:         "Fill and check typed forms in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&flags.httpTimeout, "http-timeout", 0, "allow http(s) OpenAPI sources with this request timeout")

	root.AddCommand(
		newFillCmd(flags),
		newCheckCmd(flags),
		newOperationsCmd(flags),
	)
	return root
}

// addFormFlags registers the flags that describe where a form comes from.
func addFormFlags(cmd *cobra.Command, flags *globalFlags) {
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "form definition file (YAML or JSON)")
	cmd.Flags().StringVar(&flags.openAPI, "openapi", "", "OpenAPI document path or URL to seed the form from")
	cmd.Flags().StringVar(&flags.operation, "operation", "", "operation id (or method:path) whose request body seeds the form")
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "override a value, path=value (value parsed as YAML)")
}

func (g *globalFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (g *globalFlags) loaderOptions() []openapi.LoaderOption {
	if g.httpTimeout <= 0 {
		return nil
	}
	return []openapi.LoaderOption{openapi.WithHTTPFallback(g.httpTimeout)}
}

// definition loads --config and applies --openapi/--operation on top.
func (g *globalFlags) definition() (config.Definition, error) {
	var def config.Definition
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return config.Definition{}, err
		}
		def = loaded
	}
	if g.openAPI != "" || g.operation != "" {
		if g.openAPI == "" || g.operation == "" {
			return config.Definition{}, errors.New("--openapi and --operation go together")
		}
		def.OpenAPI = &config.OpenAPI{Source: g.openAPI, Operation: g.operation}
	}
	if g.configPath == "" && def.OpenAPI == nil {
		return config.Definition{}, errors.New("either --config or --openapi with --operation is required")
	}
	return def, nil
}

func splitSet(raw string) (string, string, error) {
	path, text, ok := strings.Cut(raw, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", "", fmt.Errorf("--set %q: expected path=value", raw)
	}
	return path, text, nil
}
