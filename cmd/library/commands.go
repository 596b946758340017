package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-library/framework/app"
	"github.com/km-arc/go-library/framework/config"
	"github.com/km-arc/go-library/framework/inspect"
	"github.com/km-arc/go-library/framework/library"
	"github.com/km-arc/go-library/framework/logging"
)

// bootstrap builds and boots the application, applying flag overrides on
// top of the environment.
func bootstrap(flags *rootFlags, tweak func(*config.Config)) (*app.Application, error) {
	cfg := config.Load(flags.envFile)
	if flags.manifest != "" {
		cfg.Library.Manifest = flags.manifest
	}
	if flags.scriptsDir != "" {
		cfg.Library.ScriptsDir = flags.scriptsDir
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if tweak != nil {
		tweak(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	a, err := app.NewWithConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newModulesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List defined modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(flags, nil)
			if err != nil {
				return err
			}
			for _, name := range a.Modules() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newResolveCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve <identifier>...",
		Short: "Resolve modules and print their instances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			values := make(map[string]any, len(args))
			for _, id := range args {
				v, err := library.Resolve[any](a.Library, id)
				if err != nil {
					return err
				}
				if asJSON {
					values[id] = v
					continue
				}
				fmt.Fprintf(out, "%s: %v\n", id, v)
			}
			if asJSON {
				return writeJSON(out, values)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON object keyed by identifier")
	return cmd
}

func newDumpCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dump [identifier]...",
		Short: "Resolve the given modules, then print the scope tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags, nil)
			if err != nil {
				return err
			}
			for _, id := range args {
				if _, err := library.Resolve[any](a.Library, id); err != nil {
					return err
				}
			}
			report := a.Dump()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), inspect.Render(report))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newClosureCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "closure <name>...",
		Short: "Print every module a reset of the given names would rebuild",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags, nil)
			if err != nil {
				return err
			}
			var names []string
			for _, arg := range args {
				names = append(names, strings.Split(arg, ",")...)
			}
			closure, err := a.ResetClosure(names)
			if err != nil {
				return err
			}
			for _, name := range closure {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspect HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(flags, func(cfg *config.Config) {
				cfg.Inspect.Enabled = true
				if port != "" {
					cfg.Inspect.Port = port
				}
			})
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides INSPECT_PORT)")
	return cmd
}
