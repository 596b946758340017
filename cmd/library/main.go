package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	envFile    string
	manifest   string
	scriptsDir string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "library",
		Short:         "Inspect and resolve modules of a dependency library",
		Long:          "library loads modules from an HCL manifest and Risor scripts, resolves them on demand and reports the scope tree.",
		SilenceErrors: true,
		SilenceUsage:  true,
		// No Run, prints help by default.
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&flags.manifest, "manifest", "", "HCL manifest path (overrides LIBRARY_MANIFEST)")
	pf.StringVar(&flags.scriptsDir, "scripts-dir", "", "directory of .risor scripts (overrides LIBRARY_SCRIPTS_DIR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug|info|warn|error (overrides LIBRARY_LOG_LEVEL)")
	pf.StringVar(&flags.logFormat, "log-format", "", "text|json|logfmt (overrides LIBRARY_LOG_FORMAT)")

	root.AddCommand(
		newModulesCmd(flags),
		newResolveCmd(flags),
		newDumpCmd(flags),
		newClosureCmd(flags),
		newServeCmd(flags),
	)
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
