// Package cmd implements pyimpact's CLI surface: the "build" command
// materializes a module import graph into a binary closure file, and the
// "query" commands answer depends-on/affected-by questions against it.
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingo-eichhorst/pyimpact/pkg/types"
	"github.com/ingo-eichhorst/pyimpact/pkg/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "pyimpact",
	Short:   "Build and query a Python module import graph for test-impact analysis",
	Long: "pyimpact walks a Python codebase's import graph, computes its transitive\n" +
		"closure, and answers \"what depends on this\" / \"what is affected by a\n" +
		"change to this\" questions against the result — the basis for selecting\n" +
		"which tests to run for a given diff.",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.SilenceErrors = true
}

// Execute runs the root command and exits with code 1 on error.
// ExitError is handled specially: its Code is used as the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *types.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
