package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ingo-eichhorst/pyimpact/internal/closure"
	"github.com/ingo-eichhorst/pyimpact/internal/explain"
	"github.com/ingo-eichhorst/pyimpact/internal/output"
	"github.com/ingo-eichhorst/pyimpact/pkg/types"
)

var (
	queryGraphPath string
	queryByFile    bool
	queryPkgGroup  bool
	queryJSON      bool
	queryExplain   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer depends-on / affected-by questions against a built graph",
}

var dependsOnCmd = &cobra.Command{
	Use:   "depends-on <module-or-file>...",
	Short: "List everything the given module(s) transitively depend on",
	Args:  cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := loadGraph()
		if err != nil {
			return err
		}

		results := make(map[string]struct{})
		var unknown []string
		for _, arg := range args {
			var deps map[string]struct{}
			var ok bool
			if queryByFile {
				deps, ok = tc.FileDependsOn(arg)
			} else {
				deps, ok = tc.ModuleDependsOn(arg, nil)
			}
			if !ok {
				unknown = append(unknown, arg)
				continue
			}
			for d := range deps {
				results[d] = struct{}{}
			}
		}

		qr := output.NewQueryResult("depends-on", args, results, unknown)
		return renderQueryResult(cmd, qr)
	},
}

var affectedByCmd = &cobra.Command{
	Use:   "affected-by <module-or-file>...",
	Short: "List everything transitively affected by a change to the given module(s)",
	Args:  cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := loadGraph()
		if err != nil {
			return err
		}

		var (
			qr      output.QueryResult
			flat    map[string]struct{}
			unknown []string
		)
		switch {
		case queryPkgGroup && queryByFile:
			grouped, u := tc.LocalAffectedByFiles(args)
			qr = output.NewPackageGroupedResult("affected-by", args, grouped, u)
			unknown = u
		case queryPkgGroup:
			grouped, u := tc.LocalAffectedByModules(args)
			qr = output.NewPackageGroupedResult("affected-by", args, grouped, u)
			unknown = u
		case queryByFile:
			affected, u := tc.AffectedByFiles(args)
			flat, unknown = affected, u
			qr = output.NewQueryResult("affected-by", args, flat, unknown)
		default:
			affected, u := tc.AffectedByModules(args)
			flat, unknown = affected, u
			qr = output.NewQueryResult("affected-by", args, flat, unknown)
		}

		if err := renderQueryResult(cmd, qr); err != nil {
			return err
		}

		if queryExplain && flat != nil {
			if err := runExplain(cmd, args, flat); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryGraphPath, "graph", ".pyimpact.graph", "path to the binary graph file written by build")
	queryCmd.PersistentFlags().BoolVar(&queryByFile, "by-file", false, "treat arguments as filesystem paths instead of import paths")
	queryCmd.PersistentFlags().BoolVar(&queryJSON, "json", false, "print results as JSON")

	affectedByCmd.Flags().BoolVar(&queryPkgGroup, "by-package", false, "group results by owner package (drops global-namespace results)")
	affectedByCmd.Flags().BoolVar(&queryExplain, "explain", false, "send the result to the Anthropic API for a short natural-language summary (requires ANTHROPIC_API_KEY)")

	queryCmd.AddCommand(dependsOnCmd, affectedByCmd)
	rootCmd.AddCommand(queryCmd)
}

func loadGraph() (*closure.TransitiveClosure, error) {
	tc, err := closure.FromFile(queryGraphPath)
	if err != nil {
		return nil, types.NewExitError(1, "load graph %s: %s (run \"pyimpact build\" first)", queryGraphPath, err)
	}
	return tc, nil
}

func renderQueryResult(cmd *cobra.Command, qr output.QueryResult) error {
	out := cmd.OutOrStdout()
	if queryJSON {
		data, err := output.MarshalJSON(qr)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	output.RenderText(out, qr)
	return nil
}

// runExplain sends an already-computed affected-by result to the Anthropic
// API for a short natural-language summary, after showing a cost estimate
// and requiring an interactive "yes" — mirroring the teacher's scan.go C4/C7
// confirmation flow.
func runExplain(cmd *cobra.Command, changed []string, affected map[string]struct{}) error {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("--explain requires ANTHROPIC_API_KEY environment variable\nGet your API key from: https://console.anthropic.com/")
	}

	affectedList := make([]string, 0, len(affected))
	for a := range affected {
		affectedList = append(affectedList, a)
	}

	out := cmd.OutOrStdout()
	estimate := explain.EstimateCost(len(changed), len(affectedList))
	fmt.Fprintf(out, "\nExplain Cost Estimate\n")
	fmt.Fprintf(out, "======================\n")
	fmt.Fprintf(out, "Modules to summarize: %d\n", estimate.ModuleCount)
	fmt.Fprintf(out, "Estimated cost: %s\n\n", estimate.FormatCost())
	fmt.Fprintf(out, "This will send the changed/affected module lists to Anthropic's API.\n")
	fmt.Fprintf(out, "Continue? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "yes" && response != "y" {
		fmt.Fprintf(out, "Explain cancelled.\n")
		return nil
	}

	client, err := explain.NewClient(apiKey)
	if err != nil {
		return fmt.Errorf("create explain client: %w", err)
	}

	summary, err := client.Summarize(cmd.Context(), changed, affectedList)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	fmt.Fprintf(out, "\n%s\n", summary)
	return nil
}
