package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ingo-eichhorst/pyimpact/internal/config"
	"github.com/ingo-eichhorst/pyimpact/internal/output"
	"github.com/ingo-eichhorst/pyimpact/internal/pipeline"
	"github.com/ingo-eichhorst/pyimpact/internal/rootdiscovery"
	"github.com/ingo-eichhorst/pyimpact/pkg/types"
)

var (
	buildConfigPath     string
	buildRoots          []string
	buildGlobalPrefixes []string
	buildExternalPrefix []string
	buildOutputPath     string
	buildTextDumpPath   string
	buildJSONStats      bool
	buildBadge          bool
	buildChartPath      string
)

var buildCmd = &cobra.Command{
	Use:   "build <directory>",
	Short: "Walk a Python project and materialize its import-graph transitive closure",
	Long: `Build walks a Python project's configured source roots, extracts and
resolves every import, and computes the transitive closure of the resulting
module graph. The result is written to a binary graph file for later query
commands to load.

Source roots come from (in priority order): --root flags, the file named by
--config, or a .pyimpactrc.yml (or .pyimpactrc.yaml) in <directory>; if none
are given, roots are auto-discovered from <directory>'s top-level package
directories (honoring .gitignore).`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildConfigPath, "config", "", "path to .pyimpactrc.yml project config file")
	buildCmd.Flags().StringArrayVar(&buildRoots, "root", nil, "source root as prefix:fspath (repeatable/comma-separated), or @file with one prefix:fspath per line")
	buildCmd.Flags().StringSliceVar(&buildGlobalPrefixes, "global-prefix", nil, "recognized third-party import namespace (repeatable/comma-separated)")
	buildCmd.Flags().StringSliceVar(&buildExternalPrefix, "external-prefix", nil, "opaque leaf import namespace (repeatable/comma-separated)")
	buildCmd.Flags().StringVar(&buildOutputPath, "output", ".pyimpact.graph", "path to write the binary graph file")
	buildCmd.Flags().StringVar(&buildTextDumpPath, "text-dump", "", "path to write a human-diffable small-text dump of the closure")
	buildCmd.Flags().BoolVar(&buildJSONStats, "json", false, "print graph stats as JSON instead of text")
	buildCmd.Flags().BoolVar(&buildBadge, "badge", false, "print a shields.io badge markdown line summarizing graph health")
	buildCmd.Flags().StringVar(&buildChartPath, "chart", "", "path to write an SVG bar chart of the largest affected-by fan-outs")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("cannot resolve path: %w", err)
	}

	cfg, err := resolveProjectConfig(dir)
	if err != nil {
		return err
	}

	spinner := pipeline.NewSpinner(os.Stderr)
	onProgress := func(stage, detail string) { spinner.Update(detail) }
	spinner.Start("Building graph...")

	p := pipeline.New(cmd.OutOrStdout(), onProgress)
	result, err := p.Build(cmd.Context(), cfg)
	if err != nil {
		spinner.Stop("")
		return types.NewExitError(1, "build failed: %s", err)
	}

	if err := result.Closure.ToFile(buildOutputPath); err != nil {
		spinner.Stop("")
		return fmt.Errorf("write graph file %s: %w", buildOutputPath, err)
	}
	if info, err := os.Stat(buildOutputPath); err == nil {
		result.Stats.GraphFileBytes = info.Size()
	}

	if buildTextDumpPath != "" {
		if err := result.Closure.ToSmallTextFile(buildTextDumpPath); err != nil {
			spinner.Stop("")
			return fmt.Errorf("write text dump %s: %w", buildTextDumpPath, err)
		}
	}

	spinner.Stop("Done.")

	out := cmd.OutOrStdout()
	if buildJSONStats {
		data, err := output.MarshalStatsJSON(result.Stats)
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		output.RenderStats(out, result.Stats)
	}

	if buildBadge {
		fmt.Fprintln(out, output.GenerateBadge(result.Stats).Markdown)
	}

	if buildChartPath != "" {
		svg, err := output.GenerateFanOutChart(result.Stats)
		if err != nil {
			return fmt.Errorf("render fan-out chart: %w", err)
		}
		if svg != "" {
			if err := os.WriteFile(buildChartPath, []byte(svg), 0o644); err != nil {
				return fmt.Errorf("write chart %s: %w", buildChartPath, err)
			}
		}
	}

	return nil
}

// resolveProjectConfig builds the ProjectConfig to run Build against,
// trying --root flags, then a project config file, then auto-discovery,
// in that order. --global-prefix and --external-prefix, when given, replace
// the corresponding lists of a loaded config file.
func resolveProjectConfig(dir string) (*config.ProjectConfig, error) {
	if len(buildRoots) > 0 {
		roots, err := parseRootFlags(buildRoots)
		if err != nil {
			return nil, err
		}
		prefixes := make([]string, 0, len(roots))
		for prefix := range roots {
			prefixes = append(prefixes, prefix)
		}
		cfg := &config.ProjectConfig{
			Version:          1,
			Roots:            roots,
			LocalPrefixes:    prefixes,
			GlobalPrefixes:   buildGlobalPrefixes,
			ExternalPrefixes: buildExternalPrefix,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --root configuration: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadProjectConfig(dir, buildConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		if len(buildGlobalPrefixes) > 0 {
			cfg.GlobalPrefixes = buildGlobalPrefixes
		}
		if len(buildExternalPrefix) > 0 {
			cfg.ExternalPrefixes = buildExternalPrefix
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration after applying prefix flags: %w", err)
		}
		return cfg, nil
	}

	discovered, err := rootdiscovery.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("auto-discover source roots: %w", err)
	}
	if len(discovered) == 0 {
		return nil, types.NewExitError(1, "no .pyimpactrc.yml, no --root flags, and no Python package roots discovered under %s", dir)
	}
	prefixes := make([]string, 0, len(discovered))
	for prefix := range discovered {
		prefixes = append(prefixes, prefix)
	}
	return &config.ProjectConfig{
		Version:        1,
		Roots:          discovered,
		LocalPrefixes:    prefixes,
		GlobalPrefixes:   buildGlobalPrefixes,
		ExternalPrefixes: buildExternalPrefix,
	}, nil
}

// parseRootFlags converts --root values into a prefix->fspath map. Each
// value is either one or more comma-separated "prefix:fspath" pairs, or
// "@path" naming a file with one "prefix:fspath" pair per line (blank lines
// and "#"-comments skipped).
func parseRootFlags(values []string) (map[string]string, error) {
	roots := make(map[string]string)
	for _, v := range values {
		if strings.HasPrefix(v, "@") {
			if err := readRootsFile(v[1:], roots); err != nil {
				return nil, err
			}
			continue
		}
		for _, pair := range strings.Split(v, ",") {
			if err := addRootPair(roots, pair); err != nil {
				return nil, err
			}
		}
	}
	return roots, nil
}

func readRootsFile(path string, roots map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open roots file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := addRootPair(roots, line); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return scanner.Err()
}

func addRootPair(roots map[string]string, pair string) error {
	idx := strings.IndexByte(pair, ':')
	if idx < 0 {
		return fmt.Errorf("invalid root %q, expected prefix:fspath", pair)
	}
	prefix, fsPath := pair[:idx], pair[idx+1:]
	if prefix == "" || fsPath == "" {
		return fmt.Errorf("invalid root %q, expected prefix:fspath", pair)
	}
	roots[prefix] = fsPath
	return nil
}
