// Package pipeline orchestrates one end-to-end graph build from an already
// loaded project configuration: walk and parse the configured source roots, resolve and
// inject dynamic dependencies, run Stack_TC, and hand back a queryable
// TransitiveClosure plus summary stats for reporting.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ingo-eichhorst/pyimpact/internal/closure"
	"github.com/ingo-eichhorst/pyimpact/internal/config"
	"github.com/ingo-eichhorst/pyimpact/internal/output"
	"github.com/ingo-eichhorst/pyimpact/internal/pygraph"
	"github.com/ingo-eichhorst/pyimpact/internal/pyimport"
)

// topFanOutLimit caps how many modules are reported in GraphStats.TopFanOut,
// matching the teacher's verboseTopN-style display caps.
const topFanOutLimit = 10

// Pipeline runs one graph build against a loaded project configuration.
// ProgressFunc (declared in progress.go) feeds stage updates straight into
// a Spinner's Update in cmd/.
type Pipeline struct {
	writer     io.Writer
	onProgress ProgressFunc
}

// New creates a Pipeline. If onProgress is nil, a no-op is used.
func New(w io.Writer, onProgress ProgressFunc) *Pipeline {
	if onProgress == nil {
		onProgress = func(string, string) {}
	}
	return &Pipeline{writer: w, onProgress: onProgress}
}

// BuildResult is the outcome of one Build call.
type BuildResult struct {
	Closure *closure.TransitiveClosure
	Stats   output.GraphStats
}

// Build walks every configured source root, extracts and resolves imports,
// folds in dynamic dependencies from cfg, and computes the transitive
// closure. The returned TransitiveClosure is immutable except for its own
// leaf-edge splice, which Build already applied.
func (p *Pipeline) Build(ctx context.Context, cfg *config.ProjectConfig) (*BuildResult, error) {
	p.onProgress("parse", "initializing parser")
	parser, err := pyimport.NewParser()
	if err != nil {
		return nil, fmt.Errorf("pipeline: initialize parser: %w", err)
	}
	defer parser.Close()

	g := pygraph.New(cfg.ToPygraphConfig())

	p.onProgress("parse", "walking source roots")
	if err := g.ParseParallel(ctx, parser); err != nil {
		return nil, fmt.Errorf("pipeline: walk source roots: %w", err)
	}

	if len(cfg.DynamicDeps.PreClosure) > 0 {
		p.onProgress("resolve", "injecting pre-closure dynamic dependencies")
		g.AddDynamicDependencies(cfg.DynamicDeps.PreClosure)
	}

	p.onProgress("closure", "computing transitive closure")
	tc := g.Finalize()

	if len(cfg.DynamicDeps.Unified) > 0 || len(cfg.DynamicDeps.PerPackage) > 0 {
		p.onProgress("closure", "splicing leaf-edge dynamic dependencies")
		unified, perPackage := cfg.DynamicDeps.ClosureTriggers()
		tc.ApplyDynamicEdgesAtLeaves(unified, perPackage)
	}

	p.onProgress("stats", "summarizing graph")
	stats := computeStats(tc)

	return &BuildResult{Closure: tc, Stats: stats}, nil
}

func computeStats(tc *closure.TransitiveClosure) output.GraphStats {
	stats := output.GraphStats{
		ModuleCount:     int(tc.ModuleRefs().MaxValue()),
		ComponentCount:  tc.ComponentCount(),
		CycleCount:      len(tc.CycleComponents()),
		UnresolvedCount: len(tc.Unresolved),
	}

	counts := tc.ModuleFanOutCounts()
	entries := make([]output.FanOutEntry, 0, len(counts))
	for module, count := range counts {
		if count == 0 {
			continue
		}
		entries = append(entries, output.FanOutEntry{Module: module, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Module < entries[j].Module
	})
	if len(entries) > topFanOutLimit {
		entries = entries[:topFanOutLimit]
	}
	stats.TopFanOut = entries

	return stats
}
