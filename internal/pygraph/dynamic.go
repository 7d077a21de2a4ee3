package pygraph

import (
	"strings"

	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// pkgForImportPath returns the owner package scope a dotted import path was
// registered under: the filesystem root of its configured local package, or
// nil if it names no recognized local package (global scope).
func (g *Graph) pkgForImportPath(m string) *string {
	if root, ok := g.packages[g.importMatcher.LongestPrefix(m, '.')]; ok {
		return &root
	}
	return nil
}

// moduleOrParent resolves m to a known module reference, falling back to
// its nearest recorded ancestor package if m itself was never recorded —
// e.g. a dynamic dependency naming a function or class rather than a module.
func (g *Graph) moduleOrParent(m string) (moduleref.ID, bool) {
	pkg := g.pkgForImportPath(m)
	for {
		if r, ok := g.refs.RefForPy(m, pkg); ok {
			return r, true
		}
		idx := strings.LastIndexByte(m, '.')
		if idx < 0 {
			return 0, false
		}
		m = m[:idx]
	}
}

// AddDynamicDependencies splices extra, configuration-supplied edges into
// the graph before closure computation: for each trigger module with at
// least one already-parsed edge set, add edges to every named dependency
// (or its nearest known parent package) that can be resolved. This is how
// dependencies that can't be discovered from static source analysis —
// plugin registries, string-keyed dispatch tables, and the like — get
// folded into the same transitive-closure machinery as ordinary imports.
func (g *Graph) AddDynamicDependencies(edges map[string][]string) {
	g.nsMu.Lock()
	defer g.nsMu.Unlock()
	for trigger, deps := range edges {
		r, ok := g.refs.RefForPy(trigger, g.pkgForImportPath(trigger))
		if !ok {
			continue
		}
		set, ok := g.globalNS[r]
		if !ok {
			continue
		}
		for _, d := range deps {
			if dr, ok := g.moduleOrParent(d); ok {
				set[dr] = struct{}{}
			}
		}
	}
}
