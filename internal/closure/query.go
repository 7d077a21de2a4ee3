package closure

import "github.com/ingo-eichhorst/pyimpact/internal/moduleref"

// DependsOn returns the import paths of every module reachable from m.
// m's own component is included only when it is a cycle (more than one
// module); a module outside any cycle is not listed as depending on itself.
func (tc *TransitiveClosure) DependsOn(m moduleref.ID) map[string]struct{} {
	deps := make(map[string]struct{})
	c := tc.modToCondensed[m]
	tc.successor[c].Each(func(s CondensedID) {
		for v := range tc.condensedToMod[s] {
			deps[tc.refs.PyForRef(v)] = struct{}{}
		}
	})
	return deps
}

// FileDependsOn resolves filepath to a module and returns DependsOn, or
// false if filepath is not a known module.
func (tc *TransitiveClosure) FileDependsOn(filepath string) (map[string]struct{}, bool) {
	id, ok := tc.refs.RefForFS(filepath)
	if !ok {
		return nil, false
	}
	return tc.DependsOn(id), true
}

// ModuleDependsOn resolves an import path (optionally package-scoped) to a
// module and returns DependsOn, or false if unknown.
func (tc *TransitiveClosure) ModuleDependsOn(importPath string, pkgBase *string) (map[string]struct{}, bool) {
	id, ok := tc.refs.RefForPy(importPath, pkgBase)
	if !ok {
		return nil, false
	}
	return tc.DependsOn(id), true
}

// affectedByRefs walks every given module's ancestor closure, collecting
// all reachable condensed components.
func (tc *TransitiveClosure) affectedByRefs(ids []moduleref.ID) CondensedEdges {
	all := newCondensedEdges()
	for _, id := range ids {
		c := tc.modToCondensed[id]
		if int(c) >= len(tc.ancestor) {
			continue
		}
		tc.ancestor[c].Each(func(e CondensedID) {
			all.Insert(e)
		})
	}
	return all
}

func (tc *TransitiveClosure) asConcrete(sccs CondensedEdges, f func(moduleref.Entry) string) map[string]struct{} {
	affected := make(map[string]struct{})
	sccs.Each(func(c CondensedID) {
		for v := range tc.condensedToMod[c] {
			affected[f(tc.refs.Get(v))] = struct{}{}
		}
	})
	return affected
}

func (tc *TransitiveClosure) asConcretePkgGrouped(sccs CondensedEdges, f func(moduleref.Entry) string) map[string]map[string]struct{} {
	grouped := make(map[string]map[string]struct{})
	sccs.Each(func(c CondensedID) {
		for v := range tc.condensedToMod[c] {
			rv := tc.refs.Get(v)
			if rv.Pkg == nil {
				continue
			}
			g, ok := grouped[*rv.Pkg]
			if !ok {
				g = make(map[string]struct{})
				grouped[*rv.Pkg] = g
			}
			g[f(rv)] = struct{}{}
		}
	})
	return grouped
}

// resolveKnown maps a list of module/file identifiers through resolve,
// dropping (and the caller should log) anything that does not name a
// known module.
func resolveKnown(items []string, resolve func(string) (moduleref.ID, bool)) ([]moduleref.ID, []string) {
	var ids []moduleref.ID
	var unknown []string
	for _, item := range items {
		id, ok := resolve(item)
		if !ok {
			unknown = append(unknown, item)
			continue
		}
		ids = append(ids, id)
	}
	return ids, unknown
}

// AffectedByModules returns the set of import paths transitively affected
// by a change to any of modules. unknown lists any input that did not
// resolve to a known module.
func (tc *TransitiveClosure) AffectedByModules(modules []string) (affected map[string]struct{}, unknown []string) {
	ids, unknown := resolveKnown(modules, func(s string) (moduleref.ID, bool) { return tc.refs.RefForPy(s, nil) })
	return tc.asConcrete(tc.affectedByRefs(ids), func(e moduleref.Entry) string { return e.ImportPath }), unknown
}

// AffectedByFiles is the file-path analog of AffectedByModules.
func (tc *TransitiveClosure) AffectedByFiles(files []string) (affected map[string]struct{}, unknown []string) {
	ids, unknown := resolveKnown(files, tc.refs.RefForFS)
	return tc.asConcrete(tc.affectedByRefs(ids), func(e moduleref.Entry) string { return e.FSPath }), unknown
}

// LocalAffectedByModules groups AffectedByModules' result by owner package,
// dropping global-namespace modules (those are not local test targets).
func (tc *TransitiveClosure) LocalAffectedByModules(modules []string) (affected map[string]map[string]struct{}, unknown []string) {
	ids, unknown := resolveKnown(modules, func(s string) (moduleref.ID, bool) { return tc.refs.RefForPy(s, nil) })
	return tc.asConcretePkgGrouped(tc.affectedByRefs(ids), func(e moduleref.Entry) string { return e.ImportPath }), unknown
}

// LocalAffectedByFiles is the file-path analog of LocalAffectedByModules.
func (tc *TransitiveClosure) LocalAffectedByFiles(files []string) (affected map[string]map[string]struct{}, unknown []string) {
	ids, unknown := resolveKnown(files, tc.refs.RefForFS)
	return tc.asConcretePkgGrouped(tc.affectedByRefs(ids), func(e moduleref.Entry) string { return e.FSPath }), unknown
}

// ModuleRefs exposes the backing module-reference cache for callers that
// need direct id<->path lookups (e.g. reporting).
func (tc *TransitiveClosure) ModuleRefs() *moduleref.Cache { return tc.refs }

// ComponentCount returns the number of strongly-connected components in
// the condensation, for health reporting.
func (tc *TransitiveClosure) ComponentCount() int { return len(tc.condensedToMod) }

// CycleComponents returns every component with more than one module,
// i.e. every genuine import cycle.
func (tc *TransitiveClosure) CycleComponents() [][]string {
	var cycles [][]string
	for _, scc := range tc.condensedToMod {
		if len(scc) < 2 {
			continue
		}
		names := make([]string, 0, len(scc))
		for v := range scc {
			names = append(names, tc.refs.PyForRef(v))
		}
		cycles = append(cycles, names)
	}
	return cycles
}
