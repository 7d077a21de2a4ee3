package closure

import "github.com/ingo-eichhorst/pyimpact/internal/moduleref"

// UnifiedTrigger is a (trigger module, extra dependency set) pair applied
// uniformly to every leaf ancestor of trigger.
type UnifiedTrigger struct {
	Trigger string
	Deps    map[string]struct{}
}

// PackageVaryingTrigger is a (trigger module, per-package extra dependency
// set) pair: each leaf ancestor of trigger receives the extra deps
// registered for its own owner package, if any.
type PackageVaryingTrigger struct {
	Trigger string
	PerPkg  map[string]map[string]struct{}
}

// firstValidDep walks d up through its dotted-parent chain until it finds
// a registered module, matching raw_get_all_imports's tolerance for
// dynamic-dependency declarations that reference symbols rather than
// modules.
func firstValidDep(refs *moduleref.Cache, d string) (moduleref.ID, bool) {
	actual := d
	for {
		if id, ok := refs.RefForPy(actual, nil); ok {
			return id, true
		}
		idx := lastDot(actual)
		if idx < 0 {
			return 0, false
		}
		actual = actual[:idx]
	}
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func convertDeps(tc *TransitiveClosure, trigger CondensedID, deps map[string]struct{}) CondensedEdges {
	extra := newCondensedEdges()
	for d := range deps {
		id, ok := firstValidDep(tc.refs, d)
		if !ok {
			continue
		}
		cref := tc.modToCondensed[id]
		extra.Insert(cref)
		tc.successor[cref].Sub(tc.successor[trigger]).Each(func(s CondensedID) {
			extra.Insert(s)
		})
	}
	return extra
}

// ApplyDynamicEdgesAtLeaves splices extra, non-statically-discoverable
// dependencies into the closure. Per spec, edges are only added at leaf
// components (those with no ancestors of their own) to keep the closure's
// shape independent of unrelated graph structure: a two-pass
// buffer-then-apply is used (compute every extra_deps bitset first, then
// mutate successor/ancestor) because the mutation touches two different
// components' edge sets per triggered leaf, which Go (like the reference
// implementation's Rust borrow checker) cannot prove disjoint through a
// single range over one slice.
func (tc *TransitiveClosure) ApplyDynamicEdgesAtLeaves(unified []UnifiedTrigger, perPackage []PackageVaryingTrigger) {
	for _, u := range unified {
		id, ok := tc.refs.RefForPy(u.Trigger, nil)
		if !ok {
			continue
		}
		c := tc.modToCondensed[id]
		extra := convertDeps(tc, c, u.Deps)
		tc.applyUnifiedTrigger(c, extra)
	}
	for _, p := range perPackage {
		id, ok := tc.refs.RefForPy(p.Trigger, nil)
		if !ok {
			continue
		}
		c := tc.modToCondensed[id]
		converted := make(map[string]CondensedEdges, len(p.PerPkg))
		for pkg, deps := range p.PerPkg {
			converted[pkg] = convertDeps(tc, c, deps)
		}
		tc.applyPackageVaryingTrigger(c, converted)
	}
}

func (tc *TransitiveClosure) applyUnifiedTrigger(trigger CondensedID, extraDeps CondensedEdges) {
	for _, triggered := range tc.ancestor[trigger].Members() {
		if triggered == trigger {
			continue
		}
		if tc.ancestor[triggered].Len() != 0 {
			continue
		}
		applyTrigger(tc.successor, tc.ancestor, trigger, triggered, extraDeps)
	}
}

func (tc *TransitiveClosure) applyPackageVaryingTrigger(trigger CondensedID, perPkgDeps map[string]CondensedEdges) {
	for _, triggered := range tc.ancestor[trigger].Members() {
		if triggered == trigger {
			continue
		}
		if tc.ancestor[triggered].Len() != 0 {
			continue
		}
		var anyMember moduleref.ID
		found := false
		for v := range tc.condensedToMod[triggered] {
			anyMember, found = v, true
			break
		}
		if !found {
			continue
		}
		rv := tc.refs.Get(anyMember)
		if rv.Pkg == nil {
			continue
		}
		extra, ok := perPkgDeps[*rv.Pkg]
		if !ok {
			continue
		}
		applyTrigger(tc.successor, tc.ancestor, trigger, triggered, extra)
	}
}

// applyTrigger adds extraDeps as successors of triggered and registers
// triggered as an ancestor of each of those extra deps. Buffers its own
// set of (successor-slice, ancestor-slice) writes via direct indexing
// rather than a live range, since successors and ancestors here are
// disjoint indices by construction (triggered has no ancestors, so it
// cannot itself appear among extraDeps' own ancestors being mutated).
func applyTrigger(successors, ancestors []CondensedEdges, trigger, triggered CondensedID, extraDeps CondensedEdges) {
	extraDeps.Each(func(extra CondensedID) {
		if trigger == extra || triggered == extra {
			return
		}
		successors[triggered].Insert(extra)
		ancestors[extra].Insert(triggered)
	})
}
