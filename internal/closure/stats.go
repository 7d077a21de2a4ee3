package closure

import "github.com/ingo-eichhorst/pyimpact/internal/moduleref"

// ModuleFanOutCounts returns, for every known module, the size of its
// affected-by set (the number of modules transitively depending on it).
// All modules within one SCC share the same count, since they are
// mutually reachable and therefore have an identical ancestor closure.
// Used for health reporting (top fan-out charts/badges), not by any
// query path that needs to stay fast per-call.
func (tc *TransitiveClosure) ModuleFanOutCounts() map[string]int {
	ancestorSize := make([]int, len(tc.condensedToMod))
	for c := range tc.condensedToMod {
		size := 0
		tc.ancestor[c].Each(func(a CondensedID) {
			size += len(tc.condensedToMod[a])
		})
		ancestorSize[c] = size
	}

	counts := make(map[string]int, len(tc.modToCondensed))
	for id, c := range tc.modToCondensed {
		counts[tc.refs.PyForRef(moduleref.ID(id))] = ancestorSize[c]
	}
	return counts
}
