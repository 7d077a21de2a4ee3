// Package closure computes and queries the transitive closure of a module
// import graph. The condensation (SCC collapse) and successor/ancestor
// closures are built in one depth-first pass using the Stack_TC algorithm
// (E. Nuutila), so the whole module graph never materializes as an
// all-pairs reachability matrix.
package closure

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// CondensedID identifies one strongly-connected component after
// condensation. Distinct from moduleref.ID, which identifies a single
// module — many modules can share one CondensedID when they form a cycle.
type CondensedID uint32

const invalidCondensedID = CondensedID(^uint32(0))

// CondensedEdges is a sparse bitset over CondensedID, used for both the
// successor and ancestor adjacency of the condensation graph. Built on
// github.com/bits-and-blooms/bitset so that graphs with thousands of
// components don't pay for a dense boolean matrix.
type CondensedEdges struct {
	bits *bitset.BitSet
}

func newCondensedEdges() CondensedEdges {
	return CondensedEdges{bits: bitset.New(0)}
}

// Insert adds c to the edge set.
func (e *CondensedEdges) Insert(c CondensedID) {
	e.bits.Set(uint(c))
}

// Contains reports whether c is present.
func (e CondensedEdges) Contains(c CondensedID) bool {
	if e.bits == nil {
		return false
	}
	return e.bits.Test(uint(c))
}

// Len returns the number of members.
func (e CondensedEdges) Len() int {
	if e.bits == nil {
		return 0
	}
	return int(e.bits.Count())
}

// Each calls fn for every member, in ascending order.
func (e CondensedEdges) Each(fn func(CondensedID)) {
	if e.bits == nil {
		return
	}
	for i, ok := e.bits.NextSet(0); ok; i, ok = e.bits.NextSet(i + 1) {
		fn(CondensedID(i))
	}
}

// Members returns the edge set as a sorted slice.
func (e CondensedEdges) Members() []CondensedID {
	out := make([]CondensedID, 0, e.Len())
	e.Each(func(c CondensedID) { out = append(out, c) })
	return out
}

// Sub returns a new set containing members of e absent from other.
func (e CondensedEdges) Sub(other CondensedEdges) CondensedEdges {
	out := newCondensedEdges()
	e.Each(func(c CondensedID) {
		if !other.Contains(c) {
			out.Insert(c)
		}
	})
	return out
}

// Graph is the directed multigraph of per-module dependency edges, as
// collected by the graph builder, ready to be condensed. Edge sets use a
// plain map since they are built once, incrementally, before closure.
type Graph map[moduleref.ID]map[moduleref.ID]struct{}

// AddEdge records a dependency from -> to.
func (g Graph) AddEdge(from, to moduleref.ID) {
	edges, ok := g[from]
	if !ok {
		edges = make(map[moduleref.ID]struct{})
		g[from] = edges
	}
	edges[to] = struct{}{}
}

// TransitiveClosure holds the condensation of a module Graph together with
// its precomputed successor/ancestor closures and an index back to module
// metadata, ready for dependency and impact queries.
type TransitiveClosure struct {
	refs *moduleref.Cache

	modToCondensed []CondensedID
	condensedToMod []map[moduleref.ID]struct{}

	successor []CondensedEdges
	ancestor  []CondensedEdges

	// Unresolved maps an unresolved import prefix to the set of modules
	// whose resolution attempt produced it.
	Unresolved map[string]map[moduleref.ID]struct{}
}

// From computes the transitive closure of g over refs, attaching the given
// unresolved-import index. Ownership of refs transfers to the closure;
// callers must not mutate it further.
func From(g Graph, refs *moduleref.Cache, unresolved map[string]map[moduleref.ID]struct{}) *TransitiveClosure {
	n := int(refs.MaxValue())
	st := &stackTCState{
		d:           make([]int, n),
		root:        make([]moduleref.ID, n),
		comp:        make([]CondensedID, n),
		savedHeight: make([]int, n),
	}
	for i := range st.root {
		st.root[i] = moduleref.ID(^uint32(0))
		st.comp[i] = invalidCondensedID
	}

	for v := range g {
		if st.root[v] == moduleref.ID(^uint32(0)) {
			stackTC(st, v, g)
		}
	}
	// Vertices with no outgoing edges and never visited as a target still
	// need a trivial singleton component.
	for v := moduleref.ID(0); int(v) < n; v++ {
		if st.root[v] == moduleref.ID(^uint32(0)) {
			stackTC(st, v, g)
		}
	}

	ancestor := make([]CondensedEdges, len(st.scc))
	for i := range ancestor {
		ancestor[i] = newCondensedEdges()
	}
	for c := CondensedID(0); int(c) < len(st.scc); c++ {
		st.succ[c].Each(func(s CondensedID) {
			ancestor[s].Insert(c)
		})
	}

	return &TransitiveClosure{
		refs:           refs,
		modToCondensed: st.comp,
		condensedToMod: st.scc,
		successor:      st.succ,
		ancestor:       ancestor,
		Unresolved:     unresolved,
	}
}

// stackTCState is the mutable working state threaded through the
// iterative Stack_TC traversal.
type stackTCState struct {
	maxD        int
	d           []int
	root        []moduleref.ID
	comp        []CondensedID
	savedHeight []int

	cstack []CondensedID
	vstack []moduleref.ID

	scc  []map[moduleref.ID]struct{}
	succ []CondensedEdges
}

// frame is one level of the explicit DFS stack, replacing the native
// recursion used in the reference implementation (stack depth there is
// bounded only by the longest import chain, which is unsafe to assume
// bounded on arbitrary monorepos).
type frame struct {
	v            moduleref.ID
	edges        []moduleref.ID
	idx          int
	hasPending   bool
	pendingChild moduleref.ID
}

// stackTC runs the Stack_TC algorithm from start, extending st in place.
// Ported from the recursive reference (stack_tc in transitive_closure.rs)
// into an explicit work stack: every recursive call in the original
// becomes a pushed frame, and the code that ran "after" a recursive call
// returns is replayed via the frame's hasPending/pendingChild fields once
// that child frame is popped.
func stackTC(st *stackTCState, start moduleref.ID, g Graph) {
	var stack []frame

	push := func(v moduleref.ID) {
		st.root[v] = v
		st.savedHeight[v] = len(st.cstack)
		st.d[v] = st.maxD
		st.maxD++
		st.vstack = append(st.vstack, v)
		edges := make([]moduleref.ID, 0, len(g[v]))
		for w := range g[v] {
			edges = append(edges, w)
		}
		stack = append(stack, frame{v: v, edges: edges})
	}

	processEdge := func(v, w moduleref.ID) {
		cw := st.comp[w]
		if cw == invalidCondensedID {
			rw, rv := st.root[w], st.root[v]
			if st.d[rw] < st.d[rv] {
				st.root[v] = rw
			}
		} else if st.comp[v] == invalidCondensedID {
			st.cstack = append(st.cstack, cw)
		}
	}

	finalizeIfRoot := func(v moduleref.ID) {
		if st.root[v] != v {
			return
		}
		cv := CondensedID(len(st.scc))
		succ := newCondensedEdges()
		if st.vstack[len(st.vstack)-1] != v {
			succ.Insert(cv)
		}
		for len(st.cstack) > st.savedHeight[v] {
			x := st.cstack[len(st.cstack)-1]
			st.cstack = st.cstack[:len(st.cstack)-1]
			if !succ.Contains(x) {
				succ.Insert(x)
				st.succ[x].Each(func(sx CondensedID) {
					succ.Insert(sx)
				})
			}
		}
		st.succ = append(st.succ, succ)

		scc := make(map[moduleref.ID]struct{})
		for {
			w := st.vstack[len(st.vstack)-1]
			st.vstack = st.vstack[:len(st.vstack)-1]
			scc[w] = struct{}{}
			st.comp[w] = cv
			if w == v {
				break
			}
		}
		st.scc = append(st.scc, scc)
	}

	push(start)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.hasPending {
			processEdge(top.v, top.pendingChild)
			top.hasPending = false
		}

		if top.idx < len(top.edges) {
			w := top.edges[top.idx]
			top.idx++
			v := top.v
			if v == w {
				continue
			}
			if st.root[w] == moduleref.ID(^uint32(0)) {
				top.hasPending = true
				top.pendingChild = w
				push(w)
				continue
			}
			processEdge(v, w)
			continue
		}

		finalizeIfRoot(top.v)
		stack = stack[:len(stack)-1]
	}
}
