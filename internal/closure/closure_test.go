package closure

import (
	"bytes"
	"testing"

	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// buildRefs interns n modules named m0..m(n-1) with no fs path (global
// namespace), returning their ids in order.
func buildRefs(n int) (*moduleref.Cache, []moduleref.ID) {
	refs := moduleref.New()
	ids := make([]moduleref.ID, n)
	for i := 0; i < n; i++ {
		ids[i] = refs.GetOrCreate("", label(i), nil)
	}
	return refs, ids
}

func label(i int) string {
	return string(rune('a' + i))
}

func TestLinearChainClosure(t *testing.T) {
	// a -> b -> c ; depends_on(a) = {b, c}; depends_on(c) = {}
	// (acyclic components do not include themselves)
	refs, ids := buildRefs(3)
	g := Graph{}
	g.AddEdge(ids[0], ids[1])
	g.AddEdge(ids[1], ids[2])

	tc := From(g, refs, nil)

	depsA := tc.DependsOn(ids[0])
	for _, want := range []string{"b", "c"} {
		if _, ok := depsA[want]; !ok {
			t.Errorf("depends_on(a) missing %q: %v", want, depsA)
		}
	}
	depsC := tc.DependsOn(ids[2])
	if len(depsC) != 0 {
		t.Errorf("depends_on(c) = %v, want empty", depsC)
	}
	if _, ok := depsA["a"]; ok {
		t.Errorf("depends_on(a) includes a itself, got %v", depsA)
	}
}

func TestCycleCollapsesToSingleComponent(t *testing.T) {
	// a -> b -> a : single SCC {a,b}
	refs, ids := buildRefs(2)
	g := Graph{}
	g.AddEdge(ids[0], ids[1])
	g.AddEdge(ids[1], ids[0])

	tc := From(g, refs, nil)

	cycles := tc.CycleComponents()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Fatalf("expected one 2-element cycle, got %v", cycles)
	}

	depsA := tc.DependsOn(ids[0])
	depsB := tc.DependsOn(ids[1])
	if len(depsA) != 2 || len(depsB) != 2 {
		t.Errorf("expected both cycle members to depend on each other, got a=%v b=%v", depsA, depsB)
	}
}

func TestAffectedByIsInverseOfDependsOn(t *testing.T) {
	// a -> b -> c ; affected_by(c) = {a, b}
	refs, ids := buildRefs(3)
	g := Graph{}
	g.AddEdge(ids[0], ids[1])
	g.AddEdge(ids[1], ids[2])

	tc := From(g, refs, nil)

	affected, unknown := tc.AffectedByModules([]string{"c"})
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown modules: %v", unknown)
	}
	for _, want := range []string{"a", "b"} {
		if _, ok := affected[want]; !ok {
			t.Errorf("affected_by(c) missing %q: %v", want, affected)
		}
	}
}

func TestIsolatedModuleHasTrivialClosure(t *testing.T) {
	refs, ids := buildRefs(1)
	g := Graph{}

	tc := From(g, refs, nil)
	deps := tc.DependsOn(ids[0])
	if len(deps) != 0 {
		t.Fatalf("isolated module should have no dependencies (not even itself), got %v", deps)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	refs, ids := buildRefs(3)
	g := Graph{}
	g.AddEdge(ids[0], ids[1])
	g.AddEdge(ids[1], ids[2])
	tc := From(g, refs, map[string]map[moduleref.ID]struct{}{
		"missing.pkg": {ids[0]: struct{}{}},
	})

	var buf bytes.Buffer
	if err := tc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	tc2, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	deps1 := tc.DependsOn(ids[0])
	deps2 := tc2.DependsOn(ids[0])
	if len(deps1) != len(deps2) {
		t.Fatalf("round trip changed depends_on(a): %v != %v", deps1, deps2)
	}
	if len(tc2.Unresolved) != 1 {
		t.Fatalf("round trip lost unresolved index: %v", tc2.Unresolved)
	}
}
