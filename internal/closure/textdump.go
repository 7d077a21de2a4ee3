package closure

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// ToSmallTextFile writes a stable, human-diffable debug dump: every
// module gets a short "V%04x" label (assigned in sorted-path order so the
// dump is reproducible across runs regardless of discovery order), every
// component gets a "C%04x" label, and each component line lists its
// member module labels and successor component labels.
func (tc *TransitiveClosure) ToSmallTextFile(filepath string) error {
	f, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	n := int(tc.refs.MaxValue())
	refOrder := make([]moduleref.ID, n)
	refLabel := make([]string, n)
	for i := 0; i < n; i++ {
		refOrder[i] = moduleref.ID(i)
		e := tc.refs.Get(moduleref.ID(i))
		if e.Pkg != nil {
			refLabel[i] = e.FSPath
		} else {
			refLabel[i] = e.ImportPath
		}
	}
	sort.Slice(refOrder, func(a, b int) bool {
		return refLabel[refOrder[a]] < refLabel[refOrder[b]]
	})
	refIdx := make([]int, n)
	for i, r := range refOrder {
		refIdx[r] = i
		fmt.Fprintf(w, "V%04x : %s\n", i, refLabel[r])
	}

	nc := len(tc.condensedToMod)
	compOrder := make([]CondensedID, nc)
	compLabel := make([]string, nc)
	for c := 0; c < nc; c++ {
		compOrder[c] = CondensedID(c)
		members := make([]string, 0, len(tc.condensedToMod[c]))
		for v := range tc.condensedToMod[c] {
			members = append(members, fmt.Sprintf("V%04x", refIdx[v]))
		}
		sort.Strings(members)
		compLabel[c] = joinComma(members)
	}
	sort.Slice(compOrder, func(a, b int) bool {
		return compLabel[compOrder[a]] < compLabel[compOrder[b]]
	})
	compIdx := make([]int, nc)
	for i, c := range compOrder {
		compIdx[c] = i
	}

	for i, c := range compOrder {
		succLabels := make([]string, 0)
		tc.successor[c].Each(func(cs CondensedID) {
			succLabels = append(succLabels, fmt.Sprintf("C%04x", compIdx[cs]))
		})
		sort.Strings(succLabels)
		fmt.Fprintf(w, "C%04x (%s) -> %s\n", i, compLabel[c], joinComma(succLabels))
	}
	return nil
}

// ToTextFile writes the fully-expanded (non-abbreviated) textual dump,
// listing import paths directly rather than V/C labels.
func (tc *TransitiveClosure) ToTextFile(filepath string) error {
	f, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	for c := 0; c < len(tc.condensedToMod); c++ {
		nodes := make([]string, 0, len(tc.condensedToMod[c]))
		for v := range tc.condensedToMod[c] {
			nodes = append(nodes, tc.refs.PyForRef(v))
		}
		sort.Strings(nodes)

		var succ []string
		tc.successor[c].Each(func(cs CondensedID) {
			for v := range tc.condensedToMod[cs] {
				succ = append(succ, tc.refs.PyForRef(v))
			}
		})
		sort.Strings(succ)

		fmt.Fprintf(w, "%s : %s\n", joinComma(nodes), joinComma(succ))
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
