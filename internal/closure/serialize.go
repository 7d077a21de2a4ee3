package closure

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// ToFile writes the closure to filepath as a zstd-compressed, varint-framed
// binary blob per the external binary graph file format.
func (tc *TransitiveClosure) ToFile(filepath string) error {
	f, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("closure: create %s: %w", filepath, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("closure: zstd writer: %w", err)
	}
	defer enc.Close()

	if err := tc.WriteTo(enc); err != nil {
		return fmt.Errorf("closure: write %s: %w", filepath, err)
	}
	return enc.Close()
}

// FromFile reads a closure previously written by ToFile.
func FromFile(filepath string) (*TransitiveClosure, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("closure: open %s: %w", filepath, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("closure: zstd reader: %w", err)
	}
	defer dec.Close()

	return ReadFrom(dec)
}

// WriteTo serializes the closure: the module-ref cache, the mod->condensed
// mapping, then per-component module sets, successor edges and ancestor
// edges, followed by the unresolved-import index. Every integer is
// varint-framed.
func (tc *TransitiveClosure) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := tc.refs.WriteTo(bw); err != nil {
		return err
	}

	if err := writeUvarint(bw, uint64(len(tc.modToCondensed))); err != nil {
		return err
	}
	for _, c := range tc.modToCondensed {
		if err := writeUvarint(bw, uint64(c)); err != nil {
			return err
		}
	}

	if err := writeUvarint(bw, uint64(len(tc.condensedToMod))); err != nil {
		return err
	}
	for i := range tc.condensedToMod {
		scc := tc.condensedToMod[i]
		if err := writeUvarint(bw, uint64(len(scc))); err != nil {
			return err
		}
		for v := range scc {
			if err := writeUvarint(bw, uint64(v)); err != nil {
				return err
			}
		}

		succ := tc.successor[i]
		if err := writeUvarint(bw, uint64(succ.Len())); err != nil {
			return err
		}
		var werr error
		succ.Each(func(c CondensedID) {
			if werr == nil {
				werr = writeUvarint(bw, uint64(c))
			}
		})
		if werr != nil {
			return werr
		}

		anc := tc.ancestor[i]
		if err := writeUvarint(bw, uint64(anc.Len())); err != nil {
			return err
		}
		anc.Each(func(c CondensedID) {
			if werr == nil {
				werr = writeUvarint(bw, uint64(c))
			}
		})
		if werr != nil {
			return werr
		}
	}

	if err := writeUvarint(bw, uint64(len(tc.Unresolved))); err != nil {
		return err
	}
	for prefix, refs := range tc.Unresolved {
		if err := writeString(bw, prefix); err != nil {
			return err
		}
		if err := writeUvarint(bw, uint64(len(refs))); err != nil {
			return err
		}
		for r := range refs {
			if err := writeUvarint(bw, uint64(r)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// ReadFrom deserializes a closure written by WriteTo.
func ReadFrom(r io.Reader) (*TransitiveClosure, error) {
	br := bufio.NewReader(r)

	refs, err := moduleref.ReadFrom(br)
	if err != nil {
		return nil, fmt.Errorf("closure: module refs: %w", err)
	}

	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("closure: mod_to_condensed length: %w", err)
	}
	modToCondensed := make([]CondensedID, n)
	for i := range modToCondensed {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("closure: mod_to_condensed[%d]: %w", i, err)
		}
		modToCondensed[i] = CondensedID(v)
	}

	n, err = binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("closure: condensed count: %w", err)
	}
	condensedToMod := make([]map[moduleref.ID]struct{}, n)
	successor := make([]CondensedEdges, n)
	ancestor := make([]CondensedEdges, n)
	for i := range condensedToMod {
		l, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("closure: component %d size: %w", i, err)
		}
		scc := make(map[moduleref.ID]struct{}, l)
		for j := uint64(0); j < l; j++ {
			v, err := binary.ReadUvarint(br)
			if err != nil {
				return nil, fmt.Errorf("closure: component %d member %d: %w", i, j, err)
			}
			scc[moduleref.ID(v)] = struct{}{}
		}
		condensedToMod[i] = scc

		succ, err := readEdges(br)
		if err != nil {
			return nil, fmt.Errorf("closure: component %d successors: %w", i, err)
		}
		successor[i] = succ

		anc, err := readEdges(br)
		if err != nil {
			return nil, fmt.Errorf("closure: component %d ancestors: %w", i, err)
		}
		ancestor[i] = anc
	}

	n, err = binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("closure: unresolved count: %w", err)
	}
	unresolved := make(map[string]map[moduleref.ID]struct{}, n)
	for i := uint64(0); i < n; i++ {
		prefix, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("closure: unresolved[%d] prefix: %w", i, err)
		}
		l, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("closure: unresolved[%d] size: %w", i, err)
		}
		refSet := make(map[moduleref.ID]struct{}, l)
		for j := uint64(0); j < l; j++ {
			v, err := binary.ReadUvarint(br)
			if err != nil {
				return nil, fmt.Errorf("closure: unresolved[%d] member %d: %w", i, j, err)
			}
			refSet[moduleref.ID(v)] = struct{}{}
		}
		unresolved[prefix] = refSet
	}

	return &TransitiveClosure{
		refs:           refs,
		modToCondensed: modToCondensed,
		condensedToMod: condensedToMod,
		successor:      successor,
		ancestor:       ancestor,
		Unresolved:     unresolved,
	}, nil
}

func readEdges(br *bufio.Reader) (CondensedEdges, error) {
	l, err := binary.ReadUvarint(br)
	if err != nil {
		return CondensedEdges{}, err
	}
	e := newCondensedEdges()
	for i := uint64(0); i < l; i++ {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return CondensedEdges{}, err
		}
		e.Insert(CondensedID(v))
	}
	return e, nil
}

func writeUvarint(w io.ByteWriter, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	for i := 0; i < n; i++ {
		if err := w.WriteByte(buf[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeString(bw *bufio.Writer, s string) error {
	if err := writeUvarint(bw, uint64(len(s))); err != nil {
		return err
	}
	_, err := bw.WriteString(s)
	return err
}

func readString(br *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
