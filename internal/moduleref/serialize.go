package moduleref

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// WriteTo serializes the cache as a varint-prefixed entry count followed by,
// for each entry in insertion order, three varint-length-prefixed byte
// strings: fs path, import path, owner package (empty string for none).
func (c *Cache) WriteTo(w io.Writer) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bw := bufio.NewWriter(w)
	var n int64
	written, err := writeUvarint(bw, uint64(len(c.values)))
	n += written
	if err != nil {
		return n, err
	}
	for _, v := range c.values {
		pkg := ""
		if v.Pkg != nil {
			pkg = *v.Pkg
		}
		for _, s := range [3]string{v.FSPath, v.ImportPath, pkg} {
			written, err = writeUvarint(bw, uint64(len(s)))
			n += written
			if err != nil {
				return n, err
			}
			m, err := bw.WriteString(s)
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

// ReadFrom rebuilds a cache from the format written by WriteTo, re-deriving
// the inverse indexes from scratch (mirroring the source format's
// from_values reconstruction).
func ReadFrom(r io.Reader) (*Cache, error) {
	br := bufio.NewReader(r)
	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("moduleref: reading entry count: %w", err)
	}

	c := New()
	c.values = make([]Entry, 0, count)
	buf := make([]byte, 0, 256)
	for i := uint64(0); i < count; i++ {
		fs, err := readString(br, &buf)
		if err != nil {
			return nil, fmt.Errorf("moduleref: reading entry %d fs path: %w", i, err)
		}
		py, err := readString(br, &buf)
		if err != nil {
			return nil, fmt.Errorf("moduleref: reading entry %d import path: %w", i, err)
		}
		pkg, err := readString(br, &buf)
		if err != nil {
			return nil, fmt.Errorf("moduleref: reading entry %d owner package: %w", i, err)
		}
		var pkgPtr *string
		if pkg != "" {
			pkgPtr = &pkg
		}
		c.values = append(c.values, Entry{FSPath: fs, ImportPath: py, Pkg: pkgPtr})
	}
	c.reindex()
	return c, nil
}

// reindex rebuilds every inverse map from c.values. Used after bulk load.
func (c *Cache) reindex() {
	for i, v := range c.values {
		id := ID(i)
		if v.FSPath != "" {
			c.fsToRef[v.FSPath] = id
		}
		if v.Pkg != nil {
			local, ok := c.pyToRefLocal[*v.Pkg]
			if !ok {
				local = make(map[string]ID)
				c.pyToRefLocal[*v.Pkg] = local
			}
			local[v.ImportPath] = id
		} else {
			c.pyToRefGlobal[v.ImportPath] = id
		}
	}
}

func writeUvarint(w io.ByteWriter, v uint64) (int64, error) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	for i := 0; i < n; i++ {
		if err := w.WriteByte(buf[i]); err != nil {
			return int64(i), err
		}
	}
	return int64(n), nil
}

func readString(r *bufio.Reader, buf *[]byte) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if cap(*buf) < int(n) {
		*buf = make([]byte, n)
	}
	b := (*buf)[:n]
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
