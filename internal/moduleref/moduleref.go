// Package moduleref implements the module reference cache: a bidirectional
// interning table mapping (filesystem path, import path, owner package)
// triples to dense integer ids, shared across the concurrent graph-building
// walk behind a single RWMutex.
package moduleref

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ID is a dense identifier assigned in insertion order. The zero value
// names the first module ever interned, so callers track "no id" with a
// separate bool/pointer rather than a sentinel ID value.
type ID uint32

// Entry is one interned module reference. Pkg is nil for modules that are
// not scoped to a particular owning package (global import-path namespace).
type Entry struct {
	FSPath     string
	ImportPath string
	Pkg        *string
}

// Cache is the append-only, bidirectionally-indexed set of interned module
// references. The zero value is ready to use.
type Cache struct {
	mu sync.RWMutex

	values        []Entry
	fsToRef       map[string]ID
	pyToRefGlobal map[string]ID
	pyToRefLocal  map[string]map[string]ID
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		fsToRef:       make(map[string]ID),
		pyToRefGlobal: make(map[string]ID),
		pyToRefLocal:  make(map[string]map[string]ID),
	}
}

// MaxValue returns the number of distinct modules interned so far, i.e.
// one past the highest valid ID.
func (c *Cache) MaxValue() ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ID(len(c.values))
}

// Get returns the entry for id. Panics if id is out of range, mirroring
// the invariant that every ID handed out by GetOrCreate stays valid for
// the lifetime of the cache.
func (c *Cache) Get(id ID) Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[id]
}

// PyForRef returns the import path for id.
func (c *Cache) PyForRef(id ID) string { return c.Get(id).ImportPath }

// FSForRef returns the filesystem path for id.
func (c *Cache) FSForRef(id ID) string { return c.Get(id).FSPath }

// PkgForRef returns the owner package for id, or nil if global.
func (c *Cache) PkgForRef(id ID) *string { return c.Get(id).Pkg }

// RefForPy looks up a module by import path, scoped to pkg (nil for the
// global namespace).
func (c *Cache) RefForPy(py string, pkg *string) (ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refForPyLocked(py, pkg)
}

func (c *Cache) refForPyLocked(py string, pkg *string) (ID, bool) {
	if pkg != nil {
		local, ok := c.pyToRefLocal[*pkg]
		if !ok {
			return 0, false
		}
		id, ok := local[py]
		return id, ok
	}
	id, ok := c.pyToRefGlobal[py]
	return id, ok
}

// RefForFS looks up a module by filesystem path.
func (c *Cache) RefForFS(fs string) (ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.fsToRef[fs]
	return id, ok
}

// GetOrCreate interns (fs, py, pkg), returning the existing ID on any
// match permitted by the cache invariants, or creating a fresh entry.
// It panics on a genuine conflict — callers are expected to treat this as
// a fatal, unrecoverable bug in the caller's own path bookkeeping, exactly
// as the cache invariants in the specification require.
func (c *Cache) GetOrCreate(fs, py string, pkg *string) ID {
	if strings.ContainsRune(py, os.PathSeparator) {
		panic(fmt.Sprintf("moduleref: import path %q must not contain the path separator (fs=%q)", py, fs))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fs == "" {
		if pkg != nil {
			panic(fmt.Sprintf("moduleref: empty fs path must not carry an owner package (py=%q pkg=%q)", py, *pkg))
		}
		if id, ok := c.pyToRefGlobal[py]; ok {
			return id
		}
	} else if id, ok := c.fsToRef[fs]; ok {
		existing := c.values[id]
		if !samePkg(existing.Pkg, pkg) {
			panic(fmt.Sprintf("moduleref: fs path %q already interned with a different owner package (have %v, got %v)", fs, existing.Pkg, pkg))
		}
		return id
	} else if id, ok := c.refForPyLocked(py, pkg); ok {
		rfs := c.values[id].FSPath
		// A namespace package may legitimately have sibling modules that
		// resolve to the same import path with no fs path recorded yet;
		// allow that soft mismatch, but never a hard fs/fs conflict.
		if rfs != "" && rfs != fs {
			panic(fmt.Sprintf("moduleref: import path %q (pkg=%v) already bound to fs %q, cannot rebind to %q", py, pkg, rfs, fs))
		}
		return id
	}

	id := ID(len(c.values))
	c.values = append(c.values, Entry{FSPath: fs, ImportPath: py, Pkg: pkg})
	if fs != "" {
		c.fsToRef[fs] = id
	}
	if pkg != nil {
		local, ok := c.pyToRefLocal[*pkg]
		if !ok {
			local = make(map[string]ID)
			c.pyToRefLocal[*pkg] = local
		}
		if _, exists := local[py]; exists {
			panic(fmt.Sprintf("moduleref: import path %q already registered under package %q", py, *pkg))
		}
		local[py] = id
	} else {
		if existingID, exists := c.pyToRefGlobal[py]; exists {
			panic(fmt.Sprintf("moduleref: import path %q already registered globally as fs=%q", py, c.values[existingID].FSPath))
		}
		c.pyToRefGlobal[py] = id
	}
	return id
}

// Validate re-derives every inverse-map entry and panics on the first
// mismatch found. Intended for use after bulk construction (e.g. after
// deserializing a cache from disk, or after the parent graph's reification
// pass), not on the hot interning path.
func (c *Cache) Validate() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, v := range c.values {
		id := ID(i)
		if v.FSPath != "" {
			got, ok := c.fsToRef[v.FSPath]
			if !ok || got != id {
				panic(fmt.Sprintf("moduleref: validate failed for fs %q: want id %d, got %d (ok=%v)", v.FSPath, id, got, ok))
			}
		}
		got, ok := c.refForPyLocked(v.ImportPath, v.Pkg)
		if !ok || got != id {
			panic(fmt.Sprintf("moduleref: validate failed for py %q pkg %v: want id %d, got %d (ok=%v)", v.ImportPath, v.Pkg, id, got, ok))
		}
	}
}

func samePkg(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
