// Package pygraph builds a module import graph from a tree of Python
// source files: it walks the configured package roots, parsing files
// concurrently, extracts raw imports from each file with internal/pyimport, resolves
// every raw import target against the filesystem (respecting Python's
// case-sensitive shadowing and namespace-package rules), and hands the
// result to internal/closure for transitive-closure computation.
package pygraph

import (
	"os"
	"strings"
	"sync"

	"github.com/ingo-eichhorst/pyimpact/internal/closure"
	"github.com/ingo-eichhorst/pyimpact/internal/matcher"
	"github.com/ingo-eichhorst/pyimpact/internal/moduleref"
)

// Graph accumulates the module dependency graph as files are parsed. It is
// safe for concurrent use by the worker pool driving ParseParallel.
type Graph struct {
	packages         map[string]string
	globalPrefixes   map[string]struct{}
	localPrefixes    map[string]struct{}
	externalPrefixes map[string]struct{}
	importMatcher    *matcher.Node

	refs *moduleref.Cache

	toModuleMu    sync.Mutex
	toModuleCache map[string]moduleref.ID

	dirMu    sync.Mutex
	dirCache map[string]map[string]struct{}

	nsMu       sync.Mutex
	globalNS   map[moduleref.ID]map[moduleref.ID]struct{}
	unresolved map[string]map[moduleref.ID]struct{}
}

// New creates an empty Graph ready to accept Add calls.
func New(cfg Config) *Graph {
	keys := make([]string, 0, len(cfg.Packages))
	for k := range cfg.Packages {
		keys = append(keys, k)
	}
	return &Graph{
		packages:         cfg.Packages,
		globalPrefixes:   cfg.GlobalPrefixes,
		localPrefixes:    cfg.LocalPrefixes,
		externalPrefixes: cfg.ExternalPrefixes,
		importMatcher:    matcher.FromValues(keys, '.'),
		refs:             moduleref.New(),
		toModuleCache:    make(map[string]moduleref.ID),
		dirCache:         make(map[string]map[string]struct{}),
		globalNS:         make(map[moduleref.ID]map[moduleref.ID]struct{}),
		unresolved:       make(map[string]map[moduleref.ID]struct{}),
	}
}

// isLocal classifies name's top-level namespace: (true, true) for a
// recognized local package, (false, true) for a recognized global one, and
// (false, false) when the namespace isn't configured at all.
func (g *Graph) isLocal(name string) (local bool, ok bool) {
	ns := name
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		ns = name[:idx]
	}
	if _, isLocal := g.localPrefixes[ns]; isLocal {
		return true, true
	}
	if _, isGlobal := g.globalPrefixes[ns]; isGlobal {
		return false, true
	}
	return false, false
}

// Add records one parsed file's raw import targets into the graph. deps is
// the raw import list from pyimport.Result.Imports; it is resolved here
// against the filesystem and the configured prefixes.
func (g *Graph) Add(filepath, pkg, module string, deps []string, isNsPkgInit bool) {
	isLocal, ok := g.isLocal(module)
	if !ok {
		return
	}

	// foo.py next to foo/__init__.py: Python always prefers the package,
	// so the module file must yield to it to keep the fs/py mapping
	// one-to-one. The dropped file is reported on stderr.
	if g.existsCaseSensitive(filepath[:len(filepath)-3], "__init__.py") {
		os.Stderr.WriteString("pygraph: " + filepath + " is shadowed by package " + filepath[:len(filepath)-3] + ", skipped\n")
		return
	}

	unresolvedParents := make(map[string]struct{})
	imports := make(map[moduleref.ID]struct{})

	for _, dep := range deps {
		if dep == "__import__" {
			imports[g.refs.GetOrCreate("", dep, nil)] = struct{}{}
			continue
		}
		external := ""
		for p := dep; p != ""; {
			if _, ok := g.externalPrefixes[p]; ok {
				external = p
				break
			}
			idx := strings.LastIndexByte(p, '.')
			if idx < 0 {
				break
			}
			p = p[:idx]
		}
		if external != "" {
			imports[g.refs.GetOrCreate("", external, nil)] = struct{}{}
			continue
		}
		if strings.HasSuffix(dep, ".*") {
			target := dep[:len(dep)-2]
			if refs := g.toModuleListLocalAware(pkg, target); refs != nil {
				for _, r := range refs {
					imports[r] = struct{}{}
				}
			}
			continue
		}
		if depRef, ok := g.toModuleLocalAware(pkg, dep); ok {
			imports[depRef] = struct{}{}
			continue
		}
		if _, ok := g.isLocal(dep); ok {
			if idx := strings.LastIndexByte(dep, '.'); idx >= 0 {
				unresolvedParents[dep[:idx]] = struct{}{}
			}
		}
	}

	nspkg := isNsPkgInit || g.importMatcher.StrictPrefix(module, '.')

	var moduleRef moduleref.ID
	if nspkg && !isLocal {
		moduleRef = g.refs.GetOrCreate("", module, nil)
	} else if isLocal {
		pkgCopy := pkg
		moduleRef = g.refs.GetOrCreate(filepath, module, &pkgCopy)
	} else {
		moduleRef = g.refs.GetOrCreate(filepath, module, nil)
	}

	if len(unresolvedParents) > 0 {
		g.nsMu.Lock()
		for parent := range unresolvedParents {
			set, ok := g.unresolved[parent]
			if !ok {
				set = make(map[moduleref.ID]struct{})
				g.unresolved[parent] = set
			}
			set[moduleRef] = struct{}{}
		}
		g.nsMu.Unlock()
	}

	g.nsMu.Lock()
	if nspkg {
		if existing, ok := g.globalNS[moduleRef]; ok {
			for r := range imports {
				existing[r] = struct{}{}
			}
			g.nsMu.Unlock()
			return
		}
	}
	g.globalNS[moduleRef] = imports
	g.nsMu.Unlock()
}

func firstSegment(s string) string {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// existsCaseSensitive checks whether dir/name exists with exactly that
// casing, per PEP 235: case-preserving filesystems happily resolve
// "from foo import Bar" to foo/bar.py even if the real symbol is
// foo.bar.Bar, which is not what Python's import machinery actually does.
func (g *Graph) existsCaseSensitive(dir, name string) bool {
	if _, err := os.Stat(dir + string(os.PathSeparator) + name); err != nil {
		return false
	}

	g.dirMu.Lock()
	defer g.dirMu.Unlock()

	children, ok := g.dirCache[dir]
	if !ok {
		entries, err := os.ReadDir(dir)
		if err != nil {
			g.dirCache[dir] = nil
			return false
		}
		children = make(map[string]struct{}, len(entries))
		for _, e := range entries {
			children[e.Name()] = struct{}{}
		}
		g.dirCache[dir] = children
	}
	_, ok = children[name]
	return ok
}

// toModuleNoCache resolves dep (a dotted import path) to a ModuleRef by
// checking the filesystem directly, without consulting the resolution
// cache. It tries dep as given, then falls back once to stripping the
// last dotted component (the target might name a symbol within a module,
// not the module itself).
func (g *Graph) toModuleNoCache(pkgPath string, dep string, refPkg *string) (moduleref.ID, bool) {
	if g.importMatcher.StrictPrefix(dep, '.') {
		return g.refs.GetOrCreate("", dep, nil), true
	}

	depBase := pkgPath + "/" + strings.ReplaceAll(dep, ".", "/")
	for attempt := 0; attempt < 2; attempt++ {
		candidateInit := depBase + "/__init__.py"
		candidateModule := depBase + ".py"

		if r, ok := g.refs.RefForFS(candidateInit); ok {
			return r, true
		}
		if r, ok := g.refs.RefForFS(candidateModule); ok {
			return r, true
		}
		if g.existsCaseSensitive(depBase, "__init__.py") {
			return g.refs.GetOrCreate(candidateInit, dep, refPkg), true
		}
		if idx := strings.LastIndexByte(candidateModule, '/'); idx >= 0 {
			dir, name := candidateModule[:idx], candidateModule[idx+1:]
			if g.existsCaseSensitive(dir, name) {
				return g.refs.GetOrCreate(candidateModule, dep, refPkg), true
			}
		}

		// Strip the last dotted component and try again; a from-import
		// may target a symbol rather than a submodule.
		idx := strings.LastIndexByte(dep, '.')
		if idx < 0 {
			break
		}
		depBase = depBase[:len(pkgPath)+1+idx]
		dep = dep[:idx]
	}
	return 0, false
}

// toModuleWithCache memoizes toModuleNoCache results for globally-scoped
// (refPkg == nil) lookups; locally-scoped lookups are not cached because
// the same dotted name can resolve differently depending on which package
// is asking.
func (g *Graph) toModuleWithCache(pkgPath string, dep string, refPkg *string) (moduleref.ID, bool) {
	if refPkg != nil {
		return g.toModuleNoCache(pkgPath, dep, refPkg)
	}

	g.toModuleMu.Lock()
	if r, ok := g.toModuleCache[dep]; ok {
		g.toModuleMu.Unlock()
		return r, true
	}
	g.toModuleMu.Unlock()

	r, ok := g.toModuleNoCache(pkgPath, dep, refPkg)
	if ok {
		g.toModuleMu.Lock()
		g.toModuleCache[dep] = r
		g.toModuleMu.Unlock()
	}
	return r, ok
}

// toModuleLocalAware resolves dep the way a file in pkg would see it: a
// configured package rooted somewhere other than pkg resolves against its
// own root (scoped to that root when it is local, globally otherwise), then
// locally-scoped names resolve against pkg itself.
func (g *Graph) toModuleLocalAware(pkg string, dep string) (moduleref.ID, bool) {
	depPkgFS, matched := g.packages[g.importMatcher.LongestPrefix(dep, '.')]
	if matched && depPkgFS != pkg {
		if local, ok := g.isLocal(dep); ok && local {
			ownerCopy := depPkgFS
			return g.toModuleNoCache(depPkgFS, dep, &ownerCopy)
		}
		return g.toModuleWithCache(depPkgFS, dep, nil)
	}
	if local, ok := g.isLocal(dep); ok && local {
		pkgCopy := pkg
		return g.toModuleNoCache(pkg, dep, &pkgCopy)
	}
	return g.toModuleWithCache(pkg, dep, nil)
}

// toModuleList resolves dep to every module it could plausibly stand for:
// itself (if it resolves directly) plus, if dep also names a directory,
// every immediate submodule found inside it. Used for star-import
// expansion, where the target of "from foo.bar import *" pulls in every
// submodule of foo.bar as a potential dependency.
func (g *Graph) toModuleList(pkgPath string, dep string, pkg *string) []moduleref.ID {
	direct, directOK := g.toModuleWithCache(pkgPath, dep, pkg)

	targetPath := pkgPath + "/" + strings.ReplaceAll(dep, ".", "/")
	entries, err := os.ReadDir(targetPath)
	if err != nil {
		if directOK {
			return []moduleref.ID{direct}
		}
		return nil
	}

	out := make([]moduleref.ID, 0, len(entries)+1)
	for _, e := range entries {
		name := e.Name()
		var sub string
		if e.IsDir() {
			if _, err := os.Stat(targetPath + "/" + name + "/__init__.py"); err != nil {
				continue
			}
			sub = name
		} else if strings.HasSuffix(name, ".py") && name != "__init__.py" {
			sub = name[:len(name)-3]
		} else {
			continue
		}
		if r, ok := g.toModuleWithCache(pkgPath, dep+"."+sub, pkg); ok {
			out = append(out, r)
		}
	}
	if directOK {
		out = append(out, direct)
	}
	return out
}

func (g *Graph) toModuleListLocalAware(pkg string, dep string) []moduleref.ID {
	local, ok := g.isLocal(dep)
	if !ok {
		return nil
	}
	if depPkgFS, ok := g.packages[g.importMatcher.LongestPrefix(dep, '.')]; ok && depPkgFS != pkg {
		if local {
			ownerCopy := depPkgFS
			return g.toModuleList(depPkgFS, dep, &ownerCopy)
		}
		return g.toModuleList(depPkgFS, dep, nil)
	}
	if !local {
		return g.toModuleList(pkg, dep, nil)
	}
	pkgCopy := pkg
	return g.toModuleList(pkg, dep, &pkgCopy)
}

// Finalize reifies parent-package dependencies and hands the accumulated
// graph off to internal/closure for transitive-closure computation. The
// Graph must not be used after Finalize is called.
func (g *Graph) Finalize() *closure.TransitiveClosure {
	g.refs.Validate()
	reifyDeps(g.globalNS, g.refs)

	cg := closure.Graph{}
	for from, tos := range g.globalNS {
		for to := range tos {
			cg.AddEdge(from, to)
		}
	}
	return closure.From(cg, g.refs, g.unresolved)
}

// reifyDeps adds an edge from every module to each of its ancestor
// packages' __init__, because importing x.y.z always runs x/__init__.py
// and x/y/__init__.py as a side effect of Python's import machinery. This
// must run once, after the whole graph is built, so ancestor ids are all
// resolved.
func reifyDeps(g map[moduleref.ID]map[moduleref.ID]struct{}, refs *moduleref.Cache) {
	n := int(refs.MaxValue())
	for i := 0; i < n; i++ {
		id := moduleref.ID(i)
		deps, ok := g[id]
		if !ok {
			continue
		}
		module := refs.Get(id)
		py := module.ImportPath
		for {
			idx := strings.LastIndexByte(py, '.')
			if idx < 0 {
				break
			}
			parentPy := py[:idx]
			pref, ok := refs.RefForPy(parentPy, module.Pkg)
			if !ok {
				// Nothing was ever walked at this import path: it only
				// exists because a deeper descendant names it on the way
				// up, so it's a namespace package with no backing file.
				// Create it the same way toModuleNoCache creates any other
				// unresolvable dotted prefix: no fs path, global-scoped.
				pref = refs.GetOrCreate("", parentPy, nil)
			}
			deps[pref] = struct{}{}
			py = parentPy
		}
	}
}
