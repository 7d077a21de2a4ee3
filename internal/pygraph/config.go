package pygraph

// Config configures one Graph. Packages maps a recognized top-level import
// prefix (e.g. "myapp") to the filesystem directory that *contains* that
// prefix's package directory (e.g. "/repo/src", where "/repo/src/myapp" is
// the actual package) — multiple prefixes commonly share one root in a
// monorepo. GlobalPrefixes and LocalPrefixes both name recognized top-level
// import namespaces; the split only matters for how a resolved module gets
// scoped in the module reference cache (local modules carry an owner
// package, letting callers query "everything reachable from this one
// package" separately from the rest of the workspace). ExternalPrefixes
// names import namespaces that should be tracked as opaque leaf nodes
// (present in the graph, but never walked or resolved against the
// filesystem) — typically framework or plugin-discovery namespaces whose
// actual targets aren't real imports (e.g. "myapp.plugins").
type Config struct {
	Packages         map[string]string
	GlobalPrefixes   map[string]struct{}
	LocalPrefixes    map[string]struct{}
	ExternalPrefixes map[string]struct{}
}

func (c Config) combinedPrefixes() map[string]struct{} {
	out := make(map[string]struct{}, len(c.GlobalPrefixes)+len(c.LocalPrefixes))
	for p := range c.GlobalPrefixes {
		out[p] = struct{}{}
	}
	for p := range c.LocalPrefixes {
		out[p] = struct{}{}
	}
	return out
}
