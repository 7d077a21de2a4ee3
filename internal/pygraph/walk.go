package pygraph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ingo-eichhorst/pyimpact/internal/pyimport"
)

// ParseParallel walks every distinct filesystem root named in the
// configured packages, extracting imports from each .py file it finds and
// feeding them into Add. Roots are walked one after another; each .py file
// found is read, parsed and added on a worker goroutine (at most GOMAXPROCS
// at once). The parser itself is shared and mutex-serialized (tree-sitter
// parsers are not safe for concurrent use), so the concurrency gain comes
// from overlapping I/O and graph bookkeeping across files rather than from
// parallel parsing per se. A file that fails to parse is reported on stderr
// and skipped; a failed file read does not stop the walk, and the first such
// error is returned once every worker has finished.
func (g *Graph) ParseParallel(ctx context.Context, parser *pyimport.Parser) error {
	roots := make(map[string]struct{}, len(g.packages))
	for _, root := range g.packages {
		roots[root] = struct{}{}
	}
	prefixes := g.combinedPrefixNames()

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for root := range roots {
		root := root
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			depth := strings.Count(rel, string(os.PathSeparator)) + 1
			if depth == 1 {
				if _, ok := prefixes[name]; !ok {
					if d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
			}

			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(name, ".py") {
				return nil
			}

			eg.Go(func() error {
				return g.parseOneFile(root, path, parser)
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("pygraph: walk %s: %w", root, err)
		}
	}

	return eg.Wait()
}

func (g *Graph) combinedPrefixNames() map[string]struct{} {
	out := make(map[string]struct{}, len(g.globalPrefixes)+len(g.localPrefixes))
	for p := range g.globalPrefixes {
		out[p] = struct{}{}
	}
	for p := range g.localPrefixes {
		out[p] = struct{}{}
	}
	return out
}

func (g *Graph) parseOneFile(root, path string, parser *pyimport.Parser) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("pygraph: relative path for %s: %w", path, err)
	}

	module := strings.TrimSuffix(rel, ".py")
	module = strings.ReplaceAll(module, string(os.PathSeparator), ".")

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pygraph: read %s: %w", path, err)
	}

	isInitFile := strings.HasSuffix(rel, string(os.PathSeparator)+"__init__.py") || rel == "__init__.py"

	result, err := parser.ExtractSource(content, isInitFile, pyimport.ExtractOptions{
		Module: module,
		Deep:   true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pygraph: skipping %s: %v\n", path, err)
		return nil
	}

	module = strings.TrimSuffix(module, ".__init__")

	g.Add(path, root, module, result.Imports, result.IsNamespaceInit)
	return nil
}
