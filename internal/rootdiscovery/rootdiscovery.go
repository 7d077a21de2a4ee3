// Package rootdiscovery auto-discovers Python package source roots from a
// single repository directory, for invocations that supply neither a
// .pyimpactrc.yml nor explicit --root flags. It runs once, before the
// concurrent import-graph walker in internal/pygraph even starts, and is
// the one place in the pipeline that consults .gitignore: spec.md §4.4.1
// mandates the graph walker itself never filter by .gitignore, but picking
// candidate roots in the first place is outside that walker's scope.
package rootdiscovery

import (
	"fmt"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs are directory names that are never themselves package roots or
// worth descending into while discovering roots, regardless of .gitignore.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"env":          true,
	"dist":         true,
	"build":        true,
	".tox":         true,
	".mypy_cache":  true,
	".pytest_cache": true,
}

// Discover walks the immediate children of repoRoot and returns one
// (importPrefix -> repoRoot) pair, repoRoot being the directory that
// contains the package directory, per top-level directory that looks like a
// Python package root: it directly contains an __init__.py, or it contains
// at least one .py file anywhere beneath it. Entries matched by repoRoot's
// own .gitignore (if present) are skipped, mirroring the teacher's
// gitignore-aware walker but applied only at this discovery step.
func Discover(repoRoot string) (map[string]string, error) {
	info, err := os.Stat(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("rootdiscovery: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rootdiscovery: %s is not a directory", repoRoot)
	}

	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(repoRoot, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, fmt.Errorf("rootdiscovery: parse %s: %w", gitignorePath, err)
		}
	}

	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("rootdiscovery: read %s: %w", repoRoot, err)
	}

	roots := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || skipDirs[name] || len(name) == 0 || name[0] == '.' {
			continue
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(name) {
			continue
		}
		candidate := filepath.Join(repoRoot, name)
		ok, err := looksLikePackageRoot(candidate, gitIgnore, repoRoot)
		if err != nil {
			return nil, err
		}
		if ok {
			roots[name] = repoRoot
		}
	}
	return roots, nil
}

// looksLikePackageRoot reports whether dir directly contains __init__.py or
// has any .py file in its tree, stopping at the first hit.
func looksLikePackageRoot(dir string, gitIgnore *ignore.GitIgnore, repoRoot string) (bool, error) {
	if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err == nil {
		return true, nil
	}

	found := false
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}
		if found {
			return filepath.SkipDir
		}
		if info.IsDir() {
			if skipDirs[info.Name()] || (info.Name() != filepath.Base(dir) && info.Name()[0] == '.') {
				return filepath.SkipDir
			}
			if gitIgnore != nil {
				if rel, relErr := filepath.Rel(repoRoot, path); relErr == nil && gitIgnore.MatchesPath(rel) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if filepath.Ext(path) == ".py" {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rootdiscovery: walk %s: %w", dir, err)
	}
	return found, nil
}
