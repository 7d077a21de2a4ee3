// Package pyimport extracts raw import targets from a single Python
// source file using tree-sitter, without resolving them against the
// filesystem (that's internal/pygraph's job).
package pyimport

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Parser wraps a single pooled tree-sitter Python parser. Tree-sitter
// parsers are not thread-safe, so every call is serialized behind a
// mutex; concurrent callers (the graph builder's worker pool) share one
// Parser and pay only the serialization cost of the parse step itself,
// not of the subsequent tree walk.
type Parser struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewParser creates a Python-configured tree-sitter parser.
func NewParser() (*Parser, error) {
	p := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("pyimport: set python language: %w", err)
	}
	return &Parser{parser: p}, nil
}

// Close releases the underlying parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Result is the raw extraction output for one file.
type Result struct {
	// Imports lists every raw import target string found, in the same
	// overgeneralized form the reference extractor uses: a plain
	// "import foo.bar" contributes "foo.bar"; "from foo import bar, baz"
	// contributes "foo", "foo.bar", and "foo.baz" (the parent entry lets
	// the graph builder record a dependency on the package itself even
	// when only a symbol import resolves).
	Imports         []string
	// IsNamespaceInit is true when the file is an __init__.py containing
	// the pkgutil namespace-package extend_path idiom starting at column 0
	// of some line.
	IsNamespaceInit bool
}

// ExtractOptions configures one extraction pass.
type ExtractOptions struct {
	// Module is the dotted import path of the file being parsed, used to
	// resolve relative ("from . import x") import levels.
	Module string
	// Deep walks into nested statement bodies (if/for/try/with/function
	// bodies) to find imports anywhere in the file, not just at module
	// top level, matching Python's actual (dynamic, any-statement)
	// import semantics.
	Deep bool
	// IncludeTypeChecking disables the default skip of import statements
	// nested under "if TYPE_CHECKING:" / "if typing.TYPE_CHECKING:".
	IncludeTypeChecking bool
}

// ExtractSource extracts raw imports from Python source content held
// entirely in memory, without touching the filesystem.
func (p *Parser) ExtractSource(content []byte, isInitFile bool, opts ExtractOptions) (Result, error) {
	p.mu.Lock()
	tree := p.parser.Parse(content, nil)
	p.mu.Unlock()
	if tree == nil {
		return Result{}, fmt.Errorf("pyimport: parse returned nil tree")
	}
	defer tree.Close()

	v := &visitor{
		content:             content,
		module:              opts.Module,
		deep:                opts.Deep,
		includeTypeChecking: opts.IncludeTypeChecking,
	}
	v.walkBody(tree.RootNode())

	return Result{
		Imports:         v.imports,
		IsNamespaceInit: isInitFile && looksLikePkgutilNamespaceInit(content),
	}, nil
}

var pkgutilNSInitRE = regexp.MustCompile(
	`(?m)^__path__ *= *__import__ *\((?:'pkgutil'|"pkgutil")\)\.extend_path *\( *__path__ *, *__name__ *\)`)

func looksLikePkgutilNamespaceInit(content []byte) bool {
	return pkgutilNSInitRE.Match(bytes_TrimLeadingBOM(content))
}

func bytes_TrimLeadingBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// SplitAtDepth walks back `depth` separator-delimited components from the
// end of s and splits there. Used to resolve "from . import x" style
// relative imports against the enclosing module's own dotted path.
func SplitAtDepth(s string, sep byte, depth int) (string, string) {
	idx := len(s)
	for depth > 0 {
		next := strings.LastIndexByte(s[:idx], sep)
		if next < 0 {
			panic(fmt.Sprintf("pyimport: SplitAtDepth(%q, %q, -) ran out of components", s, string(sep)))
		}
		idx = next
		depth--
	}
	return s[:idx], s[idx+1:]
}
