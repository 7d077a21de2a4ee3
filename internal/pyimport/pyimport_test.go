package pyimport

import (
	"testing"
)

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func TestExtractPlainImport(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte("import foo.bar\nimport baz as b\n")
	res, err := p.ExtractSource(src, false, ExtractOptions{Module: "pkg.mod"})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	for _, want := range []string{"foo.bar", "baz"} {
		if !contains(res.Imports, want) {
			t.Errorf("missing import %q in %v", want, res.Imports)
		}
	}
}

func TestExtractFromImport(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte("from foo import bar, baz\n")
	res, err := p.ExtractSource(src, false, ExtractOptions{Module: "pkg.mod"})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	for _, want := range []string{"foo", "foo.bar", "foo.baz"} {
		if !contains(res.Imports, want) {
			t.Errorf("missing import %q in %v", want, res.Imports)
		}
	}
}

func TestExtractRelativeImport(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte("from . import sibling\n")
	res, err := p.ExtractSource(src, false, ExtractOptions{Module: "pkg.sub.mod"})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	for _, want := range []string{"pkg.sub", "pkg.sub.sibling"} {
		if !contains(res.Imports, want) {
			t.Errorf("missing import %q in %v", want, res.Imports)
		}
	}
}

func TestExtractSkipsTypeCheckingByDefault(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte("if TYPE_CHECKING:\n    import heavy_only_for_hints\n")
	res, err := p.ExtractSource(src, true, ExtractOptions{Module: "pkg.mod", Deep: true})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if contains(res.Imports, "heavy_only_for_hints") {
		t.Errorf("expected TYPE_CHECKING import to be skipped, got %v", res.Imports)
	}
}

func TestExtractDynamicImportSentinel(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte("mod = __import__(name)\n")
	res, err := p.ExtractSource(src, false, ExtractOptions{Module: "pkg.mod", Deep: true})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if !contains(res.Imports, "__import__") {
		t.Errorf("expected __import__ sentinel, got %v", res.Imports)
	}
}

func TestExtractNamespaceInit(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	defer p.Close()

	src := []byte(`__path__ = __import__('pkgutil').extend_path(__path__, __name__)` + "\n")
	res, err := p.ExtractSource(src, true, ExtractOptions{Module: "pkg"})
	if err != nil {
		t.Fatalf("ExtractSource: %v", err)
	}
	if !res.IsNamespaceInit {
		t.Errorf("expected namespace-init detection for pkgutil extend_path idiom")
	}
}
