package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddRootPairRejectsMissingColon(t *testing.T) {
	roots := map[string]string{}
	if err := addRootPair(roots, "myapp"); err == nil {
		t.Error("expected error for a pair with no colon")
	}
}

func TestAddRootPairRejectsEmptySide(t *testing.T) {
	roots := map[string]string{}
	if err := addRootPair(roots, ":/src"); err == nil {
		t.Error("expected error for an empty prefix")
	}
	if err := addRootPair(roots, "myapp:"); err == nil {
		t.Error("expected error for an empty fspath")
	}
}

func TestParseRootFlagsDirect(t *testing.T) {
	roots, err := parseRootFlags([]string{"myapp:/src/myapp", "otherapp:/src/otherapp"})
	if err != nil {
		t.Fatalf("parseRootFlags: %v", err)
	}
	if roots["myapp"] != "/src/myapp" || roots["otherapp"] != "/src/otherapp" {
		t.Errorf("roots = %v", roots)
	}
}

func TestParseRootFlagsFile(t *testing.T) {
	dir := t.TempDir()
	rootsFile := filepath.Join(dir, "roots.txt")
	content := "# comment\nmyapp:/src/myapp\n\notherapp:/src/otherapp\n"
	if err := os.WriteFile(rootsFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	roots, err := parseRootFlags([]string{"@" + rootsFile})
	if err != nil {
		t.Fatalf("parseRootFlags: %v", err)
	}
	if roots["myapp"] != "/src/myapp" || roots["otherapp"] != "/src/otherapp" {
		t.Errorf("roots = %v", roots)
	}
}
