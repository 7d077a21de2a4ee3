package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// resetQueryFlags restores the package-level query flag variables between
// subtests, since cobra binds them as shared package state.
func resetQueryFlags() {
	queryByFile = false
	queryPkgGroup = false
	queryJSON = false
	queryExplain = false
}

func TestBuildThenQueryDependsOn(t *testing.T) {
	resetQueryFlags()
	projectDir := t.TempDir()
	pkgRoot := filepath.Join(projectDir, "myapp")
	writeTestFile(t, filepath.Join(pkgRoot, "__init__.py"), "")
	writeTestFile(t, filepath.Join(pkgRoot, "a.py"), "import myapp.b\n")
	writeTestFile(t, filepath.Join(pkgRoot, "b.py"), "")

	graphPath := filepath.Join(t.TempDir(), "graph.bin")

	buildRoots = []string{"myapp:" + projectDir}
	buildOutputPath = graphPath
	buildJSONStats = false
	buildBadge = false
	buildChartPath = ""
	buildTextDumpPath = ""
	buildConfigPath = ""
	buildGlobalPrefixes = nil
	buildExternalPrefix = nil

	var buildOut bytes.Buffer
	buildCmd.SetOut(&buildOut)
	buildCmd.SetErr(&buildOut)
	buildCmd.SetContext(context.Background())
	if err := runBuild(buildCmd, []string{projectDir}); err != nil {
		t.Fatalf("runBuild: %v", err)
	}
	if _, err := os.Stat(graphPath); err != nil {
		t.Fatalf("expected graph file at %s: %v", graphPath, err)
	}

	queryGraphPath = graphPath
	queryByFile = true

	var queryOut bytes.Buffer
	dependsOnCmd.SetOut(&queryOut)
	dependsOnCmd.SetErr(&queryOut)
	dependsOnCmd.SetContext(context.Background())
	aPath := filepath.Join(projectDir, "myapp", "a.py")
	if err := dependsOnCmd.RunE(dependsOnCmd, []string{aPath}); err != nil {
		t.Fatalf("depends-on: %v", err)
	}
	if !strings.Contains(queryOut.String(), "myapp.b") {
		t.Errorf("expected depends-on output to mention myapp.b, got %q", queryOut.String())
	}
}

func TestQueryAffectedByJSON(t *testing.T) {
	resetQueryFlags()
	projectDir := t.TempDir()
	pkgRoot := filepath.Join(projectDir, "myapp")
	writeTestFile(t, filepath.Join(pkgRoot, "__init__.py"), "")
	writeTestFile(t, filepath.Join(pkgRoot, "a.py"), "import myapp.b\n")
	writeTestFile(t, filepath.Join(pkgRoot, "b.py"), "")

	graphPath := filepath.Join(t.TempDir(), "graph.bin")
	buildRoots = []string{"myapp:" + projectDir}
	buildOutputPath = graphPath
	buildJSONStats = false
	buildBadge = false
	buildChartPath = ""
	buildTextDumpPath = ""
	buildConfigPath = ""
	buildGlobalPrefixes = nil
	buildExternalPrefix = nil

	var buildOut bytes.Buffer
	buildCmd.SetOut(&buildOut)
	buildCmd.SetErr(&buildOut)
	buildCmd.SetContext(context.Background())
	if err := runBuild(buildCmd, []string{projectDir}); err != nil {
		t.Fatalf("runBuild: %v", err)
	}

	queryGraphPath = graphPath
	queryByFile = true
	queryJSON = true

	var queryOut bytes.Buffer
	affectedByCmd.SetOut(&queryOut)
	affectedByCmd.SetErr(&queryOut)
	affectedByCmd.SetContext(context.Background())
	bPath := filepath.Join(projectDir, "myapp", "b.py")
	aPath := filepath.Join(projectDir, "myapp", "a.py")
	if err := affectedByCmd.RunE(affectedByCmd, []string{bPath}); err != nil {
		t.Fatalf("affected-by: %v", err)
	}
	if !strings.Contains(queryOut.String(), `"kind"`) || !strings.Contains(queryOut.String(), `"affected-by"`) {
		t.Errorf("expected JSON output with kind affected-by, got %q", queryOut.String())
	}
	if !strings.Contains(queryOut.String(), aPath) {
		t.Errorf("expected affected-by(%s) to include %s, got %q", bPath, aPath, queryOut.String())
	}
}
