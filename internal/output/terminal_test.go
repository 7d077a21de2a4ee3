package output

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func withNoColor(t *testing.T) {
	t.Helper()
	old := os.Getenv("NO_COLOR")
	os.Setenv("NO_COLOR", "1")
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv("NO_COLOR")
		} else {
			os.Setenv("NO_COLOR", old)
		}
	})
}

func TestRenderTextDependsOn(t *testing.T) {
	withNoColor(t)
	qr := NewQueryResult("depends-on", []string{"pkg.a"}, map[string]struct{}{
		"pkg.b": {}, "pkg.c": {},
	}, nil)

	var buf bytes.Buffer
	RenderText(&buf, qr)
	out := buf.String()

	if !strings.Contains(out, "Depends On: pkg.a") {
		t.Errorf("expected header, got %q", out)
	}
	if !strings.Contains(out, "pkg.b") || !strings.Contains(out, "pkg.c") {
		t.Errorf("expected both results listed, got %q", out)
	}
}

func TestRenderTextShowsUnknownInputs(t *testing.T) {
	withNoColor(t)
	qr := NewQueryResult("affected-by", []string{"pkg.a"}, map[string]struct{}{}, []string{"pkg.ghost"})

	var buf bytes.Buffer
	RenderText(&buf, qr)
	out := buf.String()

	if !strings.Contains(out, "unresolved inputs (1)") {
		t.Errorf("expected unresolved section, got %q", out)
	}
	if !strings.Contains(out, "pkg.ghost") {
		t.Errorf("expected pkg.ghost listed, got %q", out)
	}
}

func TestRenderTextPackageGrouped(t *testing.T) {
	withNoColor(t)
	qr := NewPackageGroupedResult("affected-by", []string{"pkg.a"}, map[string]map[string]struct{}{
		"/root/myapp": {"myapp.tests.test_a": {}},
	}, nil)

	var buf bytes.Buffer
	RenderText(&buf, qr)
	out := buf.String()

	if !strings.Contains(out, "/root/myapp:") {
		t.Errorf("expected package grouping header, got %q", out)
	}
	if !strings.Contains(out, "myapp.tests.test_a") {
		t.Errorf("expected grouped result, got %q", out)
	}
}

func TestRenderStats(t *testing.T) {
	withNoColor(t)
	stats := GraphStats{
		ModuleCount:     42,
		ComponentCount:  40,
		CycleCount:      1,
		UnresolvedCount: 3,
		GraphFileBytes:  2048,
		TopFanOut:       []FanOutEntry{{Module: "pkg.core", Count: 12}},
	}

	var buf bytes.Buffer
	RenderStats(&buf, stats)
	out := buf.String()

	for _, want := range []string{"modules:", "42", "cycles:", "1", "unresolved:", "3", "pkg.core"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"depends-on":  "Depends On",
		"affected-by": "Affected By",
		"":            "",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
