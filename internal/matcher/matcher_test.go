package matcher

import (
	"sort"
	"testing"
)

func TestFromValues(t *testing.T) {
	m := FromValues([]string{
		"foo",
		"bar/v1",
		"bar/v2",
		"qux/a",
		"qux/a/sub",
		"qux/b",
		"qux/b/sub",
		"qux/c",
		"qux/c/sub",
	}, '/')

	suffixes := func(value string) []string {
		r := AllSuffixesOf(m, value, '.', nil)
		sort.Strings(r)
		return r
	}

	if got := suffixes("foo"); len(got) != 0 {
		t.Errorf("suffixes(foo) = %v, want empty", got)
	}
	if got, want := suffixes("bar"), []string{"bar.v1", "bar.v2"}; !equal(got, want) {
		t.Errorf("suffixes(bar) = %v, want %v", got, want)
	}
	if got := suffixes("baz"); len(got) != 0 {
		t.Errorf("suffixes(baz) = %v, want empty", got)
	}
	if got, want := suffixes("qux"), []string{
		"qux.a", "qux.a.sub", "qux.b", "qux.b.sub", "qux.c", "qux.c.sub",
	}; !equal(got, want) {
		t.Errorf("suffixes(qux) = %v, want %v", got, want)
	}
	if got, want := suffixes("qux.a"), []string{"qux.a.sub"}; !equal(got, want) {
		t.Errorf("suffixes(qux.a) = %v, want %v", got, want)
	}

	matchCases := []struct {
		value string
		sep   byte
		want  bool
	}{
		{"", '/', false},
		{"f", '/', false},
		{"fo", '/', false},
		{"foo", '/', true},
		{"fool", '/', false},
		{"foo.l", '/', false},
		{"foo.l", '.', true},
		{"foo/l", '/', true},
		{"foo/l", '.', false},
		{"bar", '/', false},
		{"bar/v1", '/', true},
		{"bar.v1", '.', true},
		{"bar/v1/sub", '/', true},
		{"bar.v1.sub", '.', true},
		{"bar/v2", '/', true},
		{"bar.v2", '.', true},
		{"bar.v3", '.', false},
		{"qux", '/', false},
		{"qux/a", '/', true},
		{"qux/b", '/', true},
		{"qux/c", '/', true},
		{"qux.a", '.', true},
		{"qux.b", '.', true},
		{"qux.c", '.', true},
		{"qux/d", '/', false},
		{"qux.d", '.', false},
		{"qux/a/sub", '/', true},
		{"qux/b/sub", '/', true},
		{"qux/c/sub", '/', true},
		{"qux/a/sub/1", '/', true},
		{"qux/b/sub/1/2", '/', true},
		{"qux/c/sub/1/2/3", '/', true},
	}
	for _, c := range matchCases {
		if got := m.Matches(c.value, c.sep); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.value, c.sep, got, c.want)
		}
	}

	prefixCases := []struct {
		value string
		sep   byte
		want  bool
	}{
		{"foo", '.', false},
		{"bar", '.', true},
		{"bar/.v1", '.', false},
		{"qux", '.', true},
		{"qux.a", '.', false},
		{"qux.a.sub", '.', false},
	}
	for _, c := range prefixCases {
		if got := m.StrictPrefix(c.value, c.sep); got != c.want {
			t.Errorf("StrictPrefix(%q, %q) = %v, want %v", c.value, c.sep, got, c.want)
		}
	}

	longestCases := []struct {
		value string
		sep   byte
		want  string
	}{
		{"", '/', ""},
		{"f", '/', ""},
		{"fo", '/', ""},
		{"foo", '/', "foo"},
		{"fool", '/', ""},
		{"foo.l", '/', ""},
		{"foo.l", '.', "foo"},
		{"foo/l", '/', "foo"},
		{"foo/l", '.', ""},
		{"bar", '/', ""},
		{"bar/v1", '/', "bar/v1"},
		{"bar.v1", '.', "bar.v1"},
		{"bar/v1/sub", '/', "bar/v1"},
		{"bar.v1.sub", '.', "bar.v1"},
		{"bar/v2", '/', "bar/v2"},
		{"bar.v2", '.', "bar.v2"},
		{"qux", '/', ""},
		{"qux/a", '/', "qux/a"},
		{"qux/b", '/', "qux/b"},
		{"qux/c", '/', "qux/c"},
		{"qux.a", '.', "qux.a"},
		{"qux.b", '.', "qux.b"},
		{"qux.c", '.', "qux.c"},
		{"qux/d", '/', ""},
		{"qux.d", '.', ""},
		{"qux/a/sub", '/', "qux/a/sub"},
		{"qux/b/sub", '/', "qux/b/sub"},
		{"qux/c/sub", '/', "qux/c/sub"},
		{"qux/a/sub/1", '/', "qux/a/sub"},
		{"qux/b/sub/1/2", '/', "qux/b/sub"},
		{"qux/c/sub/1/2/3", '/', "qux/c/sub"},
	}
	for _, c := range longestCases {
		if got := m.LongestPrefix(c.value, c.sep); got != c.want {
			t.Errorf("LongestPrefix(%q, %q) = %q, want %q", c.value, c.sep, got, c.want)
		}
	}
}

func TestAdd(t *testing.T) {
	m := New()
	m.Add("foo.bar.baz", '.')
	m.Add("foo/baz/bar", '/')
	m.Add("foo", '/')
	m.Add("bar/baz", '/')
	m.Add("foo/baz", '/')

	if len(m.children) != 2 {
		t.Errorf("len(children) = %d, want 2", len(m.children))
	}

	assertMatch := func(value string, sep byte, want bool) {
		t.Helper()
		if got := m.Matches(value, sep); got != want {
			t.Errorf("Matches(%q, %q) = %v, want %v", value, sep, got, want)
		}
	}
	assertMatch("foo", '/', true)
	assertMatch("foo.baz", '.', true)
	assertMatch("foo/bar", '/', true)
	assertMatch("foo/bar/baz", '/', true)
	assertMatch("foo/baz/bar", '/', true)
	assertMatch("bar.baz", '.', true)
	assertMatch("fool", '.', false)
	assertMatch("fool.ed", '.', false)
	assertMatch("baz", '.', false)
	assertMatch("baz.bar", '.', false)

	assertStrict := func(value string, sep byte, want bool) {
		t.Helper()
		if got := m.StrictPrefix(value, sep); got != want {
			t.Errorf("StrictPrefix(%q, %q) = %v, want %v", value, sep, got, want)
		}
	}
	assertStrict("foo", '/', false)
	assertStrict("foo.baz", '.', false)
	assertStrict("foo/bar", '/', true)
	assertStrict("foo/bar/baz", '/', false)
	assertStrict("foo/baz/bar", '/', false)
	assertStrict("bar", '.', true)
	assertStrict("bar.baz", '.', false)
	assertStrict("fool", '.', false)
	assertStrict("fool.ed", '.', false)
	assertStrict("baz", '.', false)
	assertStrict("baz.bar", '.', false)

	assertLongest := func(value string, sep byte, want string) {
		t.Helper()
		if got := m.LongestPrefix(value, sep); got != want {
			t.Errorf("LongestPrefix(%q, %q) = %q, want %q", value, sep, got, want)
		}
	}
	assertLongest("foo", '/', "foo")
	assertLongest("foo.baz", '.', "foo.baz")
	assertLongest("foo/bar", '/', "foo")
	assertLongest("foo/bar/baz", '/', "foo/bar/baz")
	assertLongest("foo/baz/bar", '/', "foo/baz/bar")
	assertLongest("bar.baz", '.', "bar.baz")
	assertLongest("fool", '.', "")
	assertLongest("fool.ed", '.', "")
	assertLongest("baz.bar", '.', "")
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
