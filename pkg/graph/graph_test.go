package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
)

func node(p string, deps ...string) Node {
	return NewNode(p, "", classify.Classify(p, "x"), deps)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		from, specifier, want string
	}{
		{"a.js", "./b", "b"},
		{"src/app/main.js", "../lib/util", "src/lib/util"},
		{"src/app/main.js", "./../../index.js", "index.js"},
		{"src/a.js", "/config/app", "config/app"},
		{"a.js", "../outside", "../outside"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.from, tt.specifier), "%s + %s", tt.from, tt.specifier)
	}
}

func TestCandidateResolver(t *testing.T) {
	r := NewCandidateResolver([]string{
		"a.js",
		"b.js",
		"index.js",
		"lib/index.ts",
		"src/components/Button.jsx",
		"src/components/Button.css",
		"src/util.ts",
		"src/util/index.js",
		"docs/readme",
	})

	tests := []struct {
		name      string
		from      string
		specifier string
		want      string
		wantOK    bool
	}{
		{"extension appended", "a.js", "./b", "b.js", true},
		{"exact path", "a.js", "./b.js", "b.js", true},
		{"index file", "a.js", "./lib", "lib/index.ts", true},
		{"jsx component", "src/app.js", "./components/Button", "src/components/Button.jsx", true},
		{"file beats directory index", "src/app.js", "./util", "src/util.ts", true},
		{"explicit css", "src/app.js", "./components/Button.css", "src/components/Button.css", true},
		{"missing", "a.js", "./missing", "", false},
		{"no suffix guessing", "src/deep/x.js", "./Button", "", false},
		{"outside root", "a.js", "../b", "", false},
		{"absolute from root", "src/app.js", "/lib", "lib/index.ts", true},
		{"root directory index", "a.js", ".", "index.js", true},
		{"root directory index with slash", "b.js", "./", "index.js", true},
		{"own directory index", "lib/x.js", ".", "lib/index.ts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.from, tt.specifier)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidateResolverLoose(t *testing.T) {
	r := NewCandidateResolver([]string{"src/components/Button.jsx"})
	r.Loose = true

	_, ok := NewCandidateResolver([]string{"src/components/Button.jsx"}).Resolve("x.js", "./components/Button")
	assert.False(t, ok)

	got, ok := r.Resolve("x.js", "./components/Button")
	require.True(t, ok)
	assert.Equal(t, "src/components/Button.jsx", got)
}

func TestSuffixResolver(t *testing.T) {
	r := NewSuffixResolver([]string{
		"a.js",
		"b.js",
		"lib.js",
		"packages/ui/index.tsx",
		"src/components/Button.jsx",
	})

	tests := []struct {
		name      string
		from      string
		specifier string
		want      string
		wantOK    bool
	}{
		{"exact", "a.js", "./b.js", "b.js", true},
		{"stem match", "a.js", "./b", "b.js", true},
		{"segment boundary", "a.js", "./ib", "", false},
		{"known path ends with candidate", "x.js", "./components/Button", "src/components/Button.jsx", true},
		{"candidate ends with known path", "src/pages/a.js", "./b", "b.js", true},
		{"index directory", "a.js", "./packages/ui", "packages/ui/index.tsx", true},
		{"missing", "a.js", "./missing", "", false},
		{"outside root", "a.js", "../lib", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.from, tt.specifier)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuffixResolverTieBreakIsLexical(t *testing.T) {
	r := NewSuffixResolver([]string{"z/shared.js", "a/shared.js"})
	got, ok := r.Resolve("main.js", "./shared")
	require.True(t, ok)
	assert.Equal(t, "a/shared.js", got)
}

func TestBuildTwoFileScenario(t *testing.T) {
	nodes := []Node{node("a.js", "./b"), node("b.js")}

	for _, strategy := range []string{StrategyCandidates, StrategySuffix} {
		t.Run(strategy, func(t *testing.T) {
			links := Build(nodes, Options{Strategy: strategy})
			assert.Equal(t, []Link{{Source: "a.js", Target: "b.js"}}, links)
		})
	}
}

func TestBuildUnresolvedSpecifierKeptInDependencies(t *testing.T) {
	n := node("a.js", "./missing")
	links := Build([]Node{n}, Options{})

	assert.Equal(t, []string{"./missing"}, n.Dependencies)
	assert.Empty(t, links)
	assert.NotNil(t, links)
}

func TestBuildNoSelfLoops(t *testing.T) {
	nodes := []Node{
		node("a.js", "./a", "./a.js", "../x/../a"),
		node("lib/index.js", ".", "./index", "../lib"),
	}
	for _, strategy := range []string{StrategyCandidates, StrategySuffix} {
		links := Build(nodes, Options{Strategy: strategy})
		for _, l := range links {
			assert.NotEqual(t, l.Source, l.Target)
		}
	}
}

func TestBuildDuplicates(t *testing.T) {
	nodes := []Node{node("a.js", "./b", "./b.js"), node("b.js")}

	links := Build(nodes, Options{})
	assert.Len(t, links, 2)

	links = Build(nodes, Options{Dedupe: true})
	assert.Equal(t, []Link{{Source: "a.js", Target: "b.js"}}, links)
}

func TestBuildCustomResolver(t *testing.T) {
	nodes := []Node{node("a.js", "anything"), node("b.js")}
	links := Build(nodes, Options{Resolver: resolverFunc(func(from, specifier string) (string, bool) {
		return "b.js", true
	})})
	assert.Equal(t, []Link{{Source: "a.js", Target: "b.js"}}, links)
}

type resolverFunc func(from, specifier string) (string, bool)

func (f resolverFunc) Resolve(from, specifier string) (string, bool) { return f(from, specifier) }

func TestNewNode(t *testing.T) {
	n := NewNode("utils/helper.js", "export const h = 1", classify.Classify("utils/helper.js", "export const h = 1"), nil)

	assert.Equal(t, "utils/helper.js", n.ID)
	assert.Equal(t, "helper.js", n.Label)
	assert.Equal(t, "JavaScript", n.Language)
	assert.Equal(t, classify.RoleUtility, n.Role)
	assert.Equal(t, []string{}, n.Dependencies)
	assert.Equal(t, 1, n.Size)

	n = node("a.js", "./b", "./c")
	assert.Equal(t, len(n.Dependencies)+1, n.Size)
}

func TestNodeJSONShape(t *testing.T) {
	data, err := json.Marshal(node("a.js"))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"id", "label", "path", "language", "role", "summary", "dependencies", "size", "content"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "keyFunctions")
	assert.Equal(t, []any{}, m["dependencies"])
}

func TestSummarize(t *testing.T) {
	nodes := []Node{
		NewNode("README.md", "", classify.Classify("README.md", "#"), nil),
		NewNode("src/App.jsx", "", classify.Classify("src/App.jsx", "export default App"), nil),
		NewNode("src/index.js", "", classify.Classify("src/index.js", "render()"), nil),
	}

	s := Summarize("demo", nodes)
	assert.Equal(t, "demo", s.ProjectName)
	assert.Equal(t, 3, s.FileCount)
	assert.Equal(t, []string{"Markdown", "JavaScript"}, s.Languages)
	assert.Equal(t, []string{"Documentation", "UI Component", "Other"}, s.Roles)
	assert.Equal(t, "demo project with 3 files using Markdown, JavaScript", s.ProjectSummary)
	assert.Equal(t, "Multi-file project with Documentation, UI Component, Other components", s.Architecture)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("empty", nil)
	assert.Equal(t, 0, s.FileCount)
	assert.Equal(t, []string{}, s.Languages)
	assert.Equal(t, []string{}, s.Roles)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"languages":[]`)
	assert.NotContains(t, string(data), `"insights"`)
}
