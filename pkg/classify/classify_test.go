package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/App.jsx", "JavaScript"},
		{"index.js", "JavaScript"},
		{"src/main.TS", "TypeScript"},
		{"view.tsx", "TypeScript"},
		{"tool.py", "Python"},
		{"Main.java", "Java"},
		{"engine.cpp", "C++"},
		{"lib.c", "C"},
		{"Program.cs", "C#"},
		{"main.go", "Go"},
		{"lib.rs", "Rust"},
		{"app.rb", "Ruby"},
		{"index.php", "PHP"},
		{"View.swift", "Swift"},
		{"Main.kt", "Kotlin"},
		{"styles.css", "CSS"},
		{"theme.scss", "SCSS"},
		{"theme.sass", "Sass"},
		{"index.html", "HTML"},
		{"package.json", "JSON"},
		{"pom.xml", "XML"},
		{"ci.yml", "YAML"},
		{"compose.yaml", "YAML"},
		{"README.md", "Markdown"},
		{"notes.txt", "Text"},
		{"build.sh", "Shell"},
		{"schema.sql", "SQL"},
		{"styles.less", "Unknown"},
		{"Makefile", "Unknown"},
		{".gitattributes", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Language(tt.path))
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    string
	}{
		{"config precedes testing", "config.test.json", "{}", RoleConfiguration},
		{"config by name", "src/webpack.config.js", "module.exports = {}", RoleConfiguration},
		{"yaml", ".github/workflows/ci.yml", "on: push", RoleConfiguration},
		{"dotenv", ".env", "KEY=1", RoleConfiguration},
		{"toml", "netlify.toml", "", RoleConfiguration},
		{"markdown", "docs/guide.md", "# Guide", RoleDocumentation},
		{"readme without extension", "README", "hello", RoleDocumentation},
		{"readme with other extension", "readme.rst", "hello", RoleOther},
		{"config extension in name", "web.config", "<configuration/>", RoleConfiguration},
		{"config suffix in subdir", "src/app.config", "", RoleConfiguration},
		{"test extension in name", "foo.test", "", RoleTesting},
		{"test by name", "src/App.test.jsx", "export default function T() {}", RoleTesting},
		{"spec by name", "src/api.spec.ts", "fetch(", RoleTesting},
		{"test directory", "test/setup.js", "", RoleTesting},
		{"tests dunder directory", "src/__tests__/thing.js", "", RoleTesting},
		{"stylesheet", "src/App.css", "body {}", RoleStyling},
		{"less", "theme.less", "@x: 1;", RoleStyling},
		{"ui component", "src/components/Button.jsx", "export default function Button() {}", RoleUIComponent},
		{"tsx export const", "src/Card.tsx", "export const Card = () => null", RoleUIComponent},
		{"jsx without export", "src/Inline.jsx", "const x = <div/>", RoleOther},
		{"api by content", "src/client.js", "return fetch(url)", RoleAPIService},
		{"api by axios", "src/client.js", "import axios from 'axios'", RoleAPIService},
		{"api by path", "src/api/users.js", "export {}", RoleAPIService},
		{"service path", "src/services/auth.js", "export {}", RoleAPIService},
		{"state by content", "src/cart.js", "function reducer(state, action) {}", RoleStateManagement},
		{"state by path", "src/store/index.js", "export {}", RoleStateManagement},
		{"routing by content", "src/nav.js", "<Router>", RoleRouting},
		{"routing by path", "src/routes/index.js", "export {}", RoleRouting},
		{"utility by directory", "src/utils/format.js", "export const f = 1", RoleUtility},
		{"utility by name", "helper.js", "export const f = 1", RoleUtility},
		{"other", "src/main.go", "package main", RoleOther},
		{"component beats api", "src/api/Widget.jsx", "export default () => fetch('/x')", RoleUIComponent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Role(tt.path, tt.content, true))
		})
	}
}

func TestRoleWithoutContentSkipsContentRules(t *testing.T) {
	assert.Equal(t, RoleOther, Role("src/utils/format.js", "", false))
	assert.Equal(t, RoleUtility, Role("src/utils/format.js", "", true))
	assert.Equal(t, RoleConfiguration, Role("app.config.js", "", false))
}

func TestRulesFirstMatchWins(t *testing.T) {
	rs := Rules()
	require.Len(t, rs, 9)

	in := NewInput("src/api/config.test.json", "fetch(", true)
	var matched []string
	for _, r := range rs {
		if r.Match(in) {
			matched = append(matched, r.Role)
		}
	}
	assert.Equal(t, []string{RoleConfiguration, RoleTesting, RoleAPIService}, matched)
	assert.Equal(t, RoleConfiguration, roleFor(rs, in))

	rs[0].Role = "Mutated"
	assert.Equal(t, RoleConfiguration, Rules()[0].Role)
}

func TestSummary(t *testing.T) {
	tests := []struct {
		role string
		path string
		lang string
		want string
	}{
		{RoleUIComponent, "src/Button.jsx", "JavaScript", "Button component handles UI rendering and user interactions"},
		{RoleStyling, "App.css", "CSS", "Defines visual styles and layout for App"},
		{RoleAPIService, "api/users.js", "JavaScript", "Manages API calls and data fetching for users"},
		{RoleUtility, "utils/helper.js", "JavaScript", "Provides helper functions and utilities for helper"},
		{RoleStateManagement, "store/cart.ts", "TypeScript", "Manages application state for cart"},
		{RoleRouting, "routes.js", "JavaScript", "Handles routing and navigation for routes"},
		{RoleConfiguration, "config.test.json", "JSON", "Configuration settings for config.test"},
		{RoleTesting, "a.test.js", "JavaScript", "Test suite for a.test functionality"},
		{RoleDocumentation, "README.md", "Markdown", "Documentation for README"},
		{RoleOther, "main.go", "Go", "Go file: main"},
		{"Made Up", "x.rb", "Ruby", "Ruby file: x"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.role, tt.path, tt.lang))
		})
	}
}

func TestHeuristicClassify(t *testing.T) {
	c, err := Heuristic{}.Classify(context.Background(), "utils/helper.js", "")
	require.NoError(t, err)
	assert.Equal(t, Classification{
		Language: "JavaScript",
		Role:     RoleUtility,
		Summary:  "Provides helper functions and utilities for helper",
	}, c)
}

type stubClassifier struct {
	result Classification
	err    error
	calls  int
}

func (s *stubClassifier) Classify(context.Context, string, string) (Classification, error) {
	s.calls++
	return s.result, s.err
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary success", func(t *testing.T) {
		primary := &stubClassifier{result: Classification{Language: "JavaScript", Role: RoleRouting, Summary: "model"}}
		c, err := Fallback{Primary: primary}.Classify(ctx, "a.js", "x")
		require.NoError(t, err)
		assert.Equal(t, "model", c.Summary)
	})

	t.Run("primary error uses heuristic", func(t *testing.T) {
		primary := &stubClassifier{err: errors.New("rate limited")}
		c, err := Fallback{Primary: primary}.Classify(ctx, "utils/helper.js", "x")
		require.NoError(t, err)
		assert.Equal(t, RoleUtility, c.Role)
		assert.Equal(t, 1, primary.calls)
	})

	t.Run("unknown role uses secondary", func(t *testing.T) {
		primary := &stubClassifier{result: Classification{Role: "Controller"}}
		secondary := &stubClassifier{result: Classification{Role: RoleOther, Summary: "second"}}
		c, err := Fallback{Primary: primary, Secondary: secondary}.Classify(ctx, "a.js", "x")
		require.NoError(t, err)
		assert.Equal(t, "second", c.Summary)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("nil primary", func(t *testing.T) {
		c, err := Fallback{}.Classify(ctx, "README.md", "# hi")
		require.NoError(t, err)
		assert.Equal(t, RoleDocumentation, c.Role)
	})
}

func TestValidRole(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("Controller"))
	assert.False(t, ValidRole(""))
}
