package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     classify.Classification
	}{
		{
			name:     "plain JSON",
			response: `{"language":"JavaScript","role":"UI Component","summary":"Renders a button","complexity":"Simple"}`,
			want: classify.Classification{
				Language:   "JavaScript",
				Role:       classify.RoleUIComponent,
				Summary:    "Renders a button",
				Complexity: "Simple",
			},
		},
		{
			name:     "fenced JSON",
			response: "```json\n{\"language\":\"Python\",\"role\":\"utility\",\"summary\":\"Helpers\"}\n```",
			want: classify.Classification{
				Language:   "Python",
				Role:       classify.RoleUtility,
				Summary:    "Helpers",
				Complexity: "Unknown",
			},
		},
		{
			name:     "prose around object",
			response: "Sure! Here it is: {\"language\":\"Go\",\"role\":\"Routing\",\"summary\":\"Routes\"} Hope that helps.",
			want: classify.Classification{
				Language:   "Go",
				Role:       classify.RoleRouting,
				Summary:    "Routes",
				Complexity: "Unknown",
			},
		},
		{
			name:     "unknown role clamps to Other and defaults fill in",
			response: `{"role":"Database Layer"}`,
			want: classify.Classification{
				Language:   classify.UnknownLanguage,
				Role:       classify.RoleOther,
				Summary:    "Code file",
				Complexity: "Unknown",
			},
		},
		{
			name:     "list fields are joined",
			response: `{"language":"TypeScript","role":"API Service","summary":"Calls users API","keyFunctions":["getUser","listUsers"],"insights":null}`,
			want: classify.Classification{
				Language:     "TypeScript",
				Role:         classify.RoleAPIService,
				Summary:      "Calls users API",
				KeyFunctions: "getUser; listUsers",
				Complexity:   "Unknown",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(NewMockCompleter(tt.response))
			got, err := a.Classify(context.Background(), "src/App.jsx", "export default App")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyRequest(t *testing.T) {
	mock := NewMockCompleter(`{"language":"JavaScript","role":"Other","summary":"x"}`)
	a := NewAnalyzer(mock)

	content := strings.Repeat("a", MaxContentChars+500)
	_, err := a.Classify(context.Background(), "big.js", content)
	require.NoError(t, err)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, fileSystemPrompt, req.System)
	assert.Equal(t, float32(0.3), req.Temperature)
	assert.Equal(t, 300, req.MaxTokens)
	assert.True(t, req.JSON)
	assert.Contains(t, req.Prompt, "File: big.js")
	assert.Contains(t, req.Prompt, strings.Repeat("a", MaxContentChars))
	assert.NotContains(t, req.Prompt, strings.Repeat("a", MaxContentChars+1))
	assert.Contains(t, req.Prompt, "UI Component, Styling")
}

func TestClassifyErrors(t *testing.T) {
	t.Run("completer error", func(t *testing.T) {
		mock := &MockCompleter{}
		mock.SetError(ErrMockServerDown)
		_, err := NewAnalyzer(mock).Classify(context.Background(), "a.js", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMockServerDown))
	})

	t.Run("malformed response", func(t *testing.T) {
		_, err := NewAnalyzer(NewMockCompleter("not json at all")).Classify(context.Background(), "a.js", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse model response")
	})

	t.Run("no response configured", func(t *testing.T) {
		_, err := NewAnalyzer(&MockCompleter{}).Classify(context.Background(), "a.js", "")
		assert.ErrorIs(t, err, ErrMockNoResponse)
	})
}

func TestProjectInsights(t *testing.T) {
	mock := NewMockCompleter(`{
		"architecture": "Single page React app",
		"strengths": ["Small components", "Clear API layer"],
		"suggestions": "Add tests",
		"techStack": "React, Axios"
	}`)
	a := NewAnalyzer(mock)

	nodes := make([]graph.Node, 0, MaxInsightFiles+10)
	for i := 0; i < MaxInsightFiles+10; i++ {
		nodes = append(nodes, graph.Node{Path: "src/file" + strings.Repeat("x", i) + ".js", Role: classify.RoleOther, Language: "JavaScript"})
	}
	summary := graph.ProjectSummary{ProjectName: "demo", FileCount: len(nodes), Languages: []string{"JavaScript"}}

	insights, err := a.ProjectInsights(context.Background(), summary, nodes)
	require.NoError(t, err)
	assert.Equal(t, "Single page React app", insights.Architecture)
	assert.Equal(t, "Small components; Clear API layer", insights.Strengths)
	assert.Equal(t, "Add tests", insights.Suggestions)
	assert.Equal(t, "React, Axios", insights.TechStack)

	req := mock.Calls[0]
	assert.Equal(t, projectSystemPrompt, req.System)
	assert.Equal(t, float32(0.5), req.Temperature)
	assert.Equal(t, 400, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Project: demo")
	assert.Contains(t, req.Prompt, "Languages: JavaScript")
	assert.Equal(t, MaxInsightFiles, strings.Count(req.Prompt, `"path":`))
}

func TestExplainError(t *testing.T) {
	mock := NewMockCompleter("```json\n" + `{"errorType":"Type Error","likelyFiles":["src/App.jsx"],"explanation":"user is undefined","suggestions":"Guard the prop"}` + "\n```")
	a := NewAnalyzer(mock)

	got, err := a.ExplainError(context.Background(), "TypeError: cannot read 'name' of undefined", []string{"src/App.jsx", "src/api.js"})
	require.NoError(t, err)
	assert.Equal(t, &ErrorExplanation{
		ErrorType:   "Type Error",
		LikelyFiles: []string{"src/App.jsx"},
		Explanation: "user is undefined",
		Suggestions: "Guard the prop",
	}, got)

	req := mock.Calls[0]
	assert.Equal(t, errorSystemPrompt, req.System)
	assert.Contains(t, req.Prompt, "src/App.jsx\nsrc/api.js")
	assert.Equal(t, 400, req.MaxTokens)
}

func TestExplainErrorEdgeCases(t *testing.T) {
	t.Run("empty trace", func(t *testing.T) {
		mock := NewMockCompleter("{}")
		_, err := NewAnalyzer(mock).ExplainError(context.Background(), "   ", nil)
		require.Error(t, err)
		assert.Equal(t, 0, mock.CallCount())
	})

	t.Run("missing likely files becomes empty list", func(t *testing.T) {
		got, err := NewAnalyzer(NewMockCompleter(`{"errorType":"Runtime Error"}`)).ExplainError(context.Background(), "boom", nil)
		require.NoError(t, err)
		assert.NotNil(t, got.LikelyFiles)
		assert.Empty(t, got.LikelyFiles)
	})

	t.Run("likely files as comma string", func(t *testing.T) {
		got, err := NewAnalyzer(NewMockCompleter(`{"likelyFiles":"a.js, b.js"}`)).ExplainError(context.Background(), "boom", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.js", "b.js"}, got.LikelyFiles)
	})
}

func TestStripMarkdownCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
		{"```", "```"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkdownCodeFence(tt.in), "input %q", tt.in)
	}
}
