package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
)

// Prompt limits
const (
	MaxContentChars = 3000 // file content sent for classification
	MaxInsightFiles = 50   // files listed for project insights
)

const (
	fileSystemPrompt    = "You are a code analysis expert. Analyze code files and provide structured insights. Always respond with valid JSON only."
	projectSystemPrompt = "You are a software architecture expert. Analyze projects and provide actionable insights."
	errorSystemPrompt   = "You are a debugging expert. Analyze error traces and identify relevant files."
)

// Analyzer asks a model to classify files, review projects and explain errors
type Analyzer struct {
	completer Completer
}

// NewAnalyzer creates an Analyzer over c
func NewAnalyzer(c Completer) *Analyzer {
	return &Analyzer{completer: c}
}

// Classify implements classify.Classifier
func (a *Analyzer) Classify(ctx context.Context, path, content string) (classify.Classification, error) {
	if len(content) > MaxContentChars {
		content = content[:MaxContentChars]
	}

	prompt := fmt.Sprintf(`Analyze this code file and provide a JSON response with the following structure:
{
  "language": "The programming language (e.g., JavaScript, Python, TypeScript)",
  "role": "Pick ONE from: %s",
  "summary": "A concise one-sentence summary (max 15 words) of what this file does",
  "keyFunctions": "Brief list of 2-3 main functions/exports (if applicable)",
  "complexity": "Rate as: Simple, Moderate, or Complex",
  "insights": "One brief insight about code quality, patterns, or potential improvements (optional, 1 sentence)"
}

File: %s

Code:
`+"```"+`
%s
`+"```"+`

Return ONLY valid JSON, no other text.`, strings.Join(classify.AllRoles, ", "), path, content)

	response, err := a.completer.Complete(ctx, Request{
		System:      fileSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   300,
		JSON:        true,
	})
	if err != nil {
		return classify.Classification{}, fmt.Errorf("classify %s: %w", path, err)
	}

	var parsed struct {
		Language     text `json:"language"`
		Role         text `json:"role"`
		Summary      text `json:"summary"`
		KeyFunctions text `json:"keyFunctions"`
		Complexity   text `json:"complexity"`
		Insights     text `json:"insights"`
	}
	if err := decodeJSON(response, &parsed); err != nil {
		return classify.Classification{}, fmt.Errorf("classify %s: %w", path, err)
	}

	c := classify.Classification{
		Language:     orDefault(string(parsed.Language), classify.UnknownLanguage),
		Role:         normalizeRole(string(parsed.Role)),
		Summary:      orDefault(string(parsed.Summary), "Code file"),
		KeyFunctions: strings.TrimSpace(string(parsed.KeyFunctions)),
		Complexity:   orDefault(string(parsed.Complexity), "Unknown"),
		Insights:     strings.TrimSpace(string(parsed.Insights)),
	}
	return c, nil
}

// normalizeRole maps a model answer onto a known role, case-insensitively
func normalizeRole(role string) string {
	role = strings.TrimSpace(role)
	for _, r := range classify.AllRoles {
		if strings.EqualFold(role, r) {
			return r
		}
	}
	return classify.RoleOther
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

type insightFile struct {
	Path     string `json:"path"`
	Role     string `json:"role"`
	Language string `json:"language"`
}

// ProjectInsights implements analyzer.InsightsProvider
func (a *Analyzer) ProjectInsights(ctx context.Context, summary graph.ProjectSummary, nodes []graph.Node) (*graph.ProjectInsights, error) {
	if len(nodes) > MaxInsightFiles {
		nodes = nodes[:MaxInsightFiles]
	}
	files := make([]insightFile, 0, len(nodes))
	for _, n := range nodes {
		files = append(files, insightFile{Path: n.Path, Role: n.Role, Language: n.Language})
	}
	sample, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode file list: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze this software project and provide insights.

Project: %s
File Count: %d
Languages: %s

Sample Files:
%s

Provide a JSON response:
{
  "architecture": "Brief description of the project's architecture (1 sentence)",
  "strengths": "2-3 key strengths of the codebase",
  "suggestions": "2-3 suggestions for improvement",
  "techStack": "Identified technologies and frameworks"
}`, summary.ProjectName, summary.FileCount, strings.Join(summary.Languages, ", "), sample)

	response, err := a.completer.Complete(ctx, Request{
		System:      projectSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.5,
		MaxTokens:   400,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("project insights: %w", err)
	}

	var parsed struct {
		Architecture text `json:"architecture"`
		Strengths    text `json:"strengths"`
		Suggestions  text `json:"suggestions"`
		TechStack    text `json:"techStack"`
	}
	if err := decodeJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("project insights: %w", err)
	}

	return &graph.ProjectInsights{
		Architecture: string(parsed.Architecture),
		Strengths:    string(parsed.Strengths),
		Suggestions:  string(parsed.Suggestions),
		TechStack:    string(parsed.TechStack),
	}, nil
}

// ErrorExplanation is the model's reading of an error trace
type ErrorExplanation struct {
	ErrorType   string   `json:"errorType"`
	LikelyFiles []string `json:"likelyFiles"`
	Explanation string   `json:"explanation"`
	Suggestions string   `json:"suggestions"`
}

// ExplainError asks which of paths are likely involved in trace
func (a *Analyzer) ExplainError(ctx context.Context, trace string, paths []string) (*ErrorExplanation, error) {
	if strings.TrimSpace(trace) == "" {
		return nil, fmt.Errorf("error trace is empty")
	}

	prompt := fmt.Sprintf(`Analyze this error stack trace and identify which files are likely involved.

Error:
`+"```"+`
%s
`+"```"+`

Available files in project:
%s

Provide JSON response:
{
  "errorType": "Type of error (e.g., Runtime Error, Type Error)",
  "likelyFiles": ["array", "of", "file", "paths"],
  "explanation": "Brief explanation of what might be causing this error",
  "suggestions": "Suggested fix or where to look"
}`, trace, strings.Join(paths, "\n"))

	response, err := a.completer.Complete(ctx, Request{
		System:      errorSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   400,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("explain error: %w", err)
	}

	var parsed struct {
		ErrorType   text     `json:"errorType"`
		LikelyFiles textList `json:"likelyFiles"`
		Explanation text     `json:"explanation"`
		Suggestions text     `json:"suggestions"`
	}
	if err := decodeJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("explain error: %w", err)
	}

	likely := []string(parsed.LikelyFiles)
	if likely == nil {
		likely = []string{}
	}
	return &ErrorExplanation{
		ErrorType:   string(parsed.ErrorType),
		LikelyFiles: likely,
		Explanation: string(parsed.Explanation),
		Suggestions: string(parsed.Suggestions),
	}, nil
}
