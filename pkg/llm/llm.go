// Package llm wires hosted and local language models into the analysis
// pipeline: per-file classification, project insights and error traces.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when no model provider is configured
var ErrUnavailable = errors.New("AI analysis not available")

// Provider names accepted in configuration
const (
	ProviderHeuristic = "heuristic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Request is one chat-style completion request
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	JSON        bool // ask the provider for a JSON object response
}

// Completer produces a completion for a request
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StripMarkdownCodeFence removes markdown code fences from responses
// Handles: ```json\n...\n``` or ```\n...\n```
func StripMarkdownCodeFence(s string) string {
	s = strings.TrimSpace(s)

	// Check for opening fence
	if strings.HasPrefix(s, "```") {
		// Find the end of the opening fence line
		firstNewline := strings.Index(s, "\n")
		if firstNewline == -1 {
			return s // Malformed, return as-is
		}

		// Remove opening fence
		s = s[firstNewline+1:]

		// Check for closing fence
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "```")

		s = strings.TrimSpace(s)
	}

	return s
}

// decodeJSON strips fences and decodes the first JSON object in response
func decodeJSON(response string, v any) error {
	body := StripMarkdownCodeFence(response)

	// Some models add prose around the object
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return fmt.Errorf("parse model response: %w (content: %s)", err, preview)
	}
	return nil
}

// text is a JSON string that also accepts arrays, numbers and null
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}

	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		*t = text(strings.Join(parts, "; "))
		return nil
	}

	if string(data) == "null" {
		*t = ""
		return nil
	}
	*t = text(strings.TrimSpace(string(data)))
	return nil
}

// textList is a JSON string array that also accepts a single string
type textList []string

func (l *textList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}
