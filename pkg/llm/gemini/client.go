package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/haigpapa/Chromatoverse/pkg/llm"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gemini-2.5-flash"

// Config for the Gemini API client
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional endpoint override
	Timeout time.Duration
}

// Client wraps the genai GenerateContent API
type Client struct {
	cli   *genai.Client
	model string
}

// NewClient creates a Gemini client
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key not set", llm.ErrUnavailable)
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: config.BaseURL,
			Timeout: &timeout,
		},
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cli: cli, model: model}, nil
}

// Model returns the model in use
func (c *Client) Model() string {
	return c.model
}

// Complete implements llm.Completer
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		gc,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}

// Verify Client implements interface
var _ llm.Completer = (*Client)(nil)
