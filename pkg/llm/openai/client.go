package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/haigpapa/Chromatoverse/pkg/llm"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gpt-4o-mini"

// Config for OpenAI-compatible API client
type Config struct {
	BaseURL string        // API base URL (empty = api.openai.com; e.g. "https://openrouter.ai/api/v1")
	APIKey  string        // API key for authentication
	Model   string        // Chat model
	Timeout time.Duration // HTTP timeout
}

// Client wraps the OpenAI chat completions API
type Client struct {
	client *goopenai.Client
	model  string
}

// NewClient creates a new OpenAI API client
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: API key not set", llm.ErrUnavailable)
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	cfg := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Model returns the chat model in use
func (c *Client) Model() string {
	return c.model
}

// Complete implements llm.Completer
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := []goopenai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	chat := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		chat.MaxCompletionTokens = req.MaxTokens
	}
	if req.JSON {
		chat.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	slog.Debug("Received response from OpenAI", "model", c.model, "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Verify Client implements interface
var _ llm.Completer = (*Client)(nil)
