// Package ollama talks to a local Ollama server through its chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/llm"
)

const (
	// DefaultModel is used when Config.Model is empty
	DefaultModel   = "llama3.2"
	DefaultBaseURL = "http://localhost:11434"

	chatPath = "/api/chat"
)

// Config for Client. Zero fields take defaults.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	APIKey     string // sent as a bearer token for authenticating proxies
}

// Client is an llm.Completer backed by Ollama.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient fills in defaults and returns a client. It never dials.
func NewClient(cfg *Config) *Client {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return &Client{cfg: c, http: &http.Client{Timeout: c.Timeout}}
}

// Model returns the model in use
func (c *Client) Model() string {
	return c.cfg.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Complete implements llm.Completer
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	body := chatRequest{
		Model:   c.cfg.Model,
		Options: chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	// Ollama accepts "json" here, not a schema object.
	if req.JSON {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode ollama request: %w", err)
	}

	var resp chatResponse
	if err := c.post(ctx, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// httpError is a non-200 reply. Only 5xx is retried.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("ollama returned %d: %s", e.status, e.body)
}

func (e *httpError) retryable() bool { return e.status >= 500 }

// post sends payload to the chat endpoint, backing off linearly between
// attempts.
func (c *Client) post(ctx context.Context, payload []byte, out *chatResponse) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = c.postOnce(ctx, payload, out)
		if err == nil {
			return nil
		}
		var he *httpError
		if errors.As(err, &he) && !he.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= c.cfg.MaxRetries {
			return fmt.Errorf("ollama chat failed after %d attempts: %w", attempt, err)
		}

		slog.Debug("Ollama request failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
		}
	}
}

func (c *Client) postOnce(ctx context.Context, payload []byte, out *chatResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ llm.Completer = (*Client)(nil)
