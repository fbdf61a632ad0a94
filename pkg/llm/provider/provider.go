// Package provider builds the configured llm.Completer.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/llm"
	"github.com/haigpapa/Chromatoverse/pkg/llm/gemini"
	"github.com/haigpapa/Chromatoverse/pkg/llm/ollama"
	"github.com/haigpapa/Chromatoverse/pkg/llm/openai"
)

// Config selects and configures a model provider
type Config struct {
	Provider string // heuristic, openai, gemini or ollama
	Model    string
	BaseURL  string
	APIKey   string // falls back to the provider's environment variable
	Timeout  time.Duration
}

// Environment variables consulted when Config.APIKey is empty
var envKeys = map[string][]string{
	llm.ProviderOpenAI: {"OPENAI_API_KEY"},
	llm.ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// New returns the Completer named by cfg.Provider. The heuristic provider,
// an empty provider and a missing API key all yield llm.ErrUnavailable.
func New(ctx context.Context, cfg Config) (llm.Completer, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	key := APIKey(cfg)

	switch name {
	case "", llm.ProviderHeuristic:
		return nil, fmt.Errorf("provider %q: %w", cfg.Provider, llm.ErrUnavailable)
	case llm.ProviderOpenAI:
		c, err := openai.NewClient(&openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  key,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case llm.ProviderGemini:
		c, err := gemini.NewClient(ctx, &gemini.Config{
			APIKey:  key,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case llm.ProviderOllama:
		return ollama.NewClient(&ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  key,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

// APIKey returns the configured key or the first non-empty environment key
func APIKey(cfg Config) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	for _, env := range envKeys[strings.ToLower(strings.TrimSpace(cfg.Provider))] {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

// Available reports whether New would succeed without contacting the provider
func Available(cfg Config) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case llm.ProviderOllama:
		return true
	case llm.ProviderOpenAI, llm.ProviderGemini:
		return APIKey(cfg) != ""
	default:
		return false
	}
}
