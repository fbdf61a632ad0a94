package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/filter"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
	"github.com/haigpapa/Chromatoverse/pkg/llm"
	"github.com/haigpapa/Chromatoverse/pkg/llm/provider"
	"github.com/haigpapa/Chromatoverse/pkg/loader"
)

// File locations
const (
	GlobalDir  = ".codeverse"
	GlobalFile = "config.yaml"
	LocalFile  = ".codeverse.yaml"

	ConfigVersion  = "1"
	DefaultProfile = "default"
)

// NewDefaultProfile returns the built-in profile used when no config exists
func NewDefaultProfile() *Profile {
	p := &Profile{}
	applyDefaults(p)
	return p
}

// DefaultGlobalConfig returns a config holding only the default profile
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:       ConfigVersion,
		ActiveProfile: DefaultProfile,
		Profiles: map[string]*Profile{
			DefaultProfile: NewDefaultProfile(),
		},
	}
}

// applyDefaults fills unset fields
func applyDefaults(p *Profile) {
	if p.Resolver == "" {
		p.Resolver = graph.StrategyCandidates
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 4
	}
	if p.Classifier.Provider == "" {
		p.Classifier.Provider = llm.ProviderHeuristic
	}
	if p.Classifier.Timeout == 0 {
		p.Classifier.Timeout = 60 * time.Second
	}

	s := &p.Server
	if s.Addr == "" {
		s.Addr = ":5000"
	}
	if s.TempDir == "" {
		s.TempDir = filepath.Join("~", GlobalDir, "temp")
	}
	if s.CacheSize <= 0 {
		s.CacheSize = 32
	}
	if s.CacheTTL == 0 {
		s.CacheTTL = 10 * time.Minute
	}
	if s.CloneTimeout == 0 {
		s.CloneTimeout = 2 * time.Minute
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{"*"}
	}

	d := &p.Daemon
	if d.DBPath == "" {
		d.DBPath = filepath.Join("~", GlobalDir, "codeverse.db")
	}
	if d.PollInterval == 0 {
		d.PollInterval = 5 * time.Second
	}
	if d.BatchSize <= 0 {
		d.BatchSize = 10
	}
	if d.MaxRetries <= 0 {
		d.MaxRetries = 3
	}
	if d.Debounce == 0 {
		d.Debounce = 2 * time.Second
	}
}

// Select makes name the active profile
func (g *GlobalConfig) Select(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := g.Profiles[name]; !ok {
		return fmt.Errorf("profile %s not found in config", name)
	}
	g.ActiveProfile = name
	return nil
}

// Active returns the active profile
func (g *GlobalConfig) Active() *Profile {
	return g.Profiles[g.ActiveProfile]
}

// FilterOptions returns the tree filter settings
func (m *MergedConfig) FilterOptions() filter.Options {
	return filter.Options{
		ExcludeDirs:  m.ExcludeDirs,
		ExcludeFiles: m.ExcludeFiles,
		ExcludeGlobs: m.ExcludeGlobs,
		Blacklist:    m.Blacklist,
		Whitelist:    m.Whitelist,
	}
}

// AnalyzerConfig builds the pipeline config; classifier and insights are
// left for the caller to wire
func (m *MergedConfig) AnalyzerConfig() (*analyzer.Config, error) {
	f, err := filter.New(m.FilterOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid filter settings: %w", err)
	}

	cfg := analyzer.DefaultConfig()
	cfg.Filter = f
	cfg.Resolver = m.Resolver
	cfg.DedupeLinks = m.DedupeLinks
	cfg.OmitContent = m.OmitContent
	cfg.MaxConcurrency = m.Concurrency
	cfg.Load = loader.Options{
		Concurrency: loader.DefaultConcurrency,
		MaxFileSize: m.MaxFileSize,
		SkipBinary:  m.SkipBinary,
	}
	return cfg, nil
}

// ProviderConfig returns the classifier provider settings
func (p *Profile) ProviderConfig() provider.Config {
	return provider.Config{
		Provider: p.Classifier.Provider,
		Model:    p.Classifier.Model,
		BaseURL:  p.Classifier.BaseURL,
		APIKey:   p.Classifier.APIKey,
		Timeout:  p.Classifier.Timeout,
	}
}
