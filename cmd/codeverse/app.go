package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/config"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/fingerprint"
	"github.com/haigpapa/Chromatoverse/pkg/llm"
	"github.com/haigpapa/Chromatoverse/pkg/llm/provider"
)

const envProfile = "CODEVERSE_PROFILE"

// globalConfig loads the global config, falling back to the built-in
// defaults, and applies the profile override
func (o *globalOptions) globalConfig() (*config.GlobalConfig, error) {
	g, err := config.NewDefaultLoader().LoadGlobalOrDefault(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	profile := o.profile
	if profile == "" {
		profile = os.Getenv(envProfile)
	}
	if err := g.Select(profile); err != nil {
		return nil, err
	}
	slog.Debug("Config loaded", "profile", g.ActiveProfile)
	return g, nil
}

// configPathOrDefault returns --config or ~/.codeverse/config.yaml
func (o *globalOptions) configPathOrDefault() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.NewDefaultLoader().GlobalPath()
}

// openDB opens the analysis database named by the profile
func openDB(p *config.Profile) (*db.DB, error) {
	database, err := db.Open(db.Config{
		Path:         p.Daemon.DBPath,
		EmbeddingDim: fingerprint.DefaultDim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// newModelAnalyzer builds the hosted-model analyzer for p. A profile with
// the heuristic provider uses OpenAI when asked to, as long as a key is set.
func newModelAnalyzer(ctx context.Context, p *config.Profile, force bool) (*llm.Analyzer, error) {
	pc := p.ProviderConfig()
	if force && (pc.Provider == "" || pc.Provider == llm.ProviderHeuristic) {
		pc.Provider = llm.ProviderOpenAI
	}

	completer, err := provider.New(ctx, pc)
	if err != nil {
		return nil, err
	}
	slog.Info("AI analysis enabled", "provider", pc.Provider, "model", pc.Model)
	return llm.NewAnalyzer(completer), nil
}

// optionalModelAnalyzer is newModelAnalyzer where unavailability is not an error
func optionalModelAnalyzer(ctx context.Context, p *config.Profile, force bool) (*llm.Analyzer, error) {
	ai, err := newModelAnalyzer(ctx, p, force)
	if errors.Is(err, llm.ErrUnavailable) {
		if force {
			slog.Warn("AI analysis unavailable, using heuristics", "error", err)
		}
		return nil, nil
	}
	return ai, err
}

// profileAnalyzer analyzes each root with the config merged for that root,
// so a tree's own .codeverse.yaml applies
type profileAnalyzer struct {
	loader *config.CachedLoader
	global *config.GlobalConfig
	ai     *llm.Analyzer // nil = heuristics only
}

func newProfileAnalyzer(global *config.GlobalConfig, ai *llm.Analyzer) *profileAnalyzer {
	return &profileAnalyzer{
		loader: config.NewCachedLoader(config.NewDefaultLoader(), nil),
		global: global,
		ai:     ai,
	}
}

func (p *profileAnalyzer) Analyze(ctx context.Context, root string) (*analyzer.Result, error) {
	a, err := p.analyzerFor(root)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, root)
}

func (p *profileAnalyzer) analyzerFor(root string) (*analyzer.Analyzer, error) {
	merged, err := p.loader.GetForDir(root, p.global)
	if err != nil {
		return nil, err
	}
	cfg, err := merged.AnalyzerConfig()
	if err != nil {
		return nil, err
	}
	if p.ai != nil {
		cfg.Classifier = p.ai
		cfg.Insights = p.ai
	}
	return analyzer.New(cfg), nil
}

// invalidate drops cached config when a .codeverse.yaml changes
func (p *profileAnalyzer) invalidate(path string) bool {
	if filepath.Base(path) != config.LocalFile {
		return false
	}
	p.loader.InvalidateLocalConfig(path)
	slog.Info("Local config changed", "path", path)
	return true
}
