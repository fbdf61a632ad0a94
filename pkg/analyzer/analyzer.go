package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
	"github.com/haigpapa/Chromatoverse/pkg/deps"
	"github.com/haigpapa/Chromatoverse/pkg/filter"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
	"github.com/haigpapa/Chromatoverse/pkg/loader"
	"github.com/haigpapa/Chromatoverse/pkg/walker"
)

// New creates an Analyzer. A non-heuristic classifier is wrapped so that
// any failure falls back to the heuristic rules.
func New(cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Filter == nil {
		cfg.Filter = filter.Default()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := cfg.Classifier
	switch c.(type) {
	case nil:
		c = classify.Heuristic{}
	case classify.Heuristic, classify.Fallback:
	default:
		c = classify.Fallback{Primary: c, Secondary: classify.Heuristic{}}
	}

	return &Analyzer{config: cfg, classifier: c}
}

// Analyze runs the full pipeline over root.
// Only an unusable root or a cancelled ctx is an error.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	paths, err := walker.Walk(absRoot, a.config.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}
	slog.Debug("Walk complete", "root", absRoot, "files", len(paths))

	records, err := loader.Load(ctx, absRoot, paths, a.config.Load)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	nodes, err := a.classifyAll(ctx, records)
	if err != nil {
		return nil, err
	}

	// All nodes must exist before any edge is resolved
	links := graph.Build(nodes, graph.Options{
		Strategy: a.config.Resolver,
		Dedupe:   a.config.DedupeLinks,
	})

	project := graph.Summarize(filepath.Base(absRoot), nodes)
	if a.config.Insights != nil {
		insights, err := a.config.Insights.ProjectInsights(ctx, project, nodes)
		if err != nil {
			slog.Warn("Project insights unavailable", "error", err)
		} else {
			project.Insights = insights
		}
	}

	if a.config.OmitContent {
		for i := range nodes {
			nodes[i].Content = ""
		}
	}

	result := &Result{
		Meta: Meta{
			AnalyzedAt: a.config.Now().UTC().Format(TimestampLayout),
			Analyzer:   ID,
			Directory:  absRoot,
		},
		Project:  project,
		Graph:    Graph{Nodes: nodes, Links: links},
		Files:    records,
		Duration: time.Since(start),
	}

	slog.Info("Analysis complete",
		"root", absRoot,
		"files", len(nodes),
		"links", len(links),
		"duration", result.Duration)

	return result, nil
}

// classifyAll classifies and extracts each record; output order follows input
func (a *Analyzer) classifyAll(ctx context.Context, records []loader.FileRecord) ([]graph.Node, error) {
	nodes := make([]graph.Node, len(records))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrency)

	for i, rec := range records {
		g.Go(func() error {
			c, err := a.classifier.Classify(gCtx, rec.Path, rec.Content)
			if err != nil {
				// Heuristic fallback never errors; this is cancellation
				return fmt.Errorf("failed to classify %s: %w", rec.Path, err)
			}
			nodes[i] = graph.NewNode(rec.Path, rec.Content, c, deps.Extract(rec.Content))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}
