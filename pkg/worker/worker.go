package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/metrics"
	"github.com/haigpapa/Chromatoverse/pkg/repo"
)

// Store is the slice of the database the worker drives
type Store interface {
	GetPendingTargets(ctx context.Context, limit int) ([]*db.Target, error)
	MarkTargetProcessing(ctx context.Context, id int64) error
	MarkTargetDone(ctx context.Context, id int64, analysisID string) error
	RetryTarget(ctx context.Context, id int64, errorMsg string, retryCount int) error
	MarkTargetFailed(ctx context.Context, id int64, errorMsg string, retryCount int) error
	ResetStuckProcessing(ctx context.Context) (int64, error)
	SaveAnalysis(ctx context.Context, target string, result *analyzer.Result) (string, error)
}

// Analyzer runs one analysis over a directory
type Analyzer interface {
	Analyze(ctx context.Context, root string) (*analyzer.Result, error)
}

// Config holds worker configuration
type Config struct {
	Store        Store
	Analyzer     Analyzer
	Cloner       repo.Cloner // nil = GitHub targets fail
	TempDir      string
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int

	// OnDone is called after a target's analysis is stored
	OnDone func(target *db.Target, analysisID string)
}

// AnalysisWorker drains the target queue
type AnalysisWorker struct {
	store        Store
	analyzer     Analyzer
	cloner       repo.Cloner
	tempDir      string
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	onDone       func(*db.Target, string)
}

// NewAnalysisWorker creates a new analysis worker
func NewAnalysisWorker(cfg *Config) *AnalysisWorker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	return &AnalysisWorker{
		store:        cfg.Store,
		analyzer:     cfg.Analyzer,
		cloner:       cfg.Cloner,
		tempDir:      cfg.TempDir,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		maxRetries:   cfg.MaxRetries,
		onDone:       cfg.OnDone,
	}
}

// Start begins processing targets from the queue
func (w *AnalysisWorker) Start(ctx context.Context) error {
	slog.Info("Analysis worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	// A previous run may have died mid-analysis
	if _, err := w.store.ResetStuckProcessing(ctx); err != nil {
		slog.Error("Failed to reset stuck targets", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	w.ProcessBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Analysis worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch fetches and processes one batch of pending targets.
// It returns the number of targets taken from the queue.
func (w *AnalysisWorker) ProcessBatch(ctx context.Context) int {
	targets, err := w.store.GetPendingTargets(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending targets", "error", err)
		return 0
	}

	if len(targets) == 0 {
		return 0 // No work to do
	}

	slog.Debug("Processing batch", "count", len(targets))

	n := 0
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return n
		default:
			w.processTarget(ctx, target)
			n++
		}
	}
	return n
}

// processTarget analyzes a single target from the queue
func (w *AnalysisWorker) processTarget(ctx context.Context, target *db.Target) {
	// Mark as processing to prevent duplicate work
	if err := w.store.MarkTargetProcessing(ctx, target.ID); err != nil {
		slog.Error("Failed to mark target processing", "target", target.Location, "error", err)
		return
	}

	slog.Debug("Processing target", "target", target.Location, "kind", target.Kind, "retry", target.RetryCount)

	start := time.Now()
	analysisID, result, err := w.analyze(ctx, target)
	if result != nil {
		metrics.ObserveAnalysis(metrics.SourceWorker, time.Since(start), len(result.Graph.Nodes), len(result.Graph.Links), err)
	} else {
		metrics.ObserveAnalysis(metrics.SourceWorker, time.Since(start), 0, 0, err)
	}
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown; the row is reset to pending on the next start
			return
		}
		w.handleFailure(ctx, target, err)
		return
	}

	// Success - mark as done
	if err := w.store.MarkTargetDone(ctx, target.ID, analysisID); err != nil {
		slog.Error("Failed to mark target done", "target", target.Location, "error", err)
		return
	}

	slog.Info("Analyzed target", "target", target.Location, "analysis_id", analysisID,
		"files", len(result.Graph.Nodes), "links", len(result.Graph.Links))

	if w.onDone != nil {
		w.onDone(target, analysisID)
	}
}

// analyze resolves the target to a directory, analyzes it and stores the result
func (w *AnalysisWorker) analyze(ctx context.Context, target *db.Target) (string, *analyzer.Result, error) {
	dir := target.Location

	switch target.Kind {
	case db.KindLocal:
	case db.KindGitHub:
		if w.cloner == nil {
			return "", nil, fmt.Errorf("no cloner configured for %s", target.Location)
		}
		ws, err := repo.Checkout(ctx, w.cloner, w.tempDir, target.Location)
		if err != nil {
			return "", nil, err
		}
		defer ws.Close()
		dir = ws.Dir
	default:
		return "", nil, fmt.Errorf("unknown target kind %q", target.Kind)
	}

	result, err := w.analyzer.Analyze(ctx, dir)
	if err != nil {
		return "", nil, err
	}

	id, err := w.store.SaveAnalysis(ctx, target.Location, result)
	if err != nil {
		return "", result, fmt.Errorf("failed to save analysis: %w", err)
	}
	return id, result, nil
}

// handleFailure handles analysis failures with retry logic
func (w *AnalysisWorker) handleFailure(ctx context.Context, target *db.Target, analyzeErr error) {
	retryCount := target.RetryCount + 1

	if retryCount >= w.maxRetries {
		// Permanent failure
		if err := w.store.MarkTargetFailed(ctx, target.ID, analyzeErr.Error(), retryCount); err != nil {
			slog.Error("Failed to mark target failed", "target", target.Location, "error", err)
			return
		}
		slog.Error("Target analysis failed permanently", "target", target.Location, "retries", retryCount, "error", analyzeErr)
	} else {
		// Re-queue for retry
		if err := w.store.RetryTarget(ctx, target.ID, analyzeErr.Error(), retryCount); err != nil {
			slog.Error("Failed to requeue target", "target", target.Location, "error", err)
			return
		}
		slog.Warn("Target analysis failed, will retry", "target", target.Location, "retry", retryCount, "max_retries", w.maxRetries, "error", analyzeErr)
	}
}
