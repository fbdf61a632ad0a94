package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haigpapa/Chromatoverse/pkg/config"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/filter"
	"github.com/haigpapa/Chromatoverse/pkg/metrics"
	"github.com/haigpapa/Chromatoverse/pkg/repo"
	"github.com/haigpapa/Chromatoverse/pkg/watcher"
	"github.com/haigpapa/Chromatoverse/pkg/worker"
)

const statusInterval = 30 * time.Second

// resolveTarget turns a CLI argument into a queue location and kind
func resolveTarget(arg string) (string, string, error) {
	if repo.ValidateURL(arg) == nil {
		if _, err := repo.Name(arg); err != nil {
			return "", "", err
		}
		return arg, db.KindGitHub, nil
	}

	abs, err := config.AbsPath(arg)
	if err != nil {
		return "", "", err
	}
	if !isDir(abs) {
		return "", "", fmt.Errorf("%s is neither a directory nor a GitHub URL", arg)
	}
	return abs, db.KindLocal, nil
}

func newQueueCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue <dir|github-url>...",
		Short: "Queue directories or repositories for background analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := opts.globalConfig()
			if err != nil {
				return err
			}
			database, err := openDB(global.Active())
			if err != nil {
				return err
			}
			defer database.Close()

			out := cmd.OutOrStdout()
			queued := 0
			var errs []error
			for _, arg := range args {
				location, kind, err := resolveTarget(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if _, err := database.EnqueueTarget(cmd.Context(), location, kind); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "📇 Queued %s (%s)\n", location, kind)
				queued++
			}

			fmt.Fprintf(out, "\n✓ Queued %d target(s)\n", queued)
			if queued > 0 {
				fmt.Fprintln(out, "\n💡 The daemon analyzes queued targets in the background.")
				fmt.Fprintln(out, "   Check status with: codeverse status")
			}
			return errors.Join(errs...)
		},
	}
}

func newDaemonCmd(opts *globalOptions) *cobra.Command {
	var (
		metricsAddr string
		ai          bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Analyze queued targets and re-analyze watched directories on change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, opts, metricsAddr, ai)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().BoolVar(&ai, "ai", false, "classify files with the configured model provider")
	return cmd
}

func runDaemon(cmd *cobra.Command, opts *globalOptions, metricsAddr string, useAI bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "🚀 Starting Codeverse daemon...")

	global, err := opts.globalConfig()
	if err != nil {
		return err
	}
	p := global.Active()

	database, err := openDB(p)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.HealthCheck(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	fmt.Fprintf(out, "✓ Database ready at %s\n", database.Path())

	ai, err := optionalModelAnalyzer(ctx, p, useAI)
	if err != nil {
		return err
	}
	pa := newProfileAnalyzer(global, ai)

	fw, err := watcher.New(&watcher.Config{
		Debounce: p.Daemon.Debounce,
		Notify:   []string{config.LocalFile},
		OnChange: func(ch watcher.Change) {
			for _, path := range ch.Paths {
				pa.invalidate(path)
			}
			if _, err := database.EnqueueTarget(ctx, ch.Root, db.KindLocal); err != nil {
				slog.Error("Failed to re-queue target", "root", ch.Root, "error", err)
				return
			}
			slog.Debug("Re-queued target after change", "root", ch.Root, "paths", len(ch.Paths))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	watched := syncWatches(ctx, database, fw, pa, out)
	if watched == 0 {
		slog.Warn("No local targets to watch. Queue one with: codeverse queue <dir>")
	}

	w := worker.NewAnalysisWorker(&worker.Config{
		Store:        database,
		Analyzer:     pa,
		Cloner:       repo.GitCloner{},
		TempDir:      p.Server.TempDir,
		PollInterval: p.Daemon.PollInterval,
		BatchSize:    p.Daemon.BatchSize,
		MaxRetries:   p.Daemon.MaxRetries,
	})

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Analysis worker error", "error", err)
		}
	}()
	go func() {
		if err := fw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Watcher error", "error", err)
		}
	}()

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server error", "error", err)
			}
		}()
		defer srv.Close()
		fmt.Fprintf(out, "✓ Metrics on %s/metrics\n", metricsAddr)
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✅ Daemon running. Press Ctrl+C to stop.")
	fmt.Fprintln(out)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n🛑 Shutting down gracefully...")
			return nil
		case <-ticker.C:
			syncWatches(ctx, database, fw, pa, out)
			printDaemonStatus(ctx, database, out)
		}
	}
}

// syncWatches adds a tree watch for every local target not yet watched
// and returns the number of watched roots
func syncWatches(ctx context.Context, database db.Database, fw *watcher.FileWatcher, pa *profileAnalyzer, out io.Writer) int {
	targets, err := database.ListTargets(ctx)
	if err != nil {
		slog.Error("Failed to list targets", "error", err)
		return 0
	}

	count := 0
	for _, t := range targets {
		if t.Kind != db.KindLocal {
			continue
		}
		if root, ok := fw.RootOf(t.Location); ok && root == t.Location {
			count++
			continue
		}
		if !isDir(t.Location) {
			slog.Warn("Skipping missing target directory", "path", t.Location)
			continue
		}

		f, err := treeFilter(pa, t.Location)
		if err != nil {
			slog.Warn("Invalid filter settings for target", "path", t.Location, "error", err)
			continue
		}
		if err := fw.WatchTree(t.Location, f); err != nil {
			slog.Warn("Failed to watch directory", "path", t.Location, "error", err)
			continue
		}
		fmt.Fprintf(out, "👁️  Watching: %s\n", t.Location)
		count++
	}
	return count
}

func treeFilter(pa *profileAnalyzer, root string) (*filter.Filter, error) {
	merged, err := pa.loader.GetForDir(root, pa.global)
	if err != nil {
		return nil, err
	}
	return filter.New(merged.FilterOptions())
}

func printDaemonStatus(ctx context.Context, database db.Database, out io.Writer) {
	counts, err := database.CountTargetsByStatus(ctx)
	if err != nil {
		slog.Error("Failed to count targets", "error", err)
		return
	}
	metrics.SetQueueCounts(counts)

	analyses, err := database.CountAnalyses(ctx)
	if err != nil {
		slog.Error("Failed to count analyses", "error", err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	fmt.Fprintf(out, "📊 Status: %d targets (%d done, %d pending", total, counts[db.StatusDone], counts[db.StatusPending])
	if n := counts[db.StatusProcessing]; n > 0 {
		fmt.Fprintf(out, ", %d processing", n)
	}
	if n := counts[db.StatusFailed]; n > 0 {
		fmt.Fprintf(out, ", %d failed", n)
	}
	fmt.Fprintf(out, "), %d analyses\n", analyses)
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and database health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := opts.globalConfig()
			if err != nil {
				return err
			}
			database, err := openDB(global.Active())
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.HealthCheck(); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return printStatus(cmd.Context(), database, cmd.OutOrStdout())
		},
	}
}

func printStatus(ctx context.Context, database db.Database, out io.Writer) error {
	counts, err := database.CountTargetsByStatus(ctx)
	if err != nil {
		return err
	}
	analyses, err := database.CountAnalyses(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	fmt.Fprintln(out, "Codeverse Status")
	fmt.Fprintln(out, "================")
	fmt.Fprintf(out, "Database: %s\n", database.Path())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Targets:")
	fmt.Fprintf(out, "  Total:      %d\n", total)
	for _, row := range []struct {
		label, status string
	}{
		{"Done:      ", db.StatusDone},
		{"Pending:   ", db.StatusPending},
		{"Processing:", db.StatusProcessing},
		{"Failed:    ", db.StatusFailed},
	} {
		if n := counts[row.status]; n > 0 {
			fmt.Fprintf(out, "  %s %d\n", row.label, n)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Analyses:       %d\n", analyses)
	fmt.Fprintf(out, "Vector dim:     %d\n", database.EmbeddingDim())
	if !database.HasVecTable() {
		fmt.Fprintln(out, "Vector search:  unavailable")
	}
	schemaVer, _ := database.GetMeta(db.MetaKeySchemaVersion)
	fmt.Fprintf(out, "Schema version: %s\n", schemaVer)
	return nil
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := opts.globalConfig()
			if err != nil {
				return err
			}
			database, err := openDB(global.Active())
			if err != nil {
				return err
			}
			defer database.Close()

			return printAnalyses(cmd.Context(), database, limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of analyses to show")
	return cmd
}

func printAnalyses(ctx context.Context, database db.Database, limit int, out io.Writer) error {
	records, err := database.ListAnalyses(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No analyses stored yet")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-24s  %6s  %6s  %-24s  %s\n", "ID", "PROJECT", "FILES", "LINKS", "ANALYZED AT", "TARGET")
	for _, r := range records {
		fmt.Fprintf(out, "%-36s  %-24s  %6d  %6d  %-24s  %s\n",
			r.ID, r.ProjectName, r.FileCount, r.LinkCount, r.AnalyzedAt, r.Target)
	}
	return nil
}
