package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/config"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
	"github.com/haigpapa/Chromatoverse/pkg/metrics"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default global config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.configPathOrDefault()
			if err != nil {
				return err
			}
			if err := config.NewDefaultLoader().WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written to %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Active profile: %s\n", config.DefaultProfile)
			return nil
		},
	}
}

type analyzeOptions struct {
	out      string
	noWrite  bool
	json     bool
	resolver string
	dedupe   bool
	ai       bool
	save     bool
}

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	aopts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze a directory and write codeverse-data.json and manifest.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runAnalyze(cmd, opts, aopts, root)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&aopts.out, "out", "o", "", "output directory (default: the analyzed directory)")
	f.BoolVar(&aopts.noWrite, "no-write", false, "do not write output files")
	f.BoolVar(&aopts.json, "json", false, "print the analysis as JSON on stdout")
	f.StringVar(&aopts.resolver, "resolver", "", "link resolver: candidates or suffix (default from profile)")
	f.BoolVar(&aopts.dedupe, "dedupe", false, "drop duplicate links")
	f.BoolVar(&aopts.ai, "ai", false, "classify files with the configured model provider")
	f.BoolVar(&aopts.save, "save", false, "store the analysis in the database")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *globalOptions, aopts *analyzeOptions, root string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	abs, err := config.AbsPath(root)
	if err != nil {
		return err
	}

	global, err := opts.globalConfig()
	if err != nil {
		return err
	}
	merged, err := config.NewDefaultLoader().GetForDir(abs, global)
	if err != nil {
		return err
	}
	if aopts.resolver != "" {
		if aopts.resolver != graph.StrategyCandidates && aopts.resolver != graph.StrategySuffix {
			return fmt.Errorf("unknown resolver %q (want %s or %s)", aopts.resolver, graph.StrategyCandidates, graph.StrategySuffix)
		}
		merged.Resolver = aopts.resolver
	}
	if aopts.dedupe {
		merged.DedupeLinks = true
	}

	cfg, err := merged.AnalyzerConfig()
	if err != nil {
		return err
	}
	ai, err := optionalModelAnalyzer(ctx, &merged.Profile, aopts.ai)
	if err != nil {
		return err
	}
	if ai != nil {
		cfg.Classifier = ai
		cfg.Insights = ai
	}

	// Status lines go to stderr when stdout carries JSON
	status := out
	if aopts.json {
		status = cmd.ErrOrStderr()
	}

	fmt.Fprintf(status, "📇 Analyzing: %s\n", abs)
	start := time.Now()
	result, err := analyzer.New(cfg).Analyze(ctx, abs)
	metrics.ObserveAnalysis(metrics.SourceCLI, time.Since(start), resultFiles(result), resultLinks(result), err)
	if err != nil {
		return err
	}

	if !aopts.noWrite {
		dir := abs
		if aopts.out != "" {
			dir = aopts.out
		}
		if err := analyzer.WriteFiles(dir, result); err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Wrote %s and %s to %s\n", analyzer.DataFile, analyzer.ManifestFile, dir)
	}

	if aopts.save {
		id, err := saveAnalysis(cmd, merged, abs, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "✓ Saved analysis %s\n", id)
	}

	stats := result.Stats()
	fmt.Fprintf(status, "\n✓ Analysis complete in %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(status, "   Files analyzed:     %d\n", stats.Files)
	fmt.Fprintf(status, "   Dependencies found: %d\n", stats.Links)
	fmt.Fprintf(status, "   Languages:          %d\n", stats.Languages)
	fmt.Fprintf(status, "   Roles:              %d\n", stats.Roles)

	if aopts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return nil
}

func saveAnalysis(cmd *cobra.Command, merged *config.MergedConfig, root string, result *analyzer.Result) (string, error) {
	database, err := openDB(&merged.Profile)
	if err != nil {
		return "", err
	}
	defer database.Close()

	id, err := database.SaveAnalysis(cmd.Context(), root, result)
	if err != nil {
		return "", err
	}

	// Keep the queue entry for this root pointing at the latest analysis
	if target, err := database.GetTarget(cmd.Context(), root); err == nil {
		if err := database.MarkTargetDone(cmd.Context(), target.ID, id); err != nil {
			return "", err
		}
	}
	return id, nil
}

func resultFiles(r *analyzer.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Graph.Nodes)
}

func resultLinks(r *analyzer.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Graph.Links)
}

// isDir reports whether p names an existing directory
func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
