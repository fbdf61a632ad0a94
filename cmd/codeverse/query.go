package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haigpapa/Chromatoverse/pkg/config"
	"github.com/haigpapa/Chromatoverse/pkg/cypher"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/filter"
	"github.com/haigpapa/Chromatoverse/pkg/search"
	"github.com/haigpapa/Chromatoverse/pkg/walker"
)

func newSimilarCmd(opts *globalOptions) *cobra.Command {
	var (
		k         int
		text      string
		neighbors bool
	)

	cmd := &cobra.Command{
		Use:   "similar <analysis-id> [path]",
		Short: "List the files of an analysis most similar to a file or to free text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (text != "") {
				return fmt.Errorf("give either a path or --text")
			}

			global, err := opts.globalConfig()
			if err != nil {
				return err
			}
			database, err := openDB(global.Active())
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			engine := search.New(database)

			var (
				subject = text
				results []search.Result
			)
			if text != "" {
				results, err = engine.ByText(ctx, args[0], text, k)
			} else {
				subject = args[1]
				results, err = engine.ByPath(ctx, args[0], args[1], k)
			}
			if err != nil {
				if errors.Is(err, db.ErrNoVectors) {
					return fmt.Errorf("vector search is not available in this database")
				}
				return err
			}

			if neighbors {
				if results, err = engine.WithNeighbors(ctx, args[0], results); err != nil {
					return err
				}
			}
			printSimilar(cmd.OutOrStdout(), subject, results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of results")
	cmd.Flags().StringVar(&text, "text", "", "rank files by similarity to this text instead of a file")
	cmd.Flags().BoolVar(&neighbors, "neighbors", false, "show each result's imports and importers")
	return cmd
}

func printSimilar(out io.Writer, subject string, results []search.Result) {
	fmt.Fprintf(out, "🔍 Files similar to: %s\n\n", subject)
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found")
		return
	}
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %s  (%s, %s)  score %.4f\n", i+1, r.Path, r.Language, r.Role, r.Score)
		if r.Summary != "" {
			fmt.Fprintf(out, "    %s\n", r.Summary)
		}
		for _, n := range r.Neighbors {
			arrow := "→"
			if n.Relation == search.RelImportedBy {
				arrow = "←"
			}
			fmt.Fprintf(out, "    %s %s\n", arrow, n.Path)
		}
	}
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var showSQL bool

	cmd := &cobra.Command{
		Use:   "query <analysis-id> <cypher>",
		Short: "Run a graph query against a stored analysis",
		Long: `Run a graph query against a stored analysis.

Examples:
  codeverse query <id> "MATCH (a:UI_COMPONENT)-[:imports]->(b) RETURN a.path, b.path"
  codeverse query <id> "MATCH (a)-[:imports*1..3]->(b:UTILITY) RETURN b.path, COUNT(a) AS users ORDER BY users DESC LIMIT 5"`,
		Args: cobra.ExactArgs(2),
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

			return runQuery(cmd.Context(), database, args[0], args[1], showSQL, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", false, "print the generated SQL")
	return cmd
}

func runQuery(ctx context.Context, database db.Database, analysisID, query string, showSQL bool, out io.Writer) error {
	if _, err := database.GetAnalysis(ctx, analysisID); err != nil {
		return err
	}

	res, err := cypher.Transpile(query, cypher.TranspileOptions{AnalysisID: analysisID})
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	if showSQL {
		fmt.Fprintf(out, "sql: |\n%s\n", indentLines(res.SQL, "  "))
	}

	cols, rows, err := database.QueryRows(ctx, res.SQL, res.Args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	printRows(out, query, cols, rows)
	return nil
}

// printRows renders query results as YAML-like text
func printRows(out io.Writer, query string, cols []string, rows []map[string]any) {
	fmt.Fprintf(out, "query: %q\n", query)
	if len(rows) == 0 {
		fmt.Fprintln(out, "results: []")
		return
	}

	fmt.Fprintln(out, "results:")
	for idx, row := range rows {
		fmt.Fprintf(out, "  - index: %d\n", idx)
		for _, col := range cols {
			switch val := row[col].(type) {
			case string:
				if strings.Contains(val, "\n") {
					fmt.Fprintf(out, "    %s: |\n%s\n", col, indentLines(val, "      "))
				} else {
					fmt.Fprintf(out, "    %s: %q\n", col, val)
				}
			case nil:
				fmt.Fprintf(out, "    %s: null\n", col)
			default:
				fmt.Fprintf(out, "    %s: %v\n", col, val)
			}
		}
	}
	fmt.Fprintf(out, "\ntotal: %d\n", len(rows))
}

func indentLines(text, indent string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

func newExplainErrorCmd(opts *globalOptions) *cobra.Command {
	var traceFile string

	cmd := &cobra.Command{
		Use:   "explain-error --trace-file <file> [analysis-id|dir]",
		Short: "Ask the model which project files an error trace points at",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			trace, err := readTrace(traceFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			global, err := opts.globalConfig()
			if err != nil {
				return err
			}

			source := "."
			if len(args) == 1 {
				source = args[0]
			}
			paths, err := projectPaths(ctx, global, source)
			if err != nil {
				return err
			}

			ai, err := newModelAnalyzer(ctx, global.Active(), true)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "🔍 Explaining error against %d files...\n", len(paths))
			explanation, err := ai.ExplainError(ctx, trace, paths)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(explanation)
		},
	}
	cmd.Flags().StringVar(&traceFile, "trace-file", "", `file holding the error trace ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("trace-file")
	return cmd
}

func readTrace(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read trace: %w", err)
	}
	trace := strings.TrimSpace(string(data))
	if trace == "" {
		return "", fmt.Errorf("error trace is empty")
	}
	return trace, nil
}

// projectPaths lists the file paths of a directory, or of a stored analysis
// when source is not a directory
func projectPaths(ctx context.Context, global *config.GlobalConfig, source string) ([]string, error) {
	if isDir(source) {
		abs, err := config.AbsPath(source)
		if err != nil {
			return nil, err
		}
		merged, err := config.NewDefaultLoader().GetForDir(abs, global)
		if err != nil {
			return nil, err
		}
		f, err := filter.New(merged.FilterOptions())
		if err != nil {
			return nil, err
		}
		return walker.Walk(abs, f)
	}

	database, err := openDB(global.Active())
	if err != nil {
		return nil, err
	}
	defer database.Close()

	nodes, err := database.GetNodes(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("analysis %s: %w", source, db.ErrNotFound)
	}
	paths := make([]string, 0, len(nodes))
	for _, n := range nodes {
		paths = append(paths, n.Path)
	}
	return paths, nil
}
