// Package search ranks the files of a stored analysis by fingerprint
// similarity and expands hits with their import neighbors.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/fingerprint"
)

// Store is the part of the database search reads from
type Store interface {
	EmbeddingDim() int
	GetAnalysis(ctx context.Context, id string) (*analyzer.Result, error)
	SimilarNodes(ctx context.Context, analysisID string, vector []float32, k int) ([]*db.SimilarNode, error)
	SimilarToNode(ctx context.Context, analysisID, path string, k int) ([]*db.SimilarNode, error)
}

// Relations between a hit and a neighbor
const (
	RelImports    = "imports"
	RelImportedBy = "imported_by"
)

// Engine provides search capabilities
type Engine struct {
	db Store
}

// Result is one ranked file
type Result struct {
	Path      string
	Language  string
	Role      string
	Summary   string
	Score     float64 // 1 - cosine distance
	Neighbors []Neighbor
}

// Neighbor is a file linked to a result
type Neighbor struct {
	Path     string
	Relation string
}

// New creates a new search engine
func New(store Store) *Engine {
	return &Engine{db: store}
}

// ByText ranks files by similarity to free text
func (e *Engine) ByText(ctx context.Context, analysisID, query string, limit int) ([]Result, error) {
	vector := fingerprint.Vector(query, e.db.EmbeddingDim())
	if fingerprint.IsZero(vector) {
		return nil, fmt.Errorf("query has no searchable tokens")
	}

	hits, err := e.db.SimilarNodes(ctx, analysisID, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return toResults(hits), nil
}

// ByPath ranks the other files of an analysis by similarity to path
func (e *Engine) ByPath(ctx context.Context, analysisID, path string, limit int) ([]Result, error) {
	hits, err := e.db.SimilarToNode(ctx, analysisID, path, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return toResults(hits), nil
}

// WithNeighbors attaches each result's direct import neighbors
func (e *Engine) WithNeighbors(ctx context.Context, analysisID string, results []Result) ([]Result, error) {
	if len(results) == 0 {
		return results, nil
	}

	analysis, err := e.db.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]Neighbor)
	for _, l := range analysis.Graph.Links {
		adjacency[l.Source] = append(adjacency[l.Source], Neighbor{Path: l.Target, Relation: RelImports})
		adjacency[l.Target] = append(adjacency[l.Target], Neighbor{Path: l.Source, Relation: RelImportedBy})
	}

	for i := range results {
		results[i].Neighbors = dedupe(adjacency[results[i].Path])
	}
	return results, nil
}

func toResults(hits []*db.SimilarNode) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Path:     h.Path,
			Language: h.Language,
			Role:     h.Role,
			Summary:  h.Summary,
			Score:    1.0 - h.Distance,
		})
	}
	return results
}

// dedupe drops repeated neighbors and orders them by relation, then path
func dedupe(ns []Neighbor) []Neighbor {
	if len(ns) == 0 {
		return nil
	}
	seen := make(map[Neighbor]bool, len(ns))
	out := make([]Neighbor, 0, len(ns))
	for _, n := range ns {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Relation != out[j].Relation {
			return out[i].Relation > out[j].Relation
		}
		return out[i].Path < out[j].Path
	})
	return out
}
