package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
)

// MockDB for testing
type MockDB struct {
	lastVector []float32
	lastPath   string
	err        error
}

func (m *MockDB) EmbeddingDim() int { return 64 }

func (m *MockDB) GetAnalysis(ctx context.Context, id string) (*analyzer.Result, error) {
	if id != "a1" {
		return nil, db.ErrNotFound
	}
	return &analyzer.Result{Graph: analyzer.Graph{Links: []graph.Link{
		{Source: "src/App.jsx", Target: "src/api.js"},
		{Source: "src/App.jsx", Target: "src/api.js"},
		{Source: "src/Page.jsx", Target: "src/api.js"},
	}}}, nil
}

func (m *MockDB) SimilarNodes(ctx context.Context, analysisID string, vector []float32, k int) ([]*db.SimilarNode, error) {
	m.lastVector = vector
	if m.err != nil {
		return nil, m.err
	}
	return []*db.SimilarNode{
		{Path: "src/api.js", Language: "JavaScript", Role: "API Service", Distance: 0.05},
		{Path: "src/App.jsx", Language: "JavaScript", Role: "UI Component", Distance: 0.25},
	}, nil
}

func (m *MockDB) SimilarToNode(ctx context.Context, analysisID, path string, k int) ([]*db.SimilarNode, error) {
	m.lastPath = path
	if m.err != nil {
		return nil, m.err
	}
	return []*db.SimilarNode{{Path: "src/Page.jsx", Distance: 0.5}}, nil
}

func TestByText(t *testing.T) {
	mock := &MockDB{}
	engine := New(mock)

	results, err := engine.ByText(context.Background(), "a1", "fetch items from api", 5)
	if err != nil {
		t.Fatalf("ByText failed: %v", err)
	}
	if len(mock.lastVector) != 64 {
		t.Errorf("Expected query vector of dim 64, got %d", len(mock.lastVector))
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Path != "src/api.js" || math.Abs(results[0].Score-0.95) > 1e-9 {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
}

func TestByTextEmptyQuery(t *testing.T) {
	engine := New(&MockDB{})
	if _, err := engine.ByText(context.Background(), "a1", "  ... ", 5); err == nil {
		t.Errorf("Expected error for query without tokens")
	}
}

func TestByPath(t *testing.T) {
	mock := &MockDB{}
	results, err := New(mock).ByPath(context.Background(), "a1", "src/App.jsx", 3)
	if err != nil {
		t.Fatalf("ByPath failed: %v", err)
	}
	if mock.lastPath != "src/App.jsx" {
		t.Errorf("Expected path to be passed through, got %q", mock.lastPath)
	}
	if len(results) != 1 || results[0].Score != 0.5 {
		t.Errorf("Unexpected results: %+v", results)
	}
}

func TestSearchErrorsAreWrapped(t *testing.T) {
	mock := &MockDB{err: db.ErrNoVectors}
	_, err := New(mock).ByPath(context.Background(), "a1", "x.js", 3)
	if !errors.Is(err, db.ErrNoVectors) {
		t.Errorf("Expected ErrNoVectors, got %v", err)
	}
}

func TestWithNeighbors(t *testing.T) {
	engine := New(&MockDB{})
	results := []Result{{Path: "src/api.js"}, {Path: "src/App.jsx"}, {Path: "src/lonely.js"}}

	results, err := engine.WithNeighbors(context.Background(), "a1", results)
	if err != nil {
		t.Fatalf("WithNeighbors failed: %v", err)
	}

	api := results[0].Neighbors
	if len(api) != 2 {
		t.Fatalf("Expected 2 neighbors for api.js, got %+v", api)
	}
	if api[0] != (Neighbor{Path: "src/App.jsx", Relation: RelImportedBy}) {
		t.Errorf("Unexpected neighbor: %+v", api[0])
	}

	app := results[1].Neighbors
	if len(app) != 1 || app[0] != (Neighbor{Path: "src/api.js", Relation: RelImports}) {
		t.Errorf("Duplicate links should collapse, got %+v", app)
	}

	if results[2].Neighbors != nil {
		t.Errorf("Expected no neighbors, got %+v", results[2].Neighbors)
	}
}

func TestWithNeighborsUnknownAnalysis(t *testing.T) {
	_, err := New(&MockDB{}).WithNeighbors(context.Background(), "missing", []Result{{Path: "a.js"}})
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
