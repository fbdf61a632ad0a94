package db

import (
	"context"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
)

// Database is the interface for all database operations
// This enables dependency injection and mocking for testing
type Database interface {
	// Lifecycle
	Close() error
	HealthCheck() error
	Path() string
	EmbeddingDim() int
	HasVecTable() bool

	// Metadata operations
	GetMeta(key string) (string, error)
	SetMeta(key, value string) error

	// Work queue operations
	EnqueueTarget(ctx context.Context, location, kind string) (int64, error)
	GetTarget(ctx context.Context, location string) (*Target, error)
	ListTargets(ctx context.Context) ([]*Target, error)
	GetPendingTargets(ctx context.Context, limit int) ([]*Target, error)
	MarkTargetProcessing(ctx context.Context, id int64) error
	MarkTargetDone(ctx context.Context, id int64, analysisID string) error
	RetryTarget(ctx context.Context, id int64, errorMsg string, retryCount int) error
	MarkTargetFailed(ctx context.Context, id int64, errorMsg string, retryCount int) error
	ResetStuckProcessing(ctx context.Context) (int64, error)
	DeleteTarget(ctx context.Context, location string) error
	CountTargetsByStatus(ctx context.Context) (map[string]int64, error)

	// Analysis storage
	SaveAnalysis(ctx context.Context, target string, result *analyzer.Result) (string, error)
	GetAnalysis(ctx context.Context, id string) (*analyzer.Result, error)
	LatestAnalysis(ctx context.Context, target string) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, id string) error
	CountAnalyses(ctx context.Context) (int64, error)
	GetNodes(ctx context.Context, analysisID string) ([]*NodeRecord, error)
	GetNode(ctx context.Context, analysisID, path string) (*NodeRecord, error)

	// Similarity search
	SimilarNodes(ctx context.Context, analysisID string, vector []float32, k int) ([]*SimilarNode, error)
	SimilarToNode(ctx context.Context, analysisID, path string, k int) ([]*SimilarNode, error)

	// Ad-hoc read queries (cypher transpiler output)
	QueryRows(ctx context.Context, query string, args ...any) ([]string, []map[string]any, error)
}

// Ensure DB implements Database interface
var _ Database = (*DB)(nil)
