package db

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// SimilarNode is a node ranked by fingerprint distance to a query
type SimilarNode struct {
	Path     string
	Language string
	Role     string
	Summary  string
	Distance float64
}

// Scan implements rowScanner
func (s *SimilarNode) Scan(rows *sql.Rows) error {
	return rows.Scan(&s.Path, &s.Language, &s.Role, &s.Summary, &s.Distance)
}

// SimilarNodes returns the k nodes of an analysis closest to vector
func (db *DB) SimilarNodes(ctx context.Context, analysisID string, vector []float32, k int) ([]*SimilarNode, error) {
	if !db.hasVecTable {
		return nil, ErrNoVectors
	}
	if len(vector) != db.embeddingDim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", db.embeddingDim, len(vector))
	}
	if k <= 0 {
		k = 10
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query vector: %w", err)
	}

	// Filter by analysis first; a KNN MATCH would rank across every analysis
	return selectAll[SimilarNode](ctx, db.conn, "search similar nodes", `
		SELECT n.path, n.language, n.role, n.summary,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_nodes v
		JOIN nodes n ON n.id = v.node_id
		WHERE n.analysis_id = ?
		ORDER BY distance ASC, n.path ASC
		LIMIT ?
	`, blob, analysisID, k)
}

// SimilarToNode ranks the other nodes of an analysis by distance to path
func (db *DB) SimilarToNode(ctx context.Context, analysisID, path string, k int) ([]*SimilarNode, error) {
	if !db.hasVecTable {
		return nil, ErrNoVectors
	}
	if k <= 0 {
		k = 10
	}

	node, err := db.GetNode(ctx, analysisID, path)
	if err != nil {
		return nil, err
	}

	var blob []byte
	err = db.conn.QueryRowContext(ctx, "SELECT embedding FROM vec_nodes WHERE node_id = ?", node.ID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fingerprint for %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint: %w", err)
	}

	return selectAll[SimilarNode](ctx, db.conn, "search similar nodes", `
		SELECT n.path, n.language, n.role, n.summary,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_nodes v
		JOIN nodes n ON n.id = v.node_id
		WHERE n.analysis_id = ? AND n.id != ?
		ORDER BY distance ASC, n.path ASC
		LIMIT ?
	`, blob, analysisID, node.ID, k)
}
