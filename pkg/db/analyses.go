package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/fingerprint"
)

// AnalysisRecord is the stored header of one analysis
type AnalysisRecord struct {
	ID          string
	Target      string
	Directory   string
	AnalyzedAt  string
	ProjectName string
	FileCount   int
	LinkCount   int
	CreatedAt   *time.Time
}

const analysisColumns = `id, target, directory, analyzed_at, project_name, file_count, link_count, created_at`

// Scan implements rowScanner
func (a *AnalysisRecord) Scan(rows *sql.Rows) error {
	var createdAt sql.NullTime
	if err := rows.Scan(&a.ID, &a.Target, &a.Directory, &a.AnalyzedAt, &a.ProjectName,
		&a.FileCount, &a.LinkCount, &createdAt); err != nil {
		return err
	}
	if createdAt.Valid {
		c := createdAt.Time
		a.CreatedAt = &c
	}
	return nil
}

// NodeRecord is one stored graph node
type NodeRecord struct {
	ID          int64
	AnalysisID  string
	Path        string
	Label       string
	Language    string
	Role        string
	Summary     string
	Size        int
	ContentHash string
}

const nodeColumns = `id, analysis_id, path, label, language, role, summary, size, content_hash`

// Scan implements rowScanner
func (n *NodeRecord) Scan(rows *sql.Rows) error {
	return rows.Scan(&n.ID, &n.AnalysisID, &n.Path, &n.Label, &n.Language, &n.Role,
		&n.Summary, &n.Size, &n.ContentHash)
}

// SaveAnalysis stores result under a new id, together with its flattened
// nodes, links and (when available) content fingerprints.
func (db *DB) SaveAnalysis(ctx context.Context, target string, result *analyzer.Result) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	id := uuid.NewString()

	content := make(map[string]string, len(result.Files))
	hashes := make(map[string]string, len(result.Files))
	for _, f := range result.Files {
		content[f.Path] = f.Content
		hashes[f.Path] = strconv.FormatUint(f.Hash, 16)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analyses (id, target, directory, analyzed_at, project_name, file_count, link_count, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, target, result.Meta.Directory, result.Meta.AnalyzedAt, result.Project.ProjectName,
		len(result.Graph.Nodes), len(result.Graph.Links), string(payload), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (analysis_id, path, label, language, role, summary, size, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	var vecStmt *sql.Stmt
	if db.hasVecTable {
		vecStmt, err = tx.PrepareContext(ctx, `INSERT INTO vec_nodes (node_id, embedding) VALUES (?, ?)`)
		if err != nil {
			return "", fmt.Errorf("failed to prepare vector insert: %w", err)
		}
		defer vecStmt.Close()
	}

	for _, n := range result.Graph.Nodes {
		res, err := nodeStmt.ExecContext(ctx, id, n.Path, n.Label, n.Language, n.Role, n.Summary, n.Size, hashes[n.Path])
		if err != nil {
			return "", fmt.Errorf("failed to insert node %s: %w", n.Path, err)
		}
		if vecStmt == nil {
			continue
		}

		text, ok := content[n.Path]
		if !ok {
			text = n.Content
		}
		vec := fingerprint.Vector(text, db.embeddingDim)
		if fingerprint.IsZero(vec) {
			continue
		}
		nodeID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to get node ID: %w", err)
		}
		blob, err := sqlite_vec.SerializeFloat32(vec)
		if err != nil {
			return "", fmt.Errorf("failed to serialize fingerprint: %w", err)
		}
		if _, err := vecStmt.ExecContext(ctx, nodeID, blob); err != nil {
			return "", fmt.Errorf("failed to insert fingerprint for %s: %w", n.Path, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (analysis_id, ordinal, source, target) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	for i, l := range result.Graph.Links {
		if _, err := linkStmt.ExecContext(ctx, id, i, l.Source, l.Target); err != nil {
			return "", fmt.Errorf("failed to insert link %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		MetaKeyLastAnalyzed, result.Meta.AnalyzedAt,
	); err != nil {
		return "", fmt.Errorf("failed to update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit analysis: %w", err)
	}

	slog.Debug("Analysis saved", "id", id, "target", target, "nodes", len(result.Graph.Nodes), "links", len(result.Graph.Links))
	return id, nil
}

// GetAnalysis loads the full stored result for id
func (db *DB) GetAnalysis(ctx context.Context, id string) (*analyzer.Result, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx, "SELECT result_json FROM analyses WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var result analyzer.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %s: %w", id, err)
	}
	return &result, nil
}

// LatestAnalysis returns the newest analysis header for target
func (db *DB) LatestAnalysis(ctx context.Context, target string) (*AnalysisRecord, error) {
	return selectOne[AnalysisRecord](ctx, db.conn, "analysis for "+target, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE target = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, target)
}

// ListAnalyses returns the newest analyses first
func (db *DB) ListAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	return selectAll[AnalysisRecord](ctx, db.conn, "list analyses", `
		SELECT `+analysisColumns+`
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
}

// DeleteAnalysis removes an analysis along with its nodes, links and fingerprints
func (db *DB) DeleteAnalysis(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// vec0 tables do not take part in foreign key cascades
	if db.hasVecTable {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM vec_nodes WHERE node_id IN (SELECT id FROM nodes WHERE analysis_id = ?)", id,
		); err != nil {
			return fmt.Errorf("failed to delete fingerprints: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// GetNodes returns the stored nodes of an analysis in path order
func (db *DB) GetNodes(ctx context.Context, analysisID string) ([]*NodeRecord, error) {
	return selectAll[NodeRecord](ctx, db.conn, "query nodes", `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE analysis_id = ?
		ORDER BY path
	`, analysisID)
}

// GetNode returns one stored node by path
func (db *DB) GetNode(ctx context.Context, analysisID, path string) (*NodeRecord, error) {
	return selectOne[NodeRecord](ctx, db.conn, "node "+path, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE analysis_id = ? AND path = ?
	`, analysisID, path)
}

// CountAnalyses returns the number of stored analyses
func (db *DB) CountAnalyses(ctx context.Context) (int64, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}
