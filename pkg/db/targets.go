package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Target is one queued analysis target: a local directory or a repository URL
type Target struct {
	ID             int64
	Location       string
	Kind           string // local, github
	Status         string // pending, processing, done, failed
	RetryCount     int
	LastError      string
	LastAnalysisID string
	QueuedAt       *time.Time
	UpdatedAt      *time.Time
}

const targetColumns = `id, location, kind, status, retry_count,
       COALESCE(last_error, ''), COALESCE(last_analysis_id, ''), queued_at, updated_at`

// Scan implements rowScanner
func (t *Target) Scan(rows *sql.Rows) error {
	var queuedAt, updatedAt sql.NullTime
	if err := rows.Scan(&t.ID, &t.Location, &t.Kind, &t.Status, &t.RetryCount,
		&t.LastError, &t.LastAnalysisID, &queuedAt, &updatedAt); err != nil {
		return err
	}
	if queuedAt.Valid {
		q := queuedAt.Time
		t.QueuedAt = &q
	}
	if updatedAt.Valid {
		u := updatedAt.Time
		t.UpdatedAt = &u
	}
	return nil
}

// EnqueueTarget queues location for analysis.
// An existing target is put back to pending with a fresh retry budget.
func (db *DB) EnqueueTarget(ctx context.Context, location, kind string) (int64, error) {
	slog.Debug("EnqueueTarget called", "location", location, "kind", kind)
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO targets (location, kind, status, retry_count, queued_at, updated_at)
		VALUES (?, ?, 'pending', 0, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			kind = excluded.kind,
			status = 'pending',
			retry_count = 0,
			last_error = NULL,
			queued_at = excluded.queued_at,
			updated_at = excluded.updated_at
	`, location, kind, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue target: %w", err)
	}

	// LastInsertId() is unreliable with ON CONFLICT
	var id int64
	if err := db.conn.QueryRowContext(ctx, "SELECT id FROM targets WHERE location = ?", location).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get target ID: %w", err)
	}
	return id, nil
}

// GetTarget retrieves a target by location
func (db *DB) GetTarget(ctx context.Context, location string) (*Target, error) {
	return selectOne[Target](ctx, db.conn, "target "+location,
		`SELECT `+targetColumns+` FROM targets WHERE location = ?`, location)
}

// ListTargets returns every target ordered by queue time
func (db *DB) ListTargets(ctx context.Context) ([]*Target, error) {
	return selectAll[Target](ctx, db.conn, "list targets",
		`SELECT `+targetColumns+` FROM targets ORDER BY queued_at ASC, id ASC`)
}

// GetPendingTargets retrieves targets waiting for analysis, oldest first
func (db *DB) GetPendingTargets(ctx context.Context, limit int) ([]*Target, error) {
	return selectAll[Target](ctx, db.conn, "query pending targets", `
		SELECT `+targetColumns+`
		FROM targets
		WHERE status = 'pending'
		ORDER BY queued_at ASC, id ASC
		LIMIT ?
	`, limit)
}

// MarkTargetProcessing marks a target as currently being analyzed
func (db *DB) MarkTargetProcessing(ctx context.Context, id int64) error {
	return db.updateTarget(ctx, "processing", `
		UPDATE targets SET status = 'processing', updated_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
}

// MarkTargetDone records a successful analysis
func (db *DB) MarkTargetDone(ctx context.Context, id int64, analysisID string) error {
	return db.updateTarget(ctx, "done", `
		UPDATE targets
		SET status = 'done',
		    last_error = NULL,
		    retry_count = 0,
		    last_analysis_id = ?,
		    updated_at = ?
		WHERE id = ?
	`, analysisID, time.Now().UTC(), id)
}

// RetryTarget puts a target back in the queue keeping its retry count
func (db *DB) RetryTarget(ctx context.Context, id int64, errorMsg string, retryCount int) error {
	now := time.Now().UTC()
	return db.updateTarget(ctx, "pending", `
		UPDATE targets
		SET status = 'pending',
		    last_error = ?,
		    retry_count = ?,
		    queued_at = ?,
		    updated_at = ?
		WHERE id = ?
	`, errorMsg, retryCount, now, now, id)
}

// MarkTargetFailed marks a target as permanently failed
func (db *DB) MarkTargetFailed(ctx context.Context, id int64, errorMsg string, retryCount int) error {
	return db.updateTarget(ctx, "failed", `
		UPDATE targets
		SET status = 'failed',
		    last_error = ?,
		    retry_count = ?,
		    updated_at = ?
		WHERE id = ?
	`, errorMsg, retryCount, time.Now().UTC(), id)
}

func (db *DB) updateTarget(ctx context.Context, status, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark target %s: %w", status, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("target: %w", ErrNotFound)
	}
	return nil
}

// ResetStuckProcessing resets targets stuck in "processing" state.
// Called on daemon startup to recover from crashes.
func (db *DB) ResetStuckProcessing(ctx context.Context) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `
		UPDATE targets
		SET status = 'pending'
		WHERE status = 'processing'
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck processing: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Reset stuck targets", "count", rows)
	}
	return rows, nil
}

// DeleteTarget removes a target from the queue
func (db *DB) DeleteTarget(ctx context.Context, location string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM targets WHERE location = ?", location)
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("target %s: %w", location, ErrNotFound)
	}
	return nil
}

// CountTargetsByStatus returns counts of targets grouped by status
func (db *DB) CountTargetsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `
SELECT status, COUNT(*) as count
FROM targets
GROUP BY status
`)
	if err != nil {
		return nil, fmt.Errorf("failed to count targets: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
