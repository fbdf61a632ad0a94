package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// migration upgrades a file stamped with version from.
type migration struct {
	from  string
	apply func(tx *sql.Tx) error
}

// migrations run in order. Each one leaves the file at the next entry's
// from version; the last leaves it at SchemaVersion.
var migrations = []migration{
	{from: "1.0.0", apply: addLastAnalysisID},
}

// GetMeta retrieves a metadata value by key
func (db *DB) GetMeta(key string) (string, error) {
	return readMeta(db.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key), key)
}

// SetMeta upserts a metadata value
func (db *DB) SetMeta(key, value string) error {
	if _, err := db.conn.Exec(upsertMeta, key, value); err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

const upsertMeta = `INSERT INTO meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func readMeta(row *sql.Row, key string) (string, error) {
	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta key %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// stamp records version, creation time and fingerprint width in a new file.
func (db *DB) stamp(tx *sql.Tx) error {
	values := [][2]string{
		{MetaKeySchemaVersion, SchemaVersion},
		{MetaKeyCreatedAt, time.Now().UTC().Format(time.RFC3339)},
		{MetaKeyEmbeddingDim, strconv.Itoa(db.embeddingDim)},
	}
	for _, kv := range values {
		if _, err := tx.Exec(upsertMeta, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to insert meta %s: %w", kv[0], err)
		}
	}
	return nil
}

// upgrade runs pending migrations and refuses a file whose fingerprint
// width differs from the configured one.
func (db *DB) upgrade(tx *sql.Tx) error {
	version, err := readMeta(tx.QueryRow("SELECT value FROM meta WHERE key = ?", MetaKeySchemaVersion), MetaKeySchemaVersion)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i, m := range migrations {
		if version != m.from {
			continue
		}
		next := SchemaVersion
		if i+1 < len(migrations) {
			next = migrations[i+1].from
		}
		if err := m.apply(tx); err != nil {
			return fmt.Errorf("migration to %s failed: %w", next, err)
		}
		if _, err := tx.Exec(upsertMeta, MetaKeySchemaVersion, next); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		version = next
	}

	dim, err := readMeta(tx.QueryRow("SELECT value FROM meta WHERE key = ?", MetaKeyEmbeddingDim), MetaKeyEmbeddingDim)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to read embedding dimension: %w", err)
	case dim != strconv.Itoa(db.embeddingDim):
		return fmt.Errorf("embedding dimension mismatch: database has %s, config has %d", dim, db.embeddingDim)
	}
	return nil
}

// addLastAnalysisID lets targets point at their newest analysis (1.1.0).
func addLastAnalysisID(tx *sql.Tx) error {
	var n int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('targets') WHERE name = 'last_analysis_id'`,
	).Scan(&n); err != nil {
		return fmt.Errorf("failed to inspect targets: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := tx.Exec("ALTER TABLE targets ADD COLUMN last_analysis_id TEXT"); err != nil {
		return fmt.Errorf("failed to alter table: %w", err)
	}
	return nil
}
