// Package db persists analyses, the target queue and node fingerprints in
// a single SQLite file with the sqlite-vec extension loaded.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrNoVectors is returned by similarity search when vec_nodes is disabled
var ErrNoVectors = errors.New("similarity search unavailable: vec_nodes table not created")

// DB is the Codeverse store.
type DB struct {
	conn         *sql.DB
	path         string
	embeddingDim int
	hasVecTable  bool
}

// Config holds database configuration
type Config struct {
	Path         string // database file, created with mode 0600
	EmbeddingDim int    // fingerprint width; fixed for the life of the file
	SkipVecTable bool   // no vec_nodes, for builds without sqlite-vec
}

func (c Config) validate() error {
	if c.Path == "" {
		return errors.New("database path cannot be empty")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	return nil
}

// Open opens the database at cfg.Path, creating or upgrading the schema.
func Open(cfg Config) (*DB, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	_, statErr := os.Stat(cfg.Path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	// Registers vec0 for every connection opened from here on.
	sqlite_vec.Auto()

	conn, err := sql.Open("sqlite3", "file:"+cfg.Path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; WAL lets the readers proceed.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn:         conn,
		path:         cfg.Path,
		embeddingDim: cfg.EmbeddingDim,
		hasVecTable:  !cfg.SkipVecTable,
	}
	if err := db.setup(fresh); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := os.Chmod(cfg.Path, 0600); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}
	return db, nil
}

// setup applies pragmas, creates missing tables and then either stamps a
// fresh file or upgrades an existing one.
func (db *DB) setup(fresh bool) error {
	for _, p := range pragmas {
		if _, err := db.conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	stmts := []string{
		CreateMetaTable,
		CreateTargetsTable,
		CreateTargetsStatusIndex,
		CreateAnalysesTable,
		CreateAnalysesTargetIndex,
		CreateNodesTable,
		CreateNodesRoleIndex,
		CreateLinksTable,
		CreateLinksSourceIndex,
		CreateLinksTargetIndex,
	}
	if db.hasVecTable {
		stmts = append(stmts, fmt.Sprintf(CreateVecNodesTableTemplate, db.embeddingDim))
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if fresh {
		err = db.stamp(tx)
	} else {
		err = db.upgrade(tx)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Close checkpoints the WAL and closes the pool. Calling it twice is safe.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("Failed to checkpoint WAL", "path", db.path, "error", err)
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// Path returns the database file path
func (db *DB) Path() string { return db.path }

// EmbeddingDim returns the configured fingerprint dimension
func (db *DB) EmbeddingDim() int { return db.embeddingDim }

// HasVecTable reports whether similarity search is available
func (db *DB) HasVecTable() bool { return db.hasVecTable }

// HealthCheck pings the file and confirms schema version and WAL mode.
func (db *DB) HealthCheck() error {
	if err := db.conn.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	version, err := db.GetMeta(MetaKeySchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %s, got %s", SchemaVersion, version)
	}

	var mode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("WAL mode not enabled, got: %s", mode)
	}
	return nil
}

// QueryRows runs a read-only query and returns the column names plus each
// row keyed by column. TEXT and BLOB values come back as strings.
func (db *DB) QueryRows(ctx context.Context, query string, args ...any) ([]string, []map[string]any, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []map[string]any
	cells := make([]any, len(cols))
	dest := make([]any, len(cols))
	for rows.Next() {
		for i := range cells {
			cells[i] = nil
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("query: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			if raw, ok := cells[i].([]byte); ok {
				row[name] = string(raw)
				continue
			}
			row[name] = cells[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("query: rows: %w", err)
	}
	return cols, out, nil
}
