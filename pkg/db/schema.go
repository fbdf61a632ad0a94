package db

// Schema version for migration tracking
const SchemaVersion = "1.1.0"

// DDL statements for database initialization
const (
	// Meta table stores configuration and version info
	CreateMetaTable = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	// Targets table is the analysis work queue: local directories or repository URLs
	CreateTargetsTable = `
CREATE TABLE IF NOT EXISTS targets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    location TEXT UNIQUE NOT NULL,
    kind TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    last_analysis_id TEXT,
    queued_at DATETIME,
    updated_at DATETIME
);`

	// Index for queue queries
	CreateTargetsStatusIndex = `
CREATE INDEX IF NOT EXISTS idx_targets_status ON targets(status, queued_at);`

	// Analyses table keeps every stored result, full JSON included
	CreateAnalysesTable = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    directory TEXT NOT NULL,
    analyzed_at TEXT NOT NULL,
    project_name TEXT NOT NULL,
    file_count INTEGER NOT NULL,
    link_count INTEGER NOT NULL,
    result_json TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

	// Index for latest-analysis-per-target lookups
	CreateAnalysesTargetIndex = `
CREATE INDEX IF NOT EXISTS idx_analyses_target ON analyses(target, created_at);`

	// Nodes table flattens graph nodes for querying
	CreateNodesTable = `
CREATE TABLE IF NOT EXISTS nodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    analysis_id TEXT NOT NULL,
    path TEXT NOT NULL,
    label TEXT NOT NULL,
    language TEXT NOT NULL,
    role TEXT NOT NULL,
    summary TEXT NOT NULL,
    size INTEGER NOT NULL,
    content_hash TEXT NOT NULL DEFAULT '',
    UNIQUE(analysis_id, path),
    FOREIGN KEY(analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
);`

	// Index for filtering by role within an analysis
	CreateNodesRoleIndex = `
CREATE INDEX IF NOT EXISTS idx_nodes_role ON nodes(analysis_id, role);`

	// Links table stores resolved dependency edges in emission order
	CreateLinksTable = `
CREATE TABLE IF NOT EXISTS links (
    analysis_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    PRIMARY KEY (analysis_id, ordinal),
    FOREIGN KEY(analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
);`

	// Index for finding all edges from a source node
	CreateLinksSourceIndex = `
CREATE INDEX IF NOT EXISTS idx_links_source ON links(analysis_id, source);`

	// Index for finding all edges to a target node
	CreateLinksTargetIndex = `
CREATE INDEX IF NOT EXISTS idx_links_target ON links(analysis_id, target);`

	// Vec_nodes virtual table holds content fingerprints for similarity search
	// Note: Dimension must be specified at creation time
	CreateVecNodesTableTemplate = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_nodes USING vec0(
    node_id INTEGER PRIMARY KEY,
    embedding FLOAT[%d] distance_metric=cosine
);`
)

// pragmas run on open before the schema is created. foreign_keys and
// busy_timeout are also in the DSN so every pooled connection gets them.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA wal_autocheckpoint=1000",
	"PRAGMA foreign_keys=ON",
}

// MetaKeys are standard keys stored in the meta table
const (
	MetaKeySchemaVersion = "schema_version"
	MetaKeyCreatedAt     = "created_at"
	MetaKeyLastAnalyzed  = "last_analyzed"
	MetaKeyEmbeddingDim  = "embedding_dimension"
)

// Target statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Target kinds
const (
	KindLocal  = "local"
	KindGitHub = "github"
)
