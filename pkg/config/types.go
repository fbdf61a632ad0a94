package config

import "time"

// GlobalConfig represents the main configuration file at ~/.codeverse/config.yaml
type GlobalConfig struct {
	Version       string              `yaml:"version"`
	ActiveProfile string              `yaml:"active_profile"`
	Profiles      map[string]*Profile `yaml:"profiles"`
}

// Profile represents a single configuration profile with all settings
type Profile struct {
	// Tree filtering, added to the built-in ignore sets
	ExcludeDirs  []string `yaml:"exclude_dirs,omitempty"`
	ExcludeFiles []string `yaml:"exclude_files,omitempty"`
	ExcludeGlobs []string `yaml:"exclude_globs,omitempty"` // doublestar globs over root-relative paths

	// File-level filtering (regex on root-relative paths)
	Blacklist []string `yaml:"blacklist,omitempty"` // Reject patterns (applied first)
	Whitelist []string `yaml:"whitelist,omitempty"` // Exception patterns (override blacklist)

	// Pipeline settings
	Resolver    string `yaml:"resolver,omitempty"` // "candidates" or "suffix"
	DedupeLinks bool   `yaml:"dedupe_links,omitempty"`
	OmitContent bool   `yaml:"omit_content,omitempty"`
	SkipBinary  bool   `yaml:"skip_binary,omitempty"`
	MaxFileSize int64  `yaml:"max_file_size,omitempty"` // bytes, 0 = unlimited
	Concurrency int    `yaml:"concurrency,omitempty"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Server     ServerConfig     `yaml:"server"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// ClassifierConfig selects the per-file classifier
type ClassifierConfig struct {
	Provider string        `yaml:"provider"` // heuristic, openai, gemini or ollama
	Model    string        `yaml:"model,omitempty"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	TempDir        string        `yaml:"temp_dir"`
	CacheSize      int           `yaml:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	CloneTimeout   time.Duration `yaml:"clone_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty"`
}

// DaemonConfig configures the queue worker and the tree watcher
type DaemonConfig struct {
	DBPath       string        `yaml:"db_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxRetries   int           `yaml:"max_retries"`
	Debounce     time.Duration `yaml:"debounce"`
}

// LocalConfig represents a project-local .codeverse.yaml file
// Only exclude_dirs, exclude_globs and blacklist are allowed
type LocalConfig struct {
	ExcludeDirs  []string `yaml:"exclude_dirs,omitempty"`  // Additional directories to skip
	ExcludeGlobs []string `yaml:"exclude_globs,omitempty"` // Additional globs to skip
	Blacklist    []string `yaml:"blacklist,omitempty"`     // Additional file patterns to reject
}

// MergedConfig represents the final runtime configuration after merging global + local
type MergedConfig struct {
	Profile

	// Metadata for tracking
	LocalConfigPath string // Path to the .codeverse.yaml that was used (empty if none)
	ProfileName     string // Name of the active profile
}
