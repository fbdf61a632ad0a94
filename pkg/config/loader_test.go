package config

import (
	"strings"
	"testing"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/graph"
	"github.com/haigpapa/Chromatoverse/pkg/llm"
)

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name          string
		global        *GlobalConfig
		local         *LocalConfig
		wantDirs      []string
		wantGlobs     []string
		wantBlacklist []string
		wantWhitelist []string
		wantErr       bool
	}{
		{
			name: "no local config",
			global: &GlobalConfig{
				ActiveProfile: "web",
				Profiles: map[string]*Profile{
					"web": {
						ExcludeDirs: []string{"vendor"},
						Blacklist:   []string{`.*\.secret$`},
						Whitelist:   []string{`.*important\.secret$`},
					},
				},
			},
			local:         nil,
			wantDirs:      []string{"vendor"},
			wantGlobs:     []string{},
			wantBlacklist: []string{`.*\.secret$`},
			wantWhitelist: []string{`.*important\.secret$`},
		},
		{
			name: "local adds to excludes and blacklist",
			global: &GlobalConfig{
				ActiveProfile: "web",
				Profiles: map[string]*Profile{
					"web": {
						ExcludeDirs:  []string{"vendor"},
						ExcludeGlobs: []string{"**/*.snap"},
						Blacklist:    []string{`.*\.secret$`},
					},
				},
			},
			local: &LocalConfig{
				ExcludeDirs:  []string{"fixtures", "storybook-static"},
				ExcludeGlobs: []string{"docs/**"},
				Blacklist:    []string{`.*\.tmp$`},
			},
			wantDirs:      []string{"vendor", "fixtures", "storybook-static"},
			wantGlobs:     []string{"**/*.snap", "docs/**"},
			wantBlacklist: []string{`.*\.secret$`, `.*\.tmp$`},
			wantWhitelist: []string{},
		},
		{
			name: "missing active profile",
			global: &GlobalConfig{
				ActiveProfile: "nope",
				Profiles:      map[string]*Profile{"web": {}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeConfig(tt.global, tt.local)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MergeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !stringSlicesEqual(got.ExcludeDirs, tt.wantDirs) {
				t.Errorf("ExcludeDirs = %v, want %v", got.ExcludeDirs, tt.wantDirs)
			}
			if !stringSlicesEqual(got.ExcludeGlobs, tt.wantGlobs) {
				t.Errorf("ExcludeGlobs = %v, want %v", got.ExcludeGlobs, tt.wantGlobs)
			}
			if !stringSlicesEqual(got.Blacklist, tt.wantBlacklist) {
				t.Errorf("Blacklist = %v, want %v", got.Blacklist, tt.wantBlacklist)
			}
			if !stringSlicesEqual(got.Whitelist, tt.wantWhitelist) {
				t.Errorf("Whitelist = %v, want %v", got.Whitelist, tt.wantWhitelist)
			}
			if got.ProfileName != tt.global.ActiveProfile {
				t.Errorf("ProfileName = %s, want %s", got.ProfileName, tt.global.ActiveProfile)
			}
		})
	}
}

func TestMergeConfigDoesNotMutateGlobal(t *testing.T) {
	profile := &Profile{ExcludeDirs: make([]string, 1, 10)}
	profile.ExcludeDirs[0] = "vendor"
	global := &GlobalConfig{ActiveProfile: "web", Profiles: map[string]*Profile{"web": profile}}

	if _, err := MergeConfig(global, &LocalConfig{ExcludeDirs: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	merged, err := MergeConfig(global, &LocalConfig{ExcludeDirs: []string{"b"}})
	if err != nil {
		t.Fatal(err)
	}
	if !stringSlicesEqual(merged.ExcludeDirs, []string{"vendor", "b"}) {
		t.Errorf("ExcludeDirs = %v, want [vendor b]", merged.ExcludeDirs)
	}
	if len(profile.ExcludeDirs) != 1 {
		t.Errorf("global profile was modified: %v", profile.ExcludeDirs)
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	memfs := newMemFS()
	memfs.add("/etc/codeverse/config.yaml", `
version: "1"
active_profile: "ai"
profiles:
  ai:
    resolver: suffix
    dedupe_links: true
    max_file_size: 1048576
    classifier:
      provider: openai
      model: gpt-4o-mini
      timeout: 45s
    server:
      addr: ":8080"
      cache_ttl: 1h
    daemon:
      db_path: ./data/codeverse.db
`)

	global, err := NewLoader(memfs).LoadGlobalFromPath("/etc/codeverse/config.yaml")
	if err != nil {
		t.Fatalf("LoadGlobalFromPath failed: %v", err)
	}

	p := global.Active()
	if p.Resolver != graph.StrategySuffix || !p.DedupeLinks || p.MaxFileSize != 1048576 {
		t.Errorf("pipeline settings not parsed: %+v", p)
	}
	if p.Classifier.Provider != llm.ProviderOpenAI || p.Classifier.Timeout != 45*time.Second {
		t.Errorf("classifier settings not parsed: %+v", p.Classifier)
	}
	if p.Server.Addr != ":8080" || p.Server.CacheTTL != time.Hour {
		t.Errorf("server settings not parsed: %+v", p.Server)
	}
	// Defaults fill the rest
	if p.Server.CacheSize != 32 || p.Daemon.MaxRetries != 3 || p.Concurrency != 4 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.Daemon.DBPath != "/etc/codeverse/data/codeverse.db" {
		t.Errorf("DBPath = %s, want path relative to config dir", p.Daemon.DBPath)
	}
}

func TestLoadGlobalConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing active profile", "profiles:\n  a: {}\n", "active_profile not specified"},
		{"unknown active profile", "active_profile: b\nprofiles:\n  a: {}\n", "not found"},
		{"invalid yaml", "active_profile: [\n", "failed to parse"},
		{"bad duration", "active_profile: a\nprofiles:\n  a:\n    daemon:\n      poll_interval: soon\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := newMemFS()
			memfs.add("/c.yaml", tt.content)
			_, err := NewLoader(memfs).LoadGlobalFromPath("/c.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}

	if _, err := NewLoader(newMemFS()).LoadGlobalFromPath("/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadLocalConfigRejectsUnknownKeys(t *testing.T) {
	memfs := newMemFS()
	memfs.add("/p/.codeverse.yaml", "whitelist: [\".*\"]\n")

	_, err := NewLoader(memfs).LoadLocal("/p/.codeverse.yaml")
	if err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("error = %v, want key not allowed", err)
	}

	memfs.add("/q/.codeverse.yaml", "exclude_dirs: [fixtures]\n")
	local, err := NewLoader(memfs).LoadLocal("/q/.codeverse.yaml")
	if err != nil {
		t.Fatalf("LoadLocal failed: %v", err)
	}
	if !stringSlicesEqual(local.ExcludeDirs, []string{"fixtures"}) {
		t.Errorf("ExcludeDirs = %v", local.ExcludeDirs)
	}
}

func TestFindLocalConfig(t *testing.T) {
	memfs := newMemFS()
	memfs.add("/home/u/project/.codeverse.yaml", "")

	tests := []struct {
		start string
		want  string
	}{
		{"/home/u/project", "/home/u/project/.codeverse.yaml"},
		{"/home/u/project/src/components", "/home/u/project/.codeverse.yaml"},
		{"/home/u/other", ""},
	}
	for _, tt := range tests {
		got, err := NewLoader(memfs).FindLocal(tt.start)
		if err != nil {
			t.Fatalf("FindLocal(%s) failed: %v", tt.start, err)
		}
		if got != tt.want {
			t.Errorf("FindLocal(%s) = %q, want %q", tt.start, got, tt.want)
		}
	}
}

func TestLoadGlobalOrDefault(t *testing.T) {
	memfs := newMemFS()
	loader := NewLoader(memfs)

	global, err := loader.LoadGlobalOrDefault("")
	if err != nil {
		t.Fatalf("LoadGlobalOrDefault failed: %v", err)
	}
	if global.ActiveProfile != DefaultProfile {
		t.Errorf("ActiveProfile = %s, want %s", global.ActiveProfile, DefaultProfile)
	}
	if got := global.Active().Classifier.Provider; got != llm.ProviderHeuristic {
		t.Errorf("default provider = %s, want heuristic", got)
	}
	if !strings.HasSuffix(global.Active().Daemon.DBPath, "/.codeverse/codeverse.db") {
		t.Errorf("default DBPath = %s", global.Active().Daemon.DBPath)
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	memfs := newMemFS()
	loader := NewLoader(memfs)

	path, err := loader.GlobalPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/home/testuser/.codeverse/config.yaml" {
		t.Errorf("GlobalPath = %s", path)
	}

	if err := loader.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if err := loader.WriteDefault(path); err == nil {
		t.Error("expected error when config already exists")
	}

	global, err := loader.LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal after WriteDefault failed: %v", err)
	}
	p := global.Active()
	def := NewDefaultProfile()
	if p.Server.CacheTTL != def.Server.CacheTTL || p.Daemon.PollInterval != def.Daemon.PollInterval {
		t.Errorf("durations did not round-trip: %+v", p)
	}
}

func TestSelectProfile(t *testing.T) {
	global := &GlobalConfig{ActiveProfile: "a", Profiles: map[string]*Profile{"a": {}, "b": {}}}
	if err := global.Select("b"); err != nil || global.ActiveProfile != "b" {
		t.Errorf("Select(b) = %v, active %s", err, global.ActiveProfile)
	}
	if err := global.Select(""); err != nil || global.ActiveProfile != "b" {
		t.Errorf("Select(\"\") should be a no-op")
	}
	if err := global.Select("c"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestAnalyzerConfig(t *testing.T) {
	merged := &MergedConfig{Profile: Profile{
		ExcludeDirs: []string{"fixtures"},
		Resolver:    graph.StrategySuffix,
		OmitContent: true,
		Concurrency: 2,
		MaxFileSize: 100,
	}}
	cfg, err := merged.AnalyzerConfig()
	if err != nil {
		t.Fatalf("AnalyzerConfig failed: %v", err)
	}
	if !cfg.Filter.SkipDir("src/fixtures", "fixtures") {
		t.Error("profile exclude_dirs not applied to filter")
	}
	if cfg.Resolver != graph.StrategySuffix || !cfg.OmitContent || cfg.MaxConcurrency != 2 || cfg.Load.MaxFileSize != 100 {
		t.Errorf("unexpected analyzer config: %+v", cfg)
	}

	bad := &MergedConfig{Profile: Profile{Blacklist: []string{"("}}}
	if _, err := bad.AnalyzerConfig(); err == nil {
		t.Error("expected error for invalid blacklist regex")
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
