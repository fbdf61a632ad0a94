package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// localKeys are the only settings a .codeverse.yaml may carry.
var localKeys = []string{"exclude_dirs", "exclude_globs", "blacklist"}

// Loader reads global and local configuration through a FileSystem.
type Loader struct {
	fs FileSystem
}

// NewLoader returns a Loader over fs.
func NewLoader(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// NewDefaultLoader returns a Loader over the real disk.
func NewDefaultLoader() *Loader {
	return NewLoader(OSFileSystem{})
}

// GlobalPath is ~/.codeverse/config.yaml.
func (l *Loader) GlobalPath() (string, error) {
	home, err := l.fs.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDir, GlobalFile), nil
}

// LoadGlobal reads the config at GlobalPath.
func (l *Loader) LoadGlobal() (*GlobalConfig, error) {
	path, err := l.GlobalPath()
	if err != nil {
		return nil, err
	}
	return l.LoadGlobalFromPath(path)
}

// LoadGlobalFromPath parses a global config file, fills defaults into
// every profile and anchors relative paths at the file's directory.
func (l *Loader) LoadGlobalFromPath(path string) (*GlobalConfig, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var global GlobalConfig
	if err := yaml.Unmarshal(data, &global); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if global.ActiveProfile == "" {
		return nil, errors.New("active_profile not specified in config")
	}
	if _, ok := global.Profiles[global.ActiveProfile]; !ok {
		return nil, fmt.Errorf("active profile %s not found in config", global.ActiveProfile)
	}

	base := filepath.Dir(path)
	for name, p := range global.Profiles {
		if p == nil {
			p = &Profile{}
			global.Profiles[name] = p
		}
		applyDefaults(p)
		if err := p.resolvePaths(base); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	return &global, nil
}

// LoadGlobalOrDefault loads path, or GlobalPath when path is empty. A
// missing file yields the built-in defaults.
func (l *Loader) LoadGlobalOrDefault(path string) (*GlobalConfig, error) {
	if path == "" {
		p, err := l.GlobalPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := l.fs.Stat(path); err == nil {
		return l.LoadGlobalFromPath(path)
	}

	global := DefaultGlobalConfig()
	if err := global.Active().resolvePaths(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return global, nil
}

// WriteDefault writes DefaultGlobalConfig to path. It refuses to
// overwrite an existing file.
func (l *Loader) WriteDefault(path string) error {
	if _, err := l.fs.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	data, err := yaml.Marshal(DefaultGlobalConfig())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := l.fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := l.fs.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// FindLocal returns the nearest .codeverse.yaml at or above startDir, or
// "" when there is none.
func (l *Loader) FindLocal(startDir string) (string, error) {
	dir, err := l.fs.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for dir = filepath.Clean(dir); ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, LocalFile)
		if _, err := l.fs.Stat(candidate); err == nil {
			return candidate, nil
		}
		if filepath.Dir(dir) == dir {
			return "", nil
		}
	}
}

// LoadLocal parses a .codeverse.yaml. Keys other than localKeys are
// rejected so a project file cannot switch providers or paths.
func (l *Loader) LoadLocal(path string) (*LocalConfig, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local config: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse local config: %w", err)
	}
	for key := range raw {
		if !slices.Contains(localKeys, key) {
			return nil, fmt.Errorf("local config %s: key %q is not allowed", path, key)
		}
	}

	var local LocalConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("failed to parse local config: %w", err)
	}
	return &local, nil
}

// GetForDir merges the active profile with the local file governing dir.
func (l *Loader) GetForDir(dir string, global *GlobalConfig) (*MergedConfig, error) {
	localPath, err := l.FindLocal(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find local config: %w", err)
	}
	if localPath == "" {
		return MergeConfig(global, nil)
	}

	local, err := l.LoadLocal(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config: %w", err)
	}
	merged, err := MergeConfig(global, local)
	if err != nil {
		return nil, err
	}
	merged.LocalConfigPath = localPath
	return merged, nil
}

// MergeConfig layers local on top of the active profile. A local file
// can only add exclusions; the profile's own slices are never shared
// with the result.
func MergeConfig(global *GlobalConfig, local *LocalConfig) (*MergedConfig, error) {
	profile := global.Profiles[global.ActiveProfile]
	if profile == nil {
		return nil, fmt.Errorf("active profile %s not found", global.ActiveProfile)
	}

	merged := &MergedConfig{Profile: *profile, ProfileName: global.ActiveProfile}
	merged.ExcludeFiles = slices.Clone(profile.ExcludeFiles)
	merged.Whitelist = slices.Clone(profile.Whitelist)

	var add LocalConfig
	if local != nil {
		add = *local
	}
	merged.ExcludeDirs = slices.Concat(profile.ExcludeDirs, add.ExcludeDirs)
	merged.ExcludeGlobs = slices.Concat(profile.ExcludeGlobs, add.ExcludeGlobs)
	merged.Blacklist = slices.Concat(profile.Blacklist, add.Blacklist)
	return merged, nil
}
