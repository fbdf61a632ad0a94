package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandHome replaces a leading "~/" (or a bare "~") with the user's home.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ResolveRelativePath interprets path the way config files do: "~" is the
// home directory and anything relative hangs off configDir.
func ResolveRelativePath(configDir, path string) (string, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(configDir, expanded)
	}
	return filepath.Clean(expanded), nil
}

// AbsPath expands "~" and resolves path against the working directory.
// CLI arguments go through it.
func AbsPath(path string) (string, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// resolvePaths anchors the profile's temp dir and database at configDir.
func (p *Profile) resolvePaths(configDir string) error {
	for _, field := range []*string{&p.Server.TempDir, &p.Daemon.DBPath} {
		if *field == "" {
			continue
		}
		resolved, err := ResolveRelativePath(configDir, *field)
		if err != nil {
			return err
		}
		*field = resolved
	}
	return nil
}
