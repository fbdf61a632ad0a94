package walker

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/haigpapa/Chromatoverse/pkg/filter"
)

// Walk enumerates the files under root that pass f.
//
// Paths are root-relative with forward slashes, depth-first in lexical
// order of directory entries. Ignored directories are never descended
// into. A subdirectory that cannot be read is logged and treated as empty.
// Only a root that cannot be read at all is an error.
func Walk(root string, f *filter.Filter) ([]string, error) {
	if f == nil {
		f = filter.Default()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	files := []string{}
	walkEntries(root, "", entries, f, &files)
	return files, nil
}

func walkEntries(root, rel string, entries []os.DirEntry, f *filter.Filter, out *[]string) {
	// os.ReadDir returns entries sorted by filename
	for _, entry := range entries {
		name := entry.Name()
		childRel := name
		if rel != "" {
			childRel = path.Join(rel, name)
		}

		switch {
		case entry.IsDir():
			if f.SkipDir(childRel, name) {
				slog.Debug("Skipping ignored directory", "path", childRel)
				continue
			}
			children, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(childRel)))
			if err != nil {
				slog.Warn("Cannot read directory", "path", childRel, "error", err)
				continue
			}
			walkEntries(root, childRel, children, f, out)

		case entry.Type().IsRegular():
			if f.SkipFile(childRel, name) {
				continue
			}
			*out = append(*out, childRel)
		}
	}
}
