package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haigpapa/Chromatoverse/pkg/loader"
)

// WriteFiles writes codeverse-data.json and manifest.json into dir
func WriteFiles(dir string, result *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, DataFile), result); err != nil {
		return err
	}

	manifest := result.Files
	if manifest == nil {
		manifest = []loader.FileRecord{}
	}
	return writeJSON(filepath.Join(dir, ManifestFile), manifest)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
