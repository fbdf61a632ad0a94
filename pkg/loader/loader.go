package loader

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel reads when Options.Concurrency is unset
const DefaultConcurrency = 8

// FileRecord is one scanned file with its full text
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Hash    uint64 `json:"-"`
}

// Options controls which files are loaded
type Options struct {
	Concurrency int
	MaxFileSize int64 // 0 = unlimited
	SkipBinary  bool
}

// Load reads the given root-relative paths under root.
//
// Records come back in input order. Unreadable, oversized and (optionally)
// binary files are logged and omitted. The only error is ctx cancellation.
func Load(ctx context.Context, root string, paths []string, opts Options) ([]FileRecord, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	slots := make([]*FileRecord, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rel := range paths {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			slots[i] = readOne(root, rel, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]FileRecord, 0, len(paths))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, nil
}

func readOne(root, rel string, opts Options) *FileRecord {
	abs := filepath.Join(root, filepath.FromSlash(rel))

	if opts.MaxFileSize > 0 {
		info, err := os.Stat(abs)
		if err != nil {
			slog.Warn("Cannot stat file", "path", rel, "error", err)
			return nil
		}
		if info.Size() > opts.MaxFileSize {
			slog.Info("Skipping oversized file", "path", rel, "size", info.Size(), "max", opts.MaxFileSize)
			return nil
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		slog.Warn("Cannot read file", "path", rel, "error", err)
		return nil
	}

	if opts.SkipBinary && IsBinary(data) {
		slog.Debug("Skipping binary file", "path", rel)
		return nil
	}

	return &FileRecord{
		Path:    rel,
		Content: string(data),
		Hash:    xxhash.Sum64(data),
	}
}

// IsBinary sniffs the first 512 bytes of data
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	contentType := http.DetectContentType(head)

	// Skip binary types but allow text-based application formats
	if strings.HasPrefix(contentType, "application/") {
		for _, a := range []string{"json", "xml", "javascript", "x-sh", "x-perl", "x-python"} {
			if strings.Contains(contentType, a) {
				return false
			}
		}
		return true
	}

	return !strings.HasPrefix(contentType, "text/")
}
