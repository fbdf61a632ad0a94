package loader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestLoadPreservesOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var paths []string
	for _, name := range []string{"e.js", "d.js", "c.js", "b.js", "a.js", "src/x.ts"} {
		writeFile(t, root, name, "// "+name)
		paths = append(paths, name)
	}

	records, err := Load(context.Background(), root, paths, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, records, len(paths))

	for i, r := range records {
		assert.Equal(t, paths[i], r.Path)
		assert.Equal(t, "// "+paths[i], r.Content)
		assert.Equal(t, xxhash.Sum64String("// "+paths[i]), r.Hash)
	}
}

func TestLoadOmitsMissingFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "a")
	writeFile(t, root, "c.js", "c")

	records, err := Load(context.Background(), root, []string{"a.js", "gone.js", "c.js"}, Options{})
	require.NoError(t, err)

	var got []string
	for _, r := range records {
		got = append(got, r.Path)
	}
	assert.Equal(t, []string{"a.js", "c.js"}, got)
}

func TestLoadOmitsUnreadableFiles(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	writeFile(t, root, "ok.js", "ok")
	writeFile(t, root, "secret.js", "nope")
	require.NoError(t, os.Chmod(filepath.Join(root, "secret.js"), 0000))

	records, err := Load(context.Background(), root, []string{"ok.js", "secret.js"}, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok.js", records[0].Path)
}

func TestLoadMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.js", "12345")
	writeFile(t, root, "large.js", "1234567890")

	records, err := Load(context.Background(), root, []string{"small.js", "large.js"}, Options{MaxFileSize: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "small.js", records[0].Path)
}

func TestLoadSkipBinary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "logo.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	writeFile(t, root, "app.js", "export default 1")

	records, err := Load(context.Background(), root, []string{"logo.png", "app.js"}, Options{SkipBinary: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "app.js", records[0].Path)

	records, err = Load(context.Background(), root, []string{"logo.png", "app.js"}, Options{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeFile(t, root, "a.js", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, root, []string{"a.js"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"javascript", []byte("import x from './x'\n"), false},
		{"json", []byte(`{"name": "app"}`), false},
		{"html", []byte("<!DOCTYPE html><html></html>"), false},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), true},
		{"zip", []byte("PK\x03\x04\x14\x00\x00\x00"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinary(tt.data))
		})
	}
}
