package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// memFS is an in-memory FileSystem. Directories exist implicitly for
// every file and explicitly after MkdirAll.
type memFS struct {
	files   map[string][]byte
	dirs    map[string]bool
	homeDir string
}

func newMemFS() *memFS {
	return &memFS{
		files:   map[string][]byte{},
		dirs:    map[string]bool{},
		homeDir: "/home/testuser",
	}
}

func (m *memFS) add(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
}

func (m *memFS) WriteFile(path string, data []byte, _ fs.FileMode) error {
	if dir := filepath.Dir(path); !m.dirs[dir] {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrNotExist}
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) MkdirAll(path string, _ fs.FileMode) error {
	for {
		m.dirs[path] = true
		parent := filepath.Dir(path)
		if parent == path {
			return nil
		}
		path = parent
	}
}

func (m *memFS) Stat(path string) (fs.FileInfo, error) {
	if m.dirs[path] {
		return memInfo{name: filepath.Base(path), dir: true}, nil
	}
	if _, ok := m.files[path]; ok {
		return memInfo{name: filepath.Base(path)}, nil
	}
	return nil, os.ErrNotExist
}

func (m *memFS) Abs(path string) (string, error) { return filepath.Clean(path), nil }
func (m *memFS) UserHomeDir() (string, error)    { return m.homeDir, nil }

type memInfo struct {
	name string
	dir  bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return 0 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
