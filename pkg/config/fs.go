package config

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the part of the os package the loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	UserHomeDir() (string, error)
}

// OSFileSystem is FileSystem on the real disk.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }
func (OSFileSystem) Stat(path string) (fs.FileInfo, error)        { return os.Stat(path) }
func (OSFileSystem) Abs(path string) (string, error)              { return filepath.Abs(path) }
func (OSFileSystem) UserHomeDir() (string, error)                 { return os.UserHomeDir() }
