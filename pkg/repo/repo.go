// Package repo validates GitHub repository URLs and manages the short-lived
// shallow checkouts that remote analyses run against.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Sentinel errors callers map to user-facing responses
var (
	ErrInvalidURL   = errors.New("invalid GitHub URL")
	ErrNotFound     = errors.New("repository not found")
	ErrAccessDenied = errors.New("access denied")
)

var (
	urlPattern  = regexp.MustCompile(`^https?://(www\.)?github\.com/[\w-]+/[\w.-]+`)
	namePattern = regexp.MustCompile(`github\.com/[\w-]+/([\w.-]+)`)
)

// ValidateURL checks that u looks like a public GitHub repository URL
func ValidateURL(u string) error {
	if !urlPattern.MatchString(u) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, u)
	}
	return nil
}

// Name extracts the repository name from u, without a trailing ".git"
func Name(u string) (string, error) {
	m := namePattern.FindStringSubmatch(u)
	if m == nil {
		return "", fmt.Errorf("%w: no repository name in %q", ErrInvalidURL, u)
	}
	name := strings.TrimSuffix(m[1], ".git")
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: no repository name in %q", ErrInvalidURL, u)
	}
	return name, nil
}

// Cloner fetches a repository into dest
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// GitCloner shells out to the git binary for a shallow clone
type GitCloner struct {
	Binary string        // defaults to "git"
	Depth  int           // defaults to 1
	Env    []string      // extra environment, appended to os.Environ()
	Runner CommandRunner // nil uses exec
}

// CommandRunner runs a command and returns its combined output
type CommandRunner func(ctx context.Context, name string, args []string, env []string) ([]byte, error)

func execRunner(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// Clone implements Cloner
func (g GitCloner) Clone(ctx context.Context, url, dest string) error {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	depth := g.Depth
	if depth <= 0 {
		depth = 1
	}
	run := g.Runner
	if run == nil {
		run = execRunner
	}

	// Never block on a credential prompt for private repositories
	env := append([]string{"GIT_TERMINAL_PROMPT=0"}, g.Env...)
	args := []string{"clone", "--depth", fmt.Sprint(depth), "--quiet", url, dest}

	out, err := run(ctx, bin, args, env)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("git clone %s: %w", url, ctx.Err())
		}
		return classifyCloneError(url, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// classifyCloneError maps git output onto the sentinel errors
func classifyCloneError(url, output string, err error) error {
	msg := strings.ToLower(output + " " + err.Error())
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return fmt.Errorf("git clone %s: %w: %s", url, ErrNotFound, output)
	case strings.Contains(msg, "authentication") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "could not read username"):
		return fmt.Errorf("git clone %s: %w: %s", url, ErrAccessDenied, output)
	default:
		return fmt.Errorf("git clone %s: %w: %s", url, err, output)
	}
}

// Workspace is a temporary checkout of one repository
type Workspace struct {
	Dir  string
	Name string
	URL  string

	once sync.Once
	err  error
}

// Close removes the checkout. Calling it more than once is safe.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = removeDir(w.Dir)
	})
	return w.err
}

// Checkout validates url and clones it into {tempDir}/{name}-{unixmillis}.
// The directory is removed again when the clone fails.
func Checkout(ctx context.Context, cloner Cloner, tempDir, url string) (*Workspace, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	name, err := Name(url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	dir := filepath.Join(tempDir, fmt.Sprintf("%s-%d", name, time.Now().UnixMilli()))
	ws := &Workspace{Dir: dir, Name: name, URL: url}

	slog.Info("Cloning repository", "url", url, "dir", dir)
	start := time.Now()
	if err := cloner.Clone(ctx, url, dir); err != nil {
		ws.Close()
		return nil, err
	}
	slog.Info("Clone complete", "url", url, "duration", time.Since(start))

	return ws, nil
}

// CleanupStale removes every subdirectory of tempDir left by earlier runs
func CleanupStale(tempDir string) error {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read temp dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := removeDir(filepath.Join(tempDir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		slog.Debug("Startup cleanup complete", "dir", tempDir)
	}
	return errors.Join(errs...)
}

func removeDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Error("Failed to clean up checkout", "dir", dir, "error", err)
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	slog.Debug("Cleaned up checkout", "dir", dir)
	return nil
}
