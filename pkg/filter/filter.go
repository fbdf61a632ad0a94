package filter

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoreDirs are directory names that are never descended into
var DefaultIgnoreDirs = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	".next",
	"coverage",
	"temp",
	".vercel",
}

// DefaultIgnoreFiles are file names that are always skipped
var DefaultIgnoreFiles = []string{
	".DS_Store",
	"package-lock.json",
	"yarn.lock",
	".gitignore",
	// analyzer outputs, so re-running over the same tree is stable
	"codeverse-data.json",
	"manifest.json",
	".codeverse.yaml",
}

// Options configures a Filter on top of the default ignore sets
type Options struct {
	ExcludeDirs  []string // Extra directory names to prune
	ExcludeFiles []string // Extra file names to skip
	ExcludeGlobs []string // doublestar globs over root-relative slash paths

	// Regex on root-relative slash paths
	Blacklist []string // Reject patterns (applied first)
	Whitelist []string // Exception patterns (override blacklist)
}

// Filter decides which entries of a tree take part in an analysis.
// It is immutable after construction and safe for concurrent use.
type Filter struct {
	dirs      map[string]struct{}
	files     map[string]struct{}
	globs     []string
	blacklist []*regexp.Regexp
	whitelist []*regexp.Regexp
}

// New compiles a Filter. Invalid globs or regexes are an error.
func New(opts Options) (*Filter, error) {
	f := &Filter{
		dirs:  make(map[string]struct{}),
		files: make(map[string]struct{}),
	}
	for _, d := range append(append([]string{}, DefaultIgnoreDirs...), opts.ExcludeDirs...) {
		f.dirs[d] = struct{}{}
	}
	for _, n := range append(append([]string{}, DefaultIgnoreFiles...), opts.ExcludeFiles...) {
		f.files[n] = struct{}{}
	}

	for _, g := range opts.ExcludeGlobs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid exclude glob %q", g)
		}
		f.globs = append(f.globs, g)
	}

	var err error
	if f.blacklist, err = compileAll(opts.Blacklist); err != nil {
		return nil, fmt.Errorf("invalid blacklist: %w", err)
	}
	if f.whitelist, err = compileAll(opts.Whitelist); err != nil {
		return nil, fmt.Errorf("invalid whitelist: %w", err)
	}

	return f, nil
}

// Default returns a Filter with only the built-in ignore sets
func Default() *Filter {
	f, _ := New(Options{})
	return f
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// SkipDir reports whether a directory should be pruned.
// rel is the root-relative slash path, name its base name.
func (f *Filter) SkipDir(rel, name string) bool {
	if _, ok := f.dirs[name]; ok {
		return true
	}
	return f.matchesGlob(rel)
}

// SkipFile reports whether a file should be left out of the analysis
func (f *Filter) SkipFile(rel, name string) bool {
	if _, ok := f.files[name]; ok {
		return true
	}
	if f.matchesGlob(rel) {
		return true
	}
	return !ShouldIndexFile(rel, f.blacklist, f.whitelist)
}

func (f *Filter) matchesGlob(rel string) bool {
	for _, g := range f.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// ShouldIndexFile checks if a file should be indexed
// Returns: NOT matches_blacklist OR matches_whitelist
func ShouldIndexFile(path string, blacklist, whitelist []*regexp.Regexp) bool {
	var matched *regexp.Regexp
	for _, re := range blacklist {
		if re.MatchString(path) {
			matched = re
			break
		}
	}
	if matched == nil {
		return true
	}

	for _, re := range whitelist {
		if re.MatchString(path) {
			slog.Debug("Whitelist exception matched - allowing file", "pattern", re.String(), "path", path)
			return true
		}
	}

	slog.Debug("Rejecting file", "path", path, "blacklist_pattern", matched.String())
	return false
}
