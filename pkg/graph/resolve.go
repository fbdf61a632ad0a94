package graph

import (
	"path"
	"sort"
	"strings"
)

// Resolver maps a raw specifier seen in file `from` to a known node path
type Resolver interface {
	Resolve(from, specifier string) (string, bool)
}

// Resolver strategy names used in configuration
const (
	StrategyCandidates = "candidates"
	StrategySuffix     = "suffix"
)

// candidateSuffixes are tried in order after the bare path
var candidateSuffixes = []string{
	".js", ".jsx", ".ts", ".tsx",
	"/index.js", "/index.jsx", "/index.ts", "/index.tsx",
}

// Normalize resolves specifier against the directory of from and collapses
// dot segments. Absolute specifiers resolve from the repository root.
func Normalize(from, specifier string) string {
	if strings.HasPrefix(specifier, "/") {
		return strings.TrimPrefix(path.Clean(specifier), "/")
	}
	return path.Clean(path.Join(path.Dir(from), specifier))
}

// index is the set of known node paths plus a lexically sorted copy for scans
type index struct {
	known  map[string]struct{}
	sorted []string
}

func newIndex(paths []string) index {
	idx := index{known: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		if _, dup := idx.known[p]; dup {
			continue
		}
		idx.known[p] = struct{}{}
		idx.sorted = append(idx.sorted, p)
	}
	sort.Strings(idx.sorted)
	return idx
}

func (idx index) has(p string) bool {
	_, ok := idx.known[p]
	return ok
}

// suffixScan returns the lexically first known path that matches candidate
// on a path-segment boundary, in either direction. Each known path is also
// compared without its extension and, for index files, as its directory.
func (idx index) suffixScan(candidate string) (string, bool) {
	if candidate == "" || candidate == "." {
		return "", false
	}
	for _, p := range idx.sorted {
		for _, form := range forms(p) {
			if segmentSuffix(form, candidate) || segmentSuffix(candidate, form) {
				return p, true
			}
		}
	}
	return "", false
}

func forms(p string) []string {
	out := []string{p}
	stem := strings.TrimSuffix(p, path.Ext(p))
	if stem == p || stem == "" {
		return out
	}
	out = append(out, stem)
	if path.Base(stem) == "index" {
		if dir := path.Dir(stem); dir != "." {
			out = append(out, dir)
		}
	}
	return out
}

func segmentSuffix(s, suffix string) bool {
	return s == suffix || strings.HasSuffix(s, "/"+suffix)
}

// escapesRoot reports whether a normalized path climbs above the root
func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

// SuffixResolver tries the normalized path, then a bidirectional suffix scan
type SuffixResolver struct {
	idx index
}

// NewSuffixResolver indexes the known node paths
func NewSuffixResolver(paths []string) *SuffixResolver {
	return &SuffixResolver{idx: newIndex(paths)}
}

// Resolve implements Resolver
func (r *SuffixResolver) Resolve(from, specifier string) (string, bool) {
	candidate := Normalize(from, specifier)
	if escapesRoot(candidate) {
		return "", false
	}
	if r.idx.has(candidate) {
		return candidate, true
	}
	return r.idx.suffixScan(candidate)
}

// CandidateResolver tries the normalized path with each extension and
// index-file suffix, taking the first exact hit.
type CandidateResolver struct {
	idx index

	// Loose enables the suffix scan when no candidate matches
	Loose bool
}

// NewCandidateResolver indexes the known node paths
func NewCandidateResolver(paths []string) *CandidateResolver {
	return &CandidateResolver{idx: newIndex(paths)}
}

// Resolve implements Resolver
func (r *CandidateResolver) Resolve(from, specifier string) (string, bool) {
	base := Normalize(from, specifier)
	if escapesRoot(base) {
		return "", false
	}
	if r.idx.has(base) {
		return base, true
	}
	for _, suffix := range candidateSuffixes {
		c := base + suffix
		if base == "." {
			// the importer's own directory; only its index can match
			if !strings.HasPrefix(suffix, "/") {
				continue
			}
			c = suffix[1:]
		}
		if r.idx.has(c) {
			return c, true
		}
	}
	if r.Loose {
		return r.idx.suffixScan(base)
	}
	return "", false
}

// NewResolver builds the resolver named by strategy over the given paths.
// Unknown names select the candidate resolver.
func NewResolver(strategy string, paths []string) Resolver {
	if strategy == StrategySuffix {
		return NewSuffixResolver(paths)
	}
	return NewCandidateResolver(paths)
}
