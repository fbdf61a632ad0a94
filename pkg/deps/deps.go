// Package deps pulls intra-repository import specifiers out of source text.
//
// Extraction is lexical. Specifiers inside comments or strings are picked up,
// and computed imports are missed.
package deps

import (
	"regexp"
	"strings"
)

var (
	// import x from './x', import { a, b } from "./y", import './side-effect'
	importPattern = regexp.MustCompile(`import\s+(?:[\w*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)

	// require('./x')
	requirePattern = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Extract returns the relative or absolute specifiers in content,
// de-duplicated in order of first occurrence (imports before requires).
// Bare package names are dropped.
func Extract(content string) []string {
	seen := make(map[string]struct{})
	specifiers := []string{}

	for _, re := range []*regexp.Regexp{importPattern, requirePattern} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			specifier := m[1]
			if !IsLocal(specifier) {
				continue
			}
			if _, ok := seen[specifier]; ok {
				continue
			}
			seen[specifier] = struct{}{}
			specifiers = append(specifiers, specifier)
		}
	}

	return specifiers
}

// IsLocal reports whether specifier points into the repository rather than at a package
func IsLocal(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}
