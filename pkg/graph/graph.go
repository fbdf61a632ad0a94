package graph

import (
	"fmt"
	"strings"
)

// Options controls link building
type Options struct {
	// Strategy picks the resolver when Resolver is nil
	Strategy string
	Resolver Resolver

	// Dedupe collapses repeated source->target pairs
	Dedupe bool
}

// Build resolves every node's dependencies against the node set.
// It must see the complete node set. Unresolved specifiers are dropped
// and self-loops are never emitted.
func Build(nodes []Node, opts Options) []Link {
	resolver := opts.Resolver
	if resolver == nil {
		paths := make([]string, len(nodes))
		for i, n := range nodes {
			paths[i] = n.ID
		}
		resolver = NewResolver(opts.Strategy, paths)
	}

	links := []Link{}
	seen := make(map[Link]struct{})

	for _, n := range nodes {
		for _, specifier := range n.Dependencies {
			target, ok := resolver.Resolve(n.ID, specifier)
			if !ok || target == n.ID {
				continue
			}
			link := Link{Source: n.ID, Target: target}
			if opts.Dedupe {
				if _, dup := seen[link]; dup {
					continue
				}
				seen[link] = struct{}{}
			}
			links = append(links, link)
		}
	}

	return links
}

// ProjectInsights is the optional model-generated project review
type ProjectInsights struct {
	Architecture string `json:"architecture"`
	Strengths    string `json:"strengths"`
	Suggestions  string `json:"suggestions"`
	TechStack    string `json:"techStack"`
}

// ProjectSummary aggregates one analysis
type ProjectSummary struct {
	ProjectName    string           `json:"projectName"`
	ProjectSummary string           `json:"projectSummary"`
	Architecture   string           `json:"architecture"`
	FileCount      int              `json:"fileCount"`
	Languages      []string         `json:"languages"`
	Roles          []string         `json:"roles"`
	Insights       *ProjectInsights `json:"insights,omitempty"`
}

// Summarize collects distinct languages and roles in first-seen order
func Summarize(projectName string, nodes []Node) ProjectSummary {
	languages := distinct(nodes, func(n Node) string { return n.Language })
	roles := distinct(nodes, func(n Node) string { return n.Role })

	return ProjectSummary{
		ProjectName:    projectName,
		ProjectSummary: fmt.Sprintf("%s project with %d files using %s", projectName, len(nodes), strings.Join(languages, ", ")),
		Architecture:   fmt.Sprintf("Multi-file project with %s components", strings.Join(roles, ", ")),
		FileCount:      len(nodes),
		Languages:      languages,
		Roles:          roles,
	}
}

func distinct(nodes []Node, key func(Node) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, n := range nodes {
		k := key(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
