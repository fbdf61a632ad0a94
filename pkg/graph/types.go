package graph

import (
	"path"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
)

// Node is one analyzed file's classification and graph record
type Node struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Path         string   `json:"path"`
	Language     string   `json:"language"`
	Role         string   `json:"role"`
	Summary      string   `json:"summary"`
	Dependencies []string `json:"dependencies"`
	Size         int      `json:"size"`
	Content      string   `json:"content"`

	KeyFunctions string `json:"keyFunctions,omitempty"`
	Complexity   string `json:"complexity,omitempty"`
	Insights     string `json:"insights,omitempty"`
}

// Link is a directed dependency edge between two node ids
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewNode builds a Node keyed by its root-relative path
func NewNode(p, content string, c classify.Classification, deps []string) Node {
	if deps == nil {
		deps = []string{}
	}
	return Node{
		ID:           p,
		Label:        path.Base(p),
		Path:         p,
		Language:     c.Language,
		Role:         c.Role,
		Summary:      c.Summary,
		Dependencies: deps,
		Size:         len(deps) + 1,
		Content:      content,
		KeyFunctions: c.KeyFunctions,
		Complexity:   c.Complexity,
		Insights:     c.Insights,
	}
}
