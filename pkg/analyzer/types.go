package analyzer

import (
	"context"
	"time"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
	"github.com/haigpapa/Chromatoverse/pkg/filter"
	"github.com/haigpapa/Chromatoverse/pkg/graph"
	"github.com/haigpapa/Chromatoverse/pkg/loader"
)

// ID identifies this analyzer in result metadata
const ID = "Codeverse Explorer v1.0 (Go)"

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Output file names written next to the analyzed tree
const (
	DataFile     = "codeverse-data.json"
	ManifestFile = "manifest.json"
)

// InsightsProvider produces the optional project-level review
type InsightsProvider interface {
	ProjectInsights(ctx context.Context, summary graph.ProjectSummary, nodes []graph.Node) (*graph.ProjectInsights, error)
}

// Config holds analyzer configuration
type Config struct {
	Filter     *filter.Filter
	Classifier classify.Classifier // nil = heuristic only
	Insights   InsightsProvider    // nil = no project insights

	Resolver    string // graph.StrategyCandidates or graph.StrategySuffix
	DedupeLinks bool
	OmitContent bool // leave node content empty in the result

	Load           loader.Options
	MaxConcurrency int // parallel classifications

	Now func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Filter:         filter.Default(),
		Resolver:       graph.StrategyCandidates,
		Load:           loader.Options{Concurrency: loader.DefaultConcurrency},
		MaxConcurrency: 4,
		Now:            time.Now,
	}
}

// Analyzer runs the walk, load, classify, link pipeline over one tree
type Analyzer struct {
	config     *Config
	classifier classify.Classifier
}

// Meta describes one analysis run
type Meta struct {
	AnalyzedAt string `json:"analyzedAt"`
	Analyzer   string `json:"analyzer"`
	Directory  string `json:"directory"`
}

// Graph is the node and link set of one analysis
type Graph struct {
	Nodes []graph.Node `json:"nodes"`
	Links []graph.Link `json:"links"`
}

// Result is the complete output of one analysis
type Result struct {
	Meta    Meta                 `json:"meta"`
	Project graph.ProjectSummary `json:"project"`
	Graph   Graph                `json:"graph"`

	// Files backs manifest.json and content hashes; not serialized
	Files    []loader.FileRecord `json:"-"`
	Duration time.Duration       `json:"-"`
}

// Stats are the headline counts of a Result
type Stats struct {
	Files     int
	Links     int
	Languages int
	Roles     int
}

// Stats summarizes the result for status output
func (r *Result) Stats() Stats {
	return Stats{
		Files:     len(r.Graph.Nodes),
		Links:     len(r.Graph.Links),
		Languages: len(r.Project.Languages),
		Roles:     len(r.Project.Roles),
	}
}
