package classify

import (
	"context"
	"log/slog"
)

// Classification is the per-file result of a Classifier
type Classification struct {
	Language string `json:"language"`
	Role     string `json:"role"`
	Summary  string `json:"summary"`

	// Filled in by model-backed classifiers only
	KeyFunctions string `json:"keyFunctions,omitempty"`
	Complexity   string `json:"complexity,omitempty"`
	Insights     string `json:"insights,omitempty"`
}

// Classifier derives language, role and summary for one file
type Classifier interface {
	Classify(ctx context.Context, path, content string) (Classification, error)
}

// Heuristic classifies from the extension table, the role rules and the
// summary templates. It never fails.
type Heuristic struct{}

var _ Classifier = Heuristic{}

// Classify implements Classifier
func (Heuristic) Classify(_ context.Context, path, content string) (Classification, error) {
	return Classify(path, content), nil
}

// Classify runs the heuristic classification for a loaded file
func Classify(path, content string) Classification {
	lang := Language(path)
	role := Role(path, content, true)
	return Classification{
		Language: lang,
		Role:     role,
		Summary:  Summary(role, path, lang),
	}
}

// Fallback tries Primary and uses Secondary when it fails
type Fallback struct {
	Primary   Classifier
	Secondary Classifier
}

// Classify implements Classifier
func (f Fallback) Classify(ctx context.Context, path, content string) (Classification, error) {
	if f.Primary != nil {
		c, err := f.Primary.Classify(ctx, path, content)
		if err == nil && ValidRole(c.Role) {
			return c, nil
		}
		if err != nil {
			slog.Debug("Primary classifier failed, using fallback", "path", path, "error", err)
		} else {
			slog.Debug("Primary classifier returned unknown role, using fallback", "path", path, "role", c.Role)
		}
	}

	secondary := f.Secondary
	if secondary == nil {
		secondary = Heuristic{}
	}
	return secondary.Classify(ctx, path, content)
}
