package filter

import (
	"path"
	"regexp"
	"testing"
)

func mustCompile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func TestShouldIndexFile(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		blacklist []*regexp.Regexp
		whitelist []*regexp.Regexp
		want      bool
	}{
		{
			name:     "no filters - allow",
			filePath: "src/file.js",
			want:     true,
		},
		{
			name:      "matches blacklist, no whitelist - reject",
			filePath:  "config/secret.txt",
			blacklist: mustCompile(`.*\.secret$`, `.*secret\.txt$`),
			want:      false,
		},
		{
			name:      "matches blacklist AND whitelist - allow (whitelist exception)",
			filePath:  "keys/important.secret",
			blacklist: mustCompile(`.*\.secret$`),
			whitelist: mustCompile(`.*important\.secret$`),
			want:      true,
		},
		{
			name:      "doesn't match blacklist - allow",
			filePath:  "src/main.js",
			blacklist: mustCompile(`.*\.min\.js$`),
			want:      true,
		},
		{
			name:      "matches blacklist, whitelist doesn't match - reject",
			filePath:  "keys/test.secret",
			blacklist: mustCompile(`.*\.secret$`),
			whitelist: mustCompile(`.*important\.secret$`),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldIndexFile(tt.filePath, tt.blacklist, tt.whitelist); got != tt.want {
				t.Errorf("ShouldIndexFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSkipDir(t *testing.T) {
	f, err := New(Options{
		ExcludeDirs:  []string{"vendor"},
		ExcludeGlobs: []string{"docs/**/generated"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"node_modules", true},
		{"src/node_modules", true},
		{"packages/app/.git", true},
		{"vendor", true},
		{"docs/api/generated", true},
		{"src", false},
		{"src/components", false},
		{"builder", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := f.SkipDir(tt.rel, path.Base(tt.rel)); got != tt.want {
				t.Errorf("SkipDir(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestSkipFile(t *testing.T) {
	f, err := New(Options{
		ExcludeFiles: []string{"Thumbs.db"},
		ExcludeGlobs: []string{"**/*.min.js"},
		Blacklist:    []string{`\.snap$`},
		Whitelist:    []string{`^keep/`},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"package-lock.json", true},
		{"sub/yarn.lock", true},
		{".DS_Store", true},
		{"codeverse-data.json", true},
		{"Thumbs.db", true},
		{"public/vendor.min.js", true},
		{"__snapshots__/app.snap", true},
		{"keep/app.snap", false},
		{"package.json", false},
		{"src/index.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := f.SkipFile(tt.rel, path.Base(tt.rel)); got != tt.want {
				t.Errorf("SkipFile(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestNewRejectsBadPatterns(t *testing.T) {
	if _, err := New(Options{Blacklist: []string{"("}}); err == nil {
		t.Error("expected error for invalid blacklist regex")
	}
	if _, err := New(Options{ExcludeGlobs: []string{"[a-"}}); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestFilterOrder(t *testing.T) {
	// File matches both blacklist and whitelist should be ALLOWED
	if !ShouldIndexFile("keys/important.secret", mustCompile(`.*\.secret$`), mustCompile(`.*important\.secret$`)) {
		t.Error("File matching both blacklist and whitelist should be allowed (whitelist provides exception)")
	}
}
