package classify

import (
	"path"
	"strings"
)

// UnknownLanguage is reported for extensions missing from the table
const UnknownLanguage = "Unknown"

var languages = map[string]string{
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".py":    "Python",
	".java":  "Java",
	".cpp":   "C++",
	".c":     "C",
	".cs":    "C#",
	".go":    "Go",
	".rs":    "Rust",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".css":   "CSS",
	".scss":  "SCSS",
	".sass":  "Sass",
	".html":  "HTML",
	".json":  "JSON",
	".xml":   "XML",
	".yml":   "YAML",
	".yaml":  "YAML",
	".md":    "Markdown",
	".txt":   "Text",
	".sh":    "Shell",
	".sql":   "SQL",
}

// Language maps a file's extension to a language name
func Language(p string) string {
	if lang, ok := languages[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return UnknownLanguage
}

// Languages returns a copy of the extension table
func Languages() map[string]string {
	out := make(map[string]string, len(languages))
	for k, v := range languages {
		out[k] = v
	}
	return out
}
