package classify

import (
	"path"
	"strings"
)

// Architectural roles
const (
	RoleUIComponent     = "UI Component"
	RoleStyling         = "Styling"
	RoleAPIService      = "API Service"
	RoleUtility         = "Utility"
	RoleStateManagement = "State Management"
	RoleRouting         = "Routing"
	RoleConfiguration   = "Configuration"
	RoleTesting         = "Testing"
	RoleDocumentation   = "Documentation"
	RoleOther           = "Other"
)

// AllRoles lists every role in rule order, Other last
var AllRoles = []string{
	RoleConfiguration,
	RoleDocumentation,
	RoleTesting,
	RoleStyling,
	RoleUIComponent,
	RoleAPIService,
	RoleStateManagement,
	RoleRouting,
	RoleUtility,
	RoleOther,
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Input is what a rule sees of a file
type Input struct {
	Path       string // lower-cased slash path with a leading "/"
	Filename   string // lower-cased base name, extension included
	Ext        string // lower-cased extension without the dot
	Content    string
	HasContent bool
}

// NewInput prepares rule input for a root-relative path
func NewInput(p, content string, hasContent bool) Input {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	ext := path.Ext(base)
	return Input{
		Path:       "/" + strings.TrimPrefix(lower, "/"),
		Filename:   base,
		Ext:        strings.TrimPrefix(ext, "."),
		Content:    content,
		HasContent: hasContent,
	}
}

// Rule maps a predicate to a role
type Rule struct {
	Name         string
	Role         string
	NeedsContent bool
	Match        func(Input) bool
}

var rules = []Rule{
	{
		Name: "config-extension-or-name",
		Role: RoleConfiguration,
		Match: func(in Input) bool {
			return in.extIn("json", "yml", "yaml", "toml", "ini", "env") || strings.Contains(in.Filename, "config")
		},
	},
	{
		Name: "docs-extension-or-readme",
		Role: RoleDocumentation,
		Match: func(in Input) bool {
			return in.extIn("md", "txt") || in.Filename == "readme"
		},
	},
	{
		Name: "test-name-or-directory",
		Role: RoleTesting,
		Match: func(in Input) bool {
			return containsAny(in.Filename, "test", "spec") || containsAny(in.Path, "/test/", "/__tests__/")
		},
	},
	{
		Name: "stylesheet-extension",
		Role: RoleStyling,
		Match: func(in Input) bool {
			return in.extIn("css", "scss", "sass", "less")
		},
	},
	{
		Name:         "exported-view-component",
		Role:         RoleUIComponent,
		NeedsContent: true,
		Match: func(in Input) bool {
			return in.extIn("jsx", "tsx") && containsAny(in.Content, "export default", "export const", "export function")
		},
	},
	{
		Name:         "http-calls-or-api-path",
		Role:         RoleAPIService,
		NeedsContent: true,
		Match: func(in Input) bool {
			return containsAny(in.Content, "fetch(", "axios", "http.") || containsAny(in.Path, "/api/", "/service")
		},
	},
	{
		Name:         "state-vocabulary-or-store-path",
		Role:         RoleStateManagement,
		NeedsContent: true,
		Match: func(in Input) bool {
			return containsAny(in.Content, "reducer", "dispatch", "createStore") || containsAny(in.Path, "/store/", "/redux/", "/state/")
		},
	},
	{
		Name:         "routing-vocabulary-or-route-path",
		Role:         RoleRouting,
		NeedsContent: true,
		Match: func(in Input) bool {
			return containsAny(in.Content, "Router", "Route") || strings.Contains(in.Path, "/route")
		},
	},
	{
		Name:         "util-or-helper-name",
		Role:         RoleUtility,
		NeedsContent: true,
		Match: func(in Input) bool {
			return containsAny(in.Path, "/util", "/helper") || containsAny(in.Filename, "util", "helper")
		},
	},
}

// Rules returns the ordered role rules. The first match wins.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Role evaluates the rules in order and returns the first matching role,
// or Other when none match. Content rules are skipped when hasContent is false.
func Role(p, content string, hasContent bool) string {
	return roleFor(rules, NewInput(p, content, hasContent))
}

func roleFor(rs []Rule, in Input) string {
	for _, r := range rs {
		if r.NeedsContent && !in.HasContent {
			continue
		}
		if r.Match(in) {
			return r.Role
		}
	}
	return RoleOther
}

func (in Input) extIn(exts ...string) bool {
	for _, e := range exts {
		if in.Ext == e {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
