package classify

import (
	"fmt"
	"path"
	"strings"
)

var templates = map[string]string{
	RoleUIComponent:     "%s component handles UI rendering and user interactions",
	RoleStyling:         "Defines visual styles and layout for %s",
	RoleAPIService:      "Manages API calls and data fetching for %s",
	RoleUtility:         "Provides helper functions and utilities for %s",
	RoleStateManagement: "Manages application state for %s",
	RoleRouting:         "Handles routing and navigation for %s",
	RoleConfiguration:   "Configuration settings for %s",
	RoleTesting:         "Test suite for %s functionality",
	RoleDocumentation:   "Documentation for %s",
}

// Summary renders the one-sentence description for a classified file.
// Other and unknown roles fall back to "<language> file: <name>".
func Summary(role, p, language string) string {
	base := path.Base(p)
	name := strings.TrimSuffix(base, path.Ext(base))

	if tmpl, ok := templates[role]; ok {
		return fmt.Sprintf(tmpl, name)
	}
	return fmt.Sprintf("%s file: %s", language, name)
}
