package history

import (
	"regexp"
	"sort"
)

var variableRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// extractVariables scans content for {{name}} template variables and
// returns the unique names sorted. Purely derived metadata: a commit
// never fails because extraction found nothing.
func extractVariables(content string) []string {
	matches := variableRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
