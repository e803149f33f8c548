package pipeline

import (
	"strings"

	"fitout/internal"
	"fitout/internal/util"
)

// ClassifyColumns maps column roles to column labels. Labels are compared
// in their normalized form (lowercase, alphanumerics only) so punctuation
// never hides a keyword. Roles resolve in priority order and the first
// matching unclaimed column in table order takes each role, so a column
// never serves two roles. Placeholder labels and labels starting with "_"
// are never classified.
func ClassifyColumns(columns []string, prof Profile) map[internal.ColumnRole]string {
	roles := make(map[internal.ColumnRole]string, len(rolePriority))
	claimed := make(map[string]bool, len(columns))

	for _, role := range rolePriority {
		keywords := prof.RoleKeywords[string(role)]
		for _, label := range columns {
			if claimed[label] || skipLabel(label) {
				continue
			}
			if containsKeyword(util.NormalizeName(label), keywords) {
				roles[role] = label
				claimed[label] = true
				break
			}
		}
	}
	return roles
}

func skipLabel(label string) bool {
	return placeholderLabel.MatchString(label) || strings.HasPrefix(label, "_")
}
