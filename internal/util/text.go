package util

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)
	reSlug   = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeName reduces an item name to its comparable core: lowercase,
// letters and digits only. Applying it twice yields the same result.
func NormalizeName(input string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanCell trims a raw cell and treats the literal text "nan" (any case)
// as an empty cell.
func CleanCell(input string) string {
	s := strings.TrimSpace(input)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func Slug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = reSlug.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "sheet"
	}
	return s
}
