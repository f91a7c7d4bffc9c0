package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`[\s\x{00a0}\x{2007}\x{202f}]+`)

// CollapseWhitespace squashes every run of whitespace, including the
// non-breaking variants upstream markup is fond of, into one space.
func CollapseWhitespace(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized name contains any of the
// matchers. Matchers must already be normalized.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var slugStripRegex = regexp.MustCompile(`[^a-z0-9 -]`)

// Slugify turns "2018 HONDA Civic" into "2018-honda-civic", the shape
// the upstream detail/parts/prices pages expect in their paths.
func Slugify(s string) string {
	s = strings.ToLower(CollapseWhitespace(s))
	s = slugStripRegex.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "-")
}

// FuzzyContains reports whether query loosely matches candidate:
// either a plain substring hit or a small Levenshtein distance
// relative to the query length.
func FuzzyContains(candidate, query string) bool {
	candidate = NormalizeName(candidate)
	query = NormalizeName(query)
	if query == "" {
		return true
	}
	if strings.Contains(candidate, query) {
		return true
	}
	maxDist := len(query) / 4
	if maxDist == 0 {
		return false
	}
	return matchr.Levenshtein(candidate, query) <= maxDist
}
