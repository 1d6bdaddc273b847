// Package slug derives URL-safe identifiers from human titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	unsafeChars  = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	separators   = regexp.MustCompile(`[\s_]+`)
	repeatDashes = regexp.MustCompile(`-{2,}`)
	digitsDashes = regexp.MustCompile(`^[0-9-]+$`)
	alnumRuns    = regexp.MustCompile(`[a-z0-9]+`)
)

// Fallback is used when a title yields no usable slug at all.
const Fallback = "category"

// Make lower-cases the title, strips unsafe characters and collapses
// whitespace and underscores into single dashes. Titles that reduce to
// nothing, or to digits and dashes only, fall back to the raw alphanumeric
// residue of the title, or to Fallback when even that is empty.
func Make(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))

	s := unsafeChars.ReplaceAllString(lowered, "")
	s = separators.ReplaceAllString(s, "-")
	s = repeatDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s != "" && !digitsDashes.MatchString(s) {
		return s
	}

	residue := strings.Join(alnumRuns.FindAllString(lowered, -1), "")
	if residue == "" {
		return Fallback
	}
	return residue
}
