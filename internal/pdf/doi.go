package pdf

import (
	"regexp"
	"strings"
)

// doiPattern matches 10.NNNN[.N]/suffix, case-insensitively.
var doiPattern = regexp.MustCompile(`(?i)10\.\d{4,}(?:\.\d+)?/[\w\-.;()/:%]+`)

// FindDOI returns the first DOI in text with trailing '.' and ')' removed,
// or "" if there is none.
func FindDOI(text string) string {
	match := doiPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, ".)")
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
