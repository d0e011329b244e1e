package pipeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/citeflow/internal/citation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	titleScanLines = 40
	minTitleLength = 10
)

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// DeriveMetadata guesses a year and a title from the raw text before any
// strategy runs. The year is the first 1900-2099 number anywhere in the
// text; the title is the first all-caps line longer than ten characters
// among the first 40 non-blank lines.
func DeriveMetadata(text string) citation.Metadata {
	var md citation.Metadata

	if m := yearPattern.FindStringSubmatch(text); m != nil {
		md.Year = m[1]
	}

	scanned := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if scanned == titleScanLines {
			break
		}
		scanned++
		if isUpper(line) && utf8.RuneCountInString(line) > minTitleLength {
			md.Title = cases.Title(language.English).String(line)
			break
		}
	}
	return md
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
