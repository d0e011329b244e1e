package s2

import (
	"regexp"
	"strings"
)

// listTypePattern matches the "@['JournalArticle', 'Review']{" head that the
// Graph API emits for papers carrying several publication types.
var listTypePattern = regexp.MustCompile(`^(\s*)@\s*\[([^\]]*)\]\s*([{(])`)

// publicationTypes maps Semantic Scholar publication types to BibTeX entry types.
var publicationTypes = map[string]string{
	"journalarticle":     "article",
	"review":             "article",
	"lettersandcomments": "article",
	"conference":         "inproceedings",
	"book":               "book",
	"booksection":        "incollection",
	"dataset":            "misc",
}

// normalizeEntryType rewrites a list-valued entry type into a single BibTeX
// type: the first listed type that has a BibTeX equivalent, else misc.
// Other input is returned unchanged.
func normalizeEntryType(bib string) string {
	m := listTypePattern.FindStringSubmatchIndex(bib)
	if m == nil {
		return bib
	}
	typ := "misc"
	for _, item := range strings.Split(bib[m[4]:m[5]], ",") {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(item), `'"`))
		if t, ok := publicationTypes[name]; ok {
			typ = t
			break
		}
	}
	return bib[m[2]:m[3]] + "@" + typ + bib[m[6]:]
}
