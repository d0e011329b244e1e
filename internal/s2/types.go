// Package s2 provides a title-search client for the Semantic Scholar Academic Graph API.
package s2

// Paper represents a paper from the Semantic Scholar API.
type Paper struct {
	PaperID        string         `json:"paperId"`
	ExternalIDs    ExternalIDs    `json:"externalIds,omitempty"`
	Title          string         `json:"title"`
	Authors        []Author       `json:"authors,omitempty"`
	Year           int            `json:"year,omitempty"`
	Venue          string         `json:"venue,omitempty"`
	CitationStyles CitationStyles `json:"citationStyles,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI,omitempty"`
	ArXiv string `json:"ArXiv,omitempty"`
}

// Author represents an author from the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// CitationStyles holds pre-rendered citations.
type CitationStyles struct {
	BibTeX string `json:"bibtex,omitempty"`
}

// SearchResponse is one page from the paper search endpoint.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next,omitempty"`
	Data   []Paper `json:"data"`
}
