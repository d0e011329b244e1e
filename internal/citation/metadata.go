// Package citation defines the per-document types shared by the extraction
// strategies and the pipeline driver.
package citation

import "strings"

// Well-known metadata keys.
const (
	KeyTitle   = "title"
	KeyAuthor  = "author"
	KeyYear    = "year"
	KeyJournal = "journal"
	KeyDOI     = "doi"
)

// Metadata holds bibliographic fields discovered for a document.
// Rarely used keys (pages, volume, ...) live in Extra.
type Metadata struct {
	Title   string
	Author  string // BibTeX author list: "Last, First and Last, First"
	Year    string
	Journal string
	DOI     string

	Extra map[string]string
}

// Get returns the value for key, or "" if unset.
func (m *Metadata) Get(key string) string {
	switch strings.ToLower(key) {
	case KeyTitle:
		return m.Title
	case KeyAuthor:
		return m.Author
	case KeyYear:
		return m.Year
	case KeyJournal:
		return m.Journal
	case KeyDOI:
		return m.DOI
	}
	return m.Extra[strings.ToLower(key)]
}

// SetIfAbsent sets key to value only if the key is currently empty.
// Returns true if the value was stored.
func (m *Metadata) SetIfAbsent(key, value string) bool {
	if value == "" || m.Get(key) != "" {
		return false
	}
	switch strings.ToLower(key) {
	case KeyTitle:
		m.Title = value
	case KeyAuthor:
		m.Author = value
	case KeyYear:
		m.Year = value
	case KeyJournal:
		m.Journal = value
	case KeyDOI:
		m.DOI = value
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[strings.ToLower(key)] = value
	}
	return true
}

// Merge copies every field of other that is still empty in m.
func (m *Metadata) Merge(other Metadata) {
	for key, value := range other.Map() {
		m.SetIfAbsent(key, value)
	}
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	c := m
	if m.Extra != nil {
		c.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Map returns the non-empty fields keyed by name, for audit records.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string)
	for _, kv := range [][2]string{
		{KeyTitle, m.Title},
		{KeyAuthor, m.Author},
		{KeyYear, m.Year},
		{KeyJournal, m.Journal},
		{KeyDOI, m.DOI},
	} {
		if kv[1] != "" {
			out[kv[0]] = kv[1]
		}
	}
	for k, v := range m.Extra {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// IsEmpty returns true if no field is set.
func (m Metadata) IsEmpty() bool {
	return len(m.Map()) == 0
}
