// Package bibtex parses, formats and appends BibTeX bibliography files.
package bibtex

import (
	"fmt"
	"strings"
)

// Indent is the field indentation used when writing entries.
const Indent = "    "

// Field is one name = {value} pair. Values are stored without their outer
// delimiters.
type Field struct {
	Name  string
	Value string
}

// Entry is one bibliography record. Fields keep their source order.
// Entries of type string and preamble carry their source text in Raw and
// are written back verbatim.
type Entry struct {
	Type   string
	Key    string
	Fields []Field
	Raw    string
}

// Get returns the value of field name (case-insensitive), or "".
func (e *Entry) Get(name string) string {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Add appends a field. Empty values are skipped.
func (e *Entry) Add(name, value string) {
	if value == "" {
		return
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

// String formats the entry with fixed four-space field indentation.
func (e *Entry) String() string {
	if e.Raw != "" {
		return e.Raw + "\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s", e.Type, e.Key))
	for i, f := range e.Fields {
		b.WriteString(",\n")
		b.WriteString(fmt.Sprintf("%s%s = {%s}", Indent, f.Name, f.Value))
		if i == len(e.Fields)-1 {
			b.WriteString("\n")
		}
	}
	if len(e.Fields) == 0 {
		b.WriteString(",\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// Database is an ordered list of entries.
type Database struct {
	Entries []Entry
}

// Format serializes every entry in order, separated by blank lines.
func Format(db *Database) string {
	parts := make([]string, len(db.Entries))
	for i := range db.Entries {
		parts[i] = db.Entries[i].String()
	}
	return strings.Join(parts, "\n")
}

// Summary is the subset of fields shown for review and used for renaming.
type Summary struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Journal string `json:"journal"`
	Year    string `json:"year"`
	DOI     string `json:"doi"`
}

// IsEmpty returns true if no field was found.
func (s Summary) IsEmpty() bool {
	return s == Summary{}
}

// HasRecord reports whether text parses and holds at least one entry.
func HasRecord(text string) bool {
	db, err := Parse(text)
	if err != nil {
		return false
	}
	_, ok := firstRecord(db)
	return ok
}

// Summarize parses text and returns the first entry's summary fields.
// Unparseable text yields an empty summary.
func Summarize(text string) Summary {
	db, err := Parse(text)
	if err != nil {
		return Summary{}
	}
	for _, e := range db.Entries {
		if e.Raw != "" {
			continue
		}
		return Summary{
			Key:     e.Key,
			Title:   e.Get("title"),
			Author:  e.Get("author"),
			Journal: e.Get("journal"),
			Year:    e.Get("year"),
			DOI:     e.Get("doi"),
		}
	}
	return Summary{}
}
