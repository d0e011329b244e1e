package citation

import (
	"path/filepath"
	"strings"
)

// ExtractionContext is the mutable state of one document moving through the
// strategy chain. It is created after text extraction succeeds and discarded
// when the document's outcome is decided.
type ExtractionContext struct {
	documentPath string

	RawText  string
	Metadata Metadata

	triedIdentifiers map[string]bool
	triedTitles      map[string]bool
}

// NewExtractionContext creates a context for the document at path.
func NewExtractionContext(path, rawText string, md Metadata) *ExtractionContext {
	return &ExtractionContext{
		documentPath:     path,
		RawText:          rawText,
		Metadata:         md,
		triedIdentifiers: make(map[string]bool),
		triedTitles:      make(map[string]bool),
	}
}

// DocumentName returns the base name of the source file.
func (ec *ExtractionContext) DocumentName() string {
	return filepath.Base(ec.documentPath)
}

// DocumentStem returns the base name without its extension.
func (ec *ExtractionContext) DocumentStem() string {
	name := ec.DocumentName()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IdentifierTried reports whether id was already looked up (case-insensitive).
func (ec *ExtractionContext) IdentifierTried(id string) bool {
	return ec.triedIdentifiers[strings.ToLower(id)]
}

// MarkIdentifierTried records id as attempted.
func (ec *ExtractionContext) MarkIdentifierTried(id string) {
	ec.triedIdentifiers[strings.ToLower(id)] = true
}

// TitleTried reports whether title was already searched (case-insensitive).
func (ec *ExtractionContext) TitleTried(title string) bool {
	return ec.triedTitles[strings.ToLower(title)]
}

// MarkTitleTried records title as searched.
func (ec *ExtractionContext) MarkTitleTried(title string) {
	ec.triedTitles[strings.ToLower(title)] = true
}
