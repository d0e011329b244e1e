// Package pdf extracts text and identifiers from PDF files.
package pdf

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxPages is the number of leading pages the pipeline reads.
// Title, authors and DOI almost always appear on the first two.
const DefaultMaxPages = 2

// Extractor reads the first pages of a PDF as plain text.
type Extractor struct {
	MaxPages int
	Logger   *slog.Logger
}

// NewExtractor creates an extractor that reads the first two pages.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{MaxPages: DefaultMaxPages, Logger: logger}
}

// ExtractText returns the concatenated text of the leading pages, or "" if
// the file cannot be read. The failure reason is logged, not returned.
func (e *Extractor) ExtractText(path string) string {
	text, err := ExtractText(path, e.MaxPages)
	if err != nil {
		e.Logger.Error("Failed to read PDF", "pdf", filepath.Base(path), "error", err)
		return ""
	}
	return text
}

// ExtractText extracts all text from the first N pages of a PDF.
// maxPages <= 0 reads every page.
func ExtractText(filePath string, maxPages int) (text string, err error) {
	// The PDF library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readPages(r, maxPages), nil
}

func readPages(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var pages []string
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n")
}
