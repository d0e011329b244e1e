// Package filing moves reference PDFs: renaming accepted ones after their
// citation and quarantining the ones that couldn't be resolved.
package filing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Filer renames and quarantines documents without ever overwriting a file.
type Filer struct {
	RejectedDir string
}

// NewFiler creates a filer that quarantines into rejectedDir.
func NewFiler(rejectedDir string) *Filer {
	return &Filer{RejectedDir: rejectedDir}
}

// Quarantine moves path into the rejected directory and returns the new
// path. Name collisions get _1, _2, ... before the extension.
func (f *Filer) Quarantine(path string) (string, error) {
	if err := os.MkdirAll(f.RejectedDir, 0755); err != nil {
		return path, fmt.Errorf("creating rejected directory: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	dest := filepath.Join(f.RejectedDir, name)
	for i := 1; exists(dest); i++ {
		dest = filepath.Join(f.RejectedDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}

	if err := moveFile(path, dest); err != nil {
		return path, err
	}
	return dest, nil
}

// RenameForCitation renames path to {Surname}{Year}.pdf in the same
// directory and returns the resulting path. It returns path unchanged, with
// no error, when the surname or year is missing or the name already matches.
func (f *Filer) RenameForCitation(path, author, year string) (string, error) {
	surname := Surname(author)
	year = digitsOnly(year)
	if surname == "" || year == "" {
		return path, nil
	}

	dir := filepath.Dir(path)
	base := surname + year
	dest := filepath.Join(dir, base+".pdf")
	for i := 1; exists(dest) && !samePath(dest, path); i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", base, i))
	}
	if samePath(dest, path) {
		return path, nil
	}

	if err := os.Rename(path, dest); err != nil {
		return path, fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return dest, nil
}

// Surname returns the family name of the first author in a BibTeX author
// list, letters only. Both "Doe, Jane" and "Jane Doe" yield "Doe".
func Surname(author string) string {
	first, _, _ := strings.Cut(author, " and ")
	first, _, _ = strings.Cut(first, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, fields[len(fields)-1])
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// moveFile renames src to dest, copying across filesystems when needed.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("moving %s: %w", filepath.Base(src), err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("moving %s: %w", filepath.Base(src), err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", filepath.Base(src), err)
	}
	return nil
}
