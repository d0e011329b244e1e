package bibtex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoEntry is returned when appended text contains no record.
var ErrNoEntry = errors.New("BibTeX entry missing data")

// Store is a bibliography file rewritten in full on every append.
type Store struct {
	Path string
}

// NewStore creates a store for the .bib file at path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load parses the bibliography file. A missing file is an empty database.
func (s *Store) Load() (*Database, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Database{}, nil
		}
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return Parse(string(data))
}

// Append parses text, adds its first record after the existing entries and
// rewrites the file. An unreadable or unparseable existing file is treated
// as empty; its previous contents are kept in <path>.bak.
func (s *Store) Append(text string) error {
	added, err := Parse(text)
	if err != nil {
		return fmt.Errorf("invalid BibTeX entry: %w", err)
	}
	entry, ok := firstRecord(added)
	if !ok {
		return ErrNoEntry
	}

	db, err := s.Load()
	if err != nil {
		if backupErr := s.backup(); backupErr != nil {
			return fmt.Errorf("backing up unparseable bibliography: %w", backupErr)
		}
		db = &Database{}
	}
	db.Entries = append(db.Entries, entry)

	return s.write(Format(db))
}

func firstRecord(db *Database) (Entry, bool) {
	for _, e := range db.Entries {
		if e.Raw == "" {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) backup() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(s.Path+".bak", data, 0644)
}

// write replaces the file through a temp file in the same directory so a
// failed write never truncates the bibliography.
func (s *Store) write(content string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating bibliography directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".references-*.bib")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing bibliography: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing bibliography: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting bibliography permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing bibliography: %w", err)
	}
	return nil
}
