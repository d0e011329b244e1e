// Package config handles pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultReferencesDir is the directory scanned for PDFs.
	DefaultReferencesDir = "references"
	// BibFile is the bibliography file name inside the references directory.
	BibFile = "references.bib"
	// RejectedDir is the quarantine directory name inside the references directory.
	RejectedDir = "rejected"
	// RejectedLogFile is the rejection log file name inside the rejected directory.
	RejectedLogFile = "rejected.md"
	// TerminalLogFile is the default mirror of terminal output.
	TerminalLogFile = "citations.log"

	// DefaultDOITimeout bounds a single DOI resolver request.
	DefaultDOITimeout = 10 * time.Second
	// DefaultScholarTimeout bounds a single scholarly search.
	DefaultScholarTimeout = 30 * time.Second
)

// Config is the constructor-level configuration of a pipeline run.
type Config struct {
	ReferencesDir string // Directory containing reference PDFs
	OutputBib     string // Bibliography file entries are appended to
	RejectedDir   string // Quarantine directory for unresolved PDFs
	RejectedLog   string // Markdown table of rejections

	SkipDOI     bool // Disable identifier lookup entirely
	Interactive bool // Prompt on the terminal instead of taking defaults

	DOITimeout     time.Duration
	ScholarTimeout time.Duration

	RunLogPath  string // NDJSON audit log; empty disables it
	SummaryPath string // Run summary; empty disables it

	S2APIKey string // Optional Semantic Scholar API key
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return ForReferencesDir(DefaultReferencesDir)
}

// ForReferencesDir returns the default configuration rooted at dir.
// The bibliography, quarantine directory and rejection log live beneath it.
func ForReferencesDir(dir string) *Config {
	return &Config{
		ReferencesDir:  dir,
		OutputBib:      filepath.Join(dir, BibFile),
		RejectedDir:    filepath.Join(dir, RejectedDir),
		RejectedLog:    filepath.Join(dir, RejectedDir, RejectedLogFile),
		Interactive:    true,
		DOITimeout:     DefaultDOITimeout,
		ScholarTimeout: DefaultScholarTimeout,
	}
}

// Rebase moves the references directory to dir. The bibliography,
// quarantine directory and rejection log follow it while they still hold
// the paths derived from the old directory.
func (c *Config) Rebase(dir string) {
	old := ForReferencesDir(c.ReferencesDir)
	next := ForReferencesDir(dir)
	c.ReferencesDir = dir
	if c.OutputBib == old.OutputBib {
		c.OutputBib = next.OutputBib
	}
	if c.RejectedDir == old.RejectedDir {
		c.RejectedDir = next.RejectedDir
	}
	if c.RejectedLog == old.RejectedLog {
		c.RejectedLog = next.RejectedLog
	}
}

// Validate checks that the references directory exists and is a directory.
func (c *Config) Validate() error {
	if c.ReferencesDir == "" {
		return fmt.Errorf("references directory not configured")
	}
	info, err := os.Stat(c.ReferencesDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", c.ReferencesDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", c.ReferencesDir)
	}
	if c.DOITimeout <= 0 {
		return fmt.Errorf("invalid DOI timeout: %s", c.DOITimeout)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
