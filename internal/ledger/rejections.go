package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const rejectionHeader = "# Rejected References\n\n| Date | File | Reason |\n| --- | --- | --- |\n"

// RejectionLog is a Markdown table with one row per rejected document.
type RejectionLog struct {
	Path string
	Now  func() time.Time
}

// NewRejectionLog creates a rejection log at path.
func NewRejectionLog(path string) *RejectionLog {
	return &RejectionLog{Path: path, Now: time.Now}
}

// Append adds a row for the file name, writing the table header first if
// the log doesn't exist yet.
func (l *RejectionLog) Append(name, reason string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return fmt.Errorf("creating rejection log directory: %w", err)
	}

	if _, err := os.Stat(l.Path); os.IsNotExist(err) {
		if err := os.WriteFile(l.Path, []byte(rejectionHeader), 0644); err != nil {
			return fmt.Errorf("writing rejection log header: %w", err)
		}
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening rejection log: %w", err)
	}
	defer f.Close()

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	row := fmt.Sprintf("| %s | `%s` | %s |\n", now().Format("2006-01-02 15:04"), name, sanitizeReason(reason))
	if _, err := f.WriteString(row); err != nil {
		return fmt.Errorf("writing rejection log: %w", err)
	}
	return nil
}

// sanitizeReason collapses whitespace and escapes pipes so the reason fits
// one table cell.
func sanitizeReason(reason string) string {
	s := strings.Join(strings.Fields(reason), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if s == "" {
		return "unspecified"
	}
	return s
}
