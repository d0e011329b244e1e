package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stats counts document outcomes for one run.
type Stats struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
}

// Record counts one document.
func (s *Stats) Record(accepted bool) {
	s.Processed++
	if accepted {
		s.Accepted++
	} else {
		s.Rejected++
	}
}

// WriteSummary writes the run summary to path. An empty path is a no-op.
func WriteSummary(path string, stats Stats) error {
	if path == "" {
		return nil
	}

	var b strings.Builder
	b.WriteString("Citation Extraction Summary\n")
	b.WriteString("============================\n\n")
	b.WriteString(fmt.Sprintf("- processed: %d\n", stats.Processed))
	b.WriteString(fmt.Sprintf("- accepted: %d\n", stats.Accepted))
	b.WriteString(fmt.Sprintf("- rejected: %d\n", stats.Rejected))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating summary directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
