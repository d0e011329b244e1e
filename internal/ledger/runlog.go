// Package ledger records the outcome of every processed document: an NDJSON
// run log, a Markdown rejection table, a run summary, and a SQLite index
// rebuilt from the run log for queries.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Run log statuses.
const (
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusDiscarded = "discarded"
)

// NoStrategy is logged when no strategy produced the outcome.
const NoStrategy = "none"

// MaxLineCapacity is the maximum buffer size for reading run log lines (1MB per line).
const MaxLineCapacity = 1024 * 1024

// Entry is one document outcome. Extras are flattened into the JSON object
// next to the fixed keys.
type Entry struct {
	Timestamp time.Time
	Document  string
	Strategy  string
	Status    string
	Extras    map[string]any
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(e.Extras)+4)
	for k, v := range e.Extras {
		obj[k] = v
	}
	obj["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	obj["pdf"] = e.Document
	obj["strategy"] = e.Strategy
	obj["status"] = e.Status
	return json.Marshal(obj)
}

// Record is the fixed part of a run log line as read back from disk.
type Record struct {
	Timestamp string `json:"timestamp"`
	Document  string `json:"pdf"`
	Strategy  string `json:"strategy"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Raw       string `json:"-"`
}

// RunLog appends entries to an NDJSON file. An empty Path disables it.
type RunLog struct {
	Path string
	Now  func() time.Time
}

// NewRunLog creates a run log at path.
func NewRunLog(path string) *RunLog {
	return &RunLog{Path: path, Now: time.Now}
}

// Enabled reports whether entries are written anywhere.
func (l *RunLog) Enabled() bool {
	return l != nil && l.Path != ""
}

// Write stamps e with the current time and appends it as one line.
func (l *RunLog) Write(e Entry) error {
	if !l.Enabled() {
		return nil
	}
	if e.Timestamp.IsZero() {
		now := time.Now
		if l.Now != nil {
			now = l.Now
		}
		e.Timestamp = now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding run log entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return fmt.Errorf("creating run log directory: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening run log for append: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing run log entry: %w", err)
	}
	return nil
}

// ReadRecords reads every line of the run log at path.
// A missing file returns no records.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		rec.Raw = string(line)
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}
	return records, nil
}
