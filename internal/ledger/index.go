package ledger

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Index is an ephemeral SQLite view of the run log for history queries.
// The run log stays the source of truth; the index can be rebuilt at any time.
type Index struct {
	db *sql.DB
}

// Count is the number of run log entries sharing a key.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// OpenIndex opens or creates a SQLite index at the given path.
// Use ":memory:" for a throwaway index.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY,
			timestamp TEXT NOT NULL,
			pdf TEXT NOT NULL,
			strategy TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_pdf ON runs(pdf);
	`
	_, err := db.Exec(schema)
	return err
}

// RebuildFromRunLog clears the index and loads every record of the run log.
// Returns the number of records indexed.
func (x *Index) RebuildFromRunLog(runLogPath string) (int, error) {
	records, err := ReadRecords(runLogPath)
	if err != nil {
		return 0, err
	}

	tx, err := x.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM runs"); err != nil {
		return 0, fmt.Errorf("clearing runs table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO runs (timestamp, pdf, strategy, status, reason, raw_json) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.Exec(rec.Timestamp, rec.Document, rec.Strategy, rec.Status, rec.Reason, rec.Raw); err != nil {
			return 0, fmt.Errorf("inserting record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(records), nil
}

// CountByStatus returns entry counts per status, largest first.
func (x *Index) CountByStatus() ([]Count, error) {
	return x.countBy("status")
}

// CountByStrategy returns entry counts per strategy, largest first.
func (x *Index) CountByStrategy() ([]Count, error) {
	return x.countBy("strategy")
}

func (x *Index) countBy(column string) ([]Count, error) {
	// column is one of a fixed set of names, never user input
	rows, err := x.db.Query(fmt.Sprintf(`SELECT %s, COUNT(*) FROM runs GROUP BY %s ORDER BY COUNT(*) DESC, %s`, column, column, column))
	if err != nil {
		return nil, fmt.Errorf("counting by %s: %w", column, err)
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// History returns every record for the named document, oldest first.
func (x *Index) History(document string) ([]Record, error) {
	rows, err := x.db.Query(`SELECT timestamp, pdf, strategy, status, COALESCE(reason, ''), raw_json FROM runs WHERE pdf = ? ORDER BY seq`, document)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Timestamp, &r.Document, &r.Strategy, &r.Status, &r.Reason, &r.Raw); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
