package bibtex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleEntry = `@article{demo,
    author = {Doe, Jane},
    title = {Sample Title},
    journal = {Test Journal},
    year = {2024},
}
`

func TestParse_BasicEntry(t *testing.T) {
	db, err := Parse(sampleEntry)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(db.Entries))
	}

	want := Entry{
		Type: "article",
		Key:  "demo",
		Fields: []Field{
			{"author", "Doe, Jane"},
			{"title", "Sample Title"},
			{"journal", "Test Journal"},
			{"year", "2024"},
		},
	}
	if diff := cmp.Diff(want, db.Entries[0]); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ValueForms(t *testing.T) {
	src := `@Misc{key1,
  Title = "A {"}Quoted{"} Title",
  year = 2021,
  month = jan,
  note = {Nested {braces} kept},
  url = "http://x" # "/y"
}`
	db, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := db.Entries[0]

	if e.Type != "misc" {
		t.Errorf("Type = %q, want misc", e.Type)
	}
	tests := map[string]string{
		"title": `A {"}Quoted{"} Title`,
		"year":  "2021",
		"month": "jan",
		"note":  "Nested {braces} kept",
		"url":   "http://x/y",
	}
	for field, want := range tests {
		if got := e.Get(field); got != want {
			t.Errorf("Get(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestParse_SkipsCommentsAndStrayText(t *testing.T) {
	src := `Some notes, contact me@example.org
@comment{jabref-meta: x}
@string{nat = {Nature}}
@article{a, title = {A}}
@book(b, title = {B})
`
	db, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(db.Entries) != 3 {
		t.Fatalf("got %d entries, want 3 (string, article, book)", len(db.Entries))
	}
	if db.Entries[0].Raw != "@string{nat = {Nature}}" {
		t.Errorf("string entry Raw = %q", db.Entries[0].Raw)
	}
	if db.Entries[2].Key != "b" || db.Entries[2].Get("title") != "B" {
		t.Errorf("paren-delimited entry = %+v", db.Entries[2])
	}
}

func TestParse_Unterminated(t *testing.T) {
	_, err := Parse("@article{broken, title = {never closed")
	if !errors.Is(err, ErrUnterminated) {
		t.Errorf("Parse() error = %v, want ErrUnterminated", err)
	}
}

func TestEntry_String(t *testing.T) {
	e := Entry{Type: "article", Key: "k"}
	e.Add("author", "Doe, Jane")
	e.Add("volume", "")
	e.Add("title", "T")

	want := "@article{k,\n    author = {Doe, Jane},\n    title = {T}\n}\n"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	db, err := Parse(sampleEntry + "\n@book{second, title = {Second}}\n")
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(Format(db))
	if err != nil {
		t.Fatalf("Parse(Format()) error = %v", err)
	}
	if diff := cmp.Diff(db, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(`@article{x2024, author = {Doe, Jane}, title = {T}, year = {2024}, doi = {10.1/x}}`)
	want := Summary{Key: "x2024", Title: "T", Author: "Doe, Jane", Year: "2024", DOI: "10.1/x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}

	if !Summarize("not bibtex").IsEmpty() {
		t.Error("Summarize() of plain text should be empty")
	}
	if !Summarize("@article{x, title = {unterminated").IsEmpty() {
		t.Error("Summarize() of broken entry should be empty")
	}
}

func TestStore_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "references.bib")
	store := NewStore(path)

	if err := store.Append(sampleEntry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "@article{demo,\n    author = {Doe, Jane},\n    title = {Sample Title},\n    journal = {Test Journal},\n    year = {2024}\n}\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.bib")
	existing := "@article{zeta, title = {Z}}\n\n@article{alpha, title = {A}}\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	if err := store.Append("@article{middle, title = {M}}"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	db, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, e := range db.Entries {
		keys = append(keys, e.Key)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "middle"}, keys); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AppendRejectsInvalid(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "references.bib"))

	if err := store.Append("title only, no record"); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Append(no record) error = %v, want ErrNoEntry", err)
	}
	if err := store.Append("@article{x, title = {open"); err == nil {
		t.Error("Append(unterminated) expected error")
	}
	if _, err := os.Stat(store.Path); !os.IsNotExist(err) {
		t.Error("failed Append should not create the file")
	}
}

func TestStore_AppendBacksUpUnparseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.bib")
	if err := os.WriteFile(path, []byte("@article{broken, title = {"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewStore(path).Append(sampleEntry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(backup) != "@article{broken, title = {" {
		t.Errorf("backup = %q", backup)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "@article{demo,") {
		t.Errorf("file content = %q", data)
	}
}

func TestHasRecord(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{sampleEntry, true},
		{"@article{k, title = {T}}", true},
		{"Title only", false},
		{"@string{jgr = {J. G. R.}}", false},
		{"@article{k, title = {open", false},
		{"@['JournalArticle']{K,\n year = {2017}\n}", false},
	}
	for _, tt := range tests {
		if got := HasRecord(tt.in); got != tt.want {
			t.Errorf("HasRecord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
