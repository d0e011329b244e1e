package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/matsen/citeflow/internal/bibtex"
	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/doi"
	"github.com/matsen/citeflow/internal/interact"
	"github.com/matsen/citeflow/internal/s2"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.ForReferencesDir(t.TempDir())
	cfg.Interactive = false
	return cfg
}

func TestDOIStrategy_Applicable(t *testing.T) {
	s := &DOIStrategy{Fetcher: &fakeDOI{}}

	tests := []struct {
		name       string
		text       string
		md         citation.Metadata
		skipDOI    bool
		want       bool
		wantReason string
	}{
		{"doi in text", "see doi:10.1234/abc.def.", citation.Metadata{}, false, true, ""},
		{"doi in metadata", "no identifier here", citation.Metadata{DOI: "10.5555/x"}, false, true, ""},
		{"no doi", "plain text", citation.Metadata{}, false, false, "No DOI detected"},
		{"disabled", "10.1234/abc", citation.Metadata{}, true, false, "Disabled via --skip-doi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.SkipDOI = tt.skipDOI
			ec := citation.NewExtractionContext("/refs/a.pdf", tt.text, tt.md)

			if got := s.Applicable(ec, cfg); got != tt.want {
				t.Errorf("Applicable() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if got := s.SkipReason(ec, cfg); got != tt.wantReason {
					t.Errorf("SkipReason() = %q, want %q", got, tt.wantReason)
				}
			}
			if ec.Metadata.DOI != tt.md.DOI {
				t.Error("Applicable() mutated the context metadata")
			}
		})
	}
}

func TestDOIStrategy_Success(t *testing.T) {
	fetcher := &fakeDOI{resp: &doi.Response{StatusCode: 200, Body: "\n @article{x2024, title = {T}}\n"}}
	s := &DOIStrategy{Fetcher: fetcher, Logger: discardLogger()}
	ec := citation.NewExtractionContext("/refs/a.pdf", "doi 10.1234/abcd).", citation.Metadata{})

	res := s.Execute(context.Background(), ec, testConfig(t), interact.NonInteractive{})
	if res.Outcome != citation.Success {
		t.Fatalf("Outcome = %v, want success (%s)", res.Outcome, res.Message)
	}
	if res.BibTeX != "@article{x2024, title = {T}}" {
		t.Errorf("BibTeX = %q, want trimmed body", res.BibTeX)
	}
	if diff := cmp.Diff([]string{"10.1234/abcd"}, fetcher.calls); diff != "" {
		t.Errorf("lookups mismatch (-want +got):\n%s", diff)
	}
	if ec.Metadata.DOI != "10.1234/abcd" || res.Metadata.DOI != "10.1234/abcd" {
		t.Errorf("DOI not recorded: context %q, result %q", ec.Metadata.DOI, res.Metadata.DOI)
	}
}

func TestDOIStrategy_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeDOI
		want    string
	}{
		{"http status", &fakeDOI{resp: &doi.Response{StatusCode: 404, Body: "not found"}}, "HTTP 404"},
		{"not bibtex", &fakeDOI{resp: &doi.Response{StatusCode: 200, Body: "<html>"}}, "HTTP 200"},
		{"transport", &fakeDOI{err: errors.New("connection refused")}, "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &DOIStrategy{Fetcher: tt.fetcher, Logger: discardLogger()}
			ec := citation.NewExtractionContext("/refs/a.pdf", "10.1234/abcd", citation.Metadata{})
			res := s.Execute(context.Background(), ec, testConfig(t), interact.NonInteractive{})
			if res.Outcome != citation.Failed || res.Message != tt.want {
				t.Errorf("Execute() = %v %q, want failed %q", res.Outcome, res.Message, tt.want)
			}
		})
	}
}

func TestDOIStrategy_LooksUpOnce(t *testing.T) {
	fetcher := &fakeDOI{}
	s := &DOIStrategy{Fetcher: fetcher, Logger: discardLogger()}
	// Same identifier in metadata and text, differing in case.
	ec := citation.NewExtractionContext("/refs/a.pdf", "doi: 10.1234/abcd", citation.Metadata{DOI: "10.1234/ABCD"})
	cfg := testConfig(t)

	first := s.Execute(context.Background(), ec, cfg, interact.NonInteractive{})
	second := s.Execute(context.Background(), ec, cfg, interact.NonInteractive{})

	if len(fetcher.calls) != 1 {
		t.Errorf("Fetch called %d times, want 1", len(fetcher.calls))
	}
	if first.Outcome != citation.Failed {
		t.Errorf("first Execute() = %v, want failed", first.Outcome)
	}
	if second.Outcome != citation.Skipped || second.Message != "DOI already tried" {
		t.Errorf("second Execute() = %v %q, want skipped", second.Outcome, second.Message)
	}
}

func TestStrategies_ApplyConfiguredTimeouts(t *testing.T) {
	const limit = 50 * time.Millisecond

	tests := []struct {
		name     string
		strategy Strategy
		md       citation.Metadata
		set      func(*config.Config)
	}{
		{
			name:     "doi",
			strategy: &DOIStrategy{Fetcher: &fakeDOI{block: true}, Logger: discardLogger()},
			md:       citation.Metadata{DOI: "10.1234/slow"},
			set:      func(c *config.Config) { c.DOITimeout = limit },
		},
		{
			name:     "scholar",
			strategy: &ScholarStrategy{Searcher: &fakeSearch{block: true}, Logger: discardLogger()},
			md:       citation.Metadata{Title: "Slow Search"},
			set:      func(c *config.Config) { c.ScholarTimeout = limit },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.set(cfg)
			ec := citation.NewExtractionContext("/refs/a.pdf", "text", tt.md)

			start := time.Now()
			res := tt.strategy.Execute(context.Background(), ec, cfg, interact.NonInteractive{})
			elapsed := time.Since(start)

			if res.Outcome != citation.Failed || res.Message != context.DeadlineExceeded.Error() {
				t.Errorf("Execute() = %v %q, want failed %q", res.Outcome, res.Message, context.DeadlineExceeded.Error())
			}
			if elapsed < limit || elapsed > 5*time.Second {
				t.Errorf("Execute() returned after %v, want about %v", elapsed, limit)
			}
		})
	}
}

func TestScholarStrategy_Applicable(t *testing.T) {
	s := &ScholarStrategy{Searcher: &fakeSearch{}}
	cfg := testConfig(t)

	ec := citation.NewExtractionContext("/refs/a.pdf", "text", citation.Metadata{})
	if s.Applicable(ec, cfg) || s.SkipReason(ec, cfg) != "No title candidate" {
		t.Error("expected not applicable without a title")
	}

	ec.Metadata.Title = "Phylogenetic Trees"
	if !s.Applicable(ec, cfg) {
		t.Error("expected applicable with an untried title")
	}
	ec.MarkTitleTried("PHYLOGENETIC TREES")
	if s.Applicable(ec, cfg) || s.SkipReason(ec, cfg) != "Title already tried" {
		t.Error("expected not applicable once the title was searched")
	}
}

func TestScholarStrategy_Execute(t *testing.T) {
	tests := []struct {
		name     string
		search   *fakeSearch
		outcome  citation.Outcome
		message  string
		wantBib  string
		wantDOIs string
	}{
		{
			name: "first result",
			search: &fakeSearch{papers: []s2.Paper{
				{PaperID: "p1", ExternalIDs: s2.ExternalIDs{DOI: "10.1/first"}, CitationStyles: s2.CitationStyles{BibTeX: " @article{first, title={A}} "}},
				{PaperID: "p2", CitationStyles: s2.CitationStyles{BibTeX: "@article{second, title={B}}"}},
			}},
			outcome:  citation.Success,
			wantBib:  "@article{first, title={A}}",
			wantDOIs: "10.1/first",
		},
		{
			name:    "no results",
			search:  &fakeSearch{},
			outcome: citation.Failed,
			message: "No Scholar results",
		},
		{
			name:    "search error",
			search:  &fakeSearch{err: errors.New("rate limited")},
			outcome: citation.Failed,
			message: "rate limited",
		},
		{
			name:    "not found counts as no results",
			search:  &fakeSearch{err: &s2.APIError{StatusCode: 404, Message: "HTTP 404"}},
			outcome: citation.Failed,
			message: "No Scholar results",
		},
		{
			name:    "no bibtex",
			search:  &fakeSearch{papers: []s2.Paper{{PaperID: "p1"}}, bib: "Title only"},
			outcome: citation.Failed,
			message: "Scholar result had no BibTeX",
		},
		{
			name:    "unparseable bibtex",
			search:  &fakeSearch{papers: []s2.Paper{{PaperID: "p1"}}, bib: "@['JournalArticle']{K,\n year = {2017}\n}"},
			outcome: citation.Failed,
			message: "Scholar result had no BibTeX",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ScholarStrategy{Searcher: tt.search, Logger: discardLogger()}
			ec := citation.NewExtractionContext("/refs/a.pdf", "text", citation.Metadata{Title: "Some Title"})

			res := s.Execute(context.Background(), ec, testConfig(t), interact.NonInteractive{})
			if res.Outcome != tt.outcome || res.Message != tt.message {
				t.Fatalf("Execute() = %v %q, want %v %q", res.Outcome, res.Message, tt.outcome, tt.message)
			}
			if res.BibTeX != tt.wantBib {
				t.Errorf("BibTeX = %q, want %q", res.BibTeX, tt.wantBib)
			}
			if res.Metadata.DOI != tt.wantDOIs {
				t.Errorf("Metadata.DOI = %q, want %q", res.Metadata.DOI, tt.wantDOIs)
			}
			if !ec.TitleTried("some title") {
				t.Error("title not marked as tried")
			}
			if ec.Metadata.DOI != "" {
				t.Error("Execute() merged result metadata into the context")
			}
		})
	}
}

func TestManualStrategy_MissingFieldsStopsPrompting(t *testing.T) {
	in := &scripted{answers: map[string]string{"Authors (BibTeX format)": "Doe, Jane"}}
	ec := citation.NewExtractionContext("/refs/My Paper.pdf", "text", citation.Metadata{Year: "2024"})

	res := (&ManualStrategy{Logger: discardLogger()}).Execute(context.Background(), ec, testConfig(t), in)
	if res.Outcome != citation.Failed || res.Message != "Missing required fields" {
		t.Fatalf("Execute() = %v %q", res.Outcome, res.Message)
	}
	want := []string{"Title", "Authors (BibTeX format)", "Journal", "Year"}
	if diff := cmp.Diff(want, in.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
	if in.defaults["Title"] != "My Paper" || in.defaults["Year"] != "2024" {
		t.Errorf("defaults = %v", in.defaults)
	}
}

func TestManualStrategy_FullEntry(t *testing.T) {
	in := &scripted{answers: map[string]string{
		"Authors (BibTeX format)": "Doe, Jane and Roe, Rick",
		"Journal":                 "Journal of Tests",
		"Pages (optional)":        "1--10",
		"URL (optional)":          "https://example.org/p",
	}}
	ec := citation.NewExtractionContext("/refs/My Paper.pdf", "text", citation.Metadata{
		Title: "Detected Title",
		Year:  "2023",
		DOI:   "10.1234/abcd",
	})

	res := (&ManualStrategy{Logger: discardLogger()}).Execute(context.Background(), ec, testConfig(t), in)
	if res.Outcome != citation.NeedsReview || res.Message != "Manual entry" {
		t.Fatalf("Execute() = %v %q", res.Outcome, res.Message)
	}

	want := "@article{MyPaper,\n" +
		"    author = {Doe, Jane and Roe, Rick},\n" +
		"    title = {Detected Title},\n" +
		"    journal = {Journal of Tests},\n" +
		"    year = {2023},\n" +
		"    pages = {1--10},\n" +
		"    doi = {10.1234/abcd},\n" +
		"    url = {https://example.org/p}\n" +
		"}\n"
	if diff := cmp.Diff(want, res.BibTeX); diff != "" {
		t.Errorf("BibTeX mismatch (-want +got):\n%s", diff)
	}

	wantMD := citation.Metadata{
		Title:   "Detected Title",
		Author:  "Doe, Jane and Roe, Rick",
		Year:    "2023",
		Journal: "Journal of Tests",
		DOI:     "10.1234/abcd",
	}
	if diff := cmp.Diff(wantMD, res.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestManualStrategy_MinimalRecordRoundTrip(t *testing.T) {
	in := &scripted{answers: map[string]string{
		"Title":                   "A Title",
		"Authors (BibTeX format)": "Doe, Jane",
		"Journal":                 "J",
		"Year":                    "2024",
	}}
	ec := citation.NewExtractionContext("/refs/paper.pdf", "text", citation.Metadata{})
	res := (&ManualStrategy{}).Execute(context.Background(), ec, testConfig(t), in)

	db, err := bibtex.Parse(res.BibTeX)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(db.Entries))
	}
	e := db.Entries[0]
	want := []bibtex.Field{
		{Name: "author", Value: "Doe, Jane"},
		{Name: "title", Value: "A Title"},
		{Name: "journal", Value: "J"},
		{Name: "year", Value: "2024"},
	}
	if diff := cmp.Diff(want, e.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if e.Type != "article" || e.Key != "paper" {
		t.Errorf("entry = @%s{%s}", e.Type, e.Key)
	}
}
