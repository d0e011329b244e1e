package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/matsen/citeflow/internal/bibtex"
	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/doi"
	"github.com/matsen/citeflow/internal/interact"
	"github.com/matsen/citeflow/internal/pdf"
	"github.com/matsen/citeflow/internal/s2"
)

// Strategy is one way of producing a BibTeX candidate for a document.
type Strategy interface {
	// Name is recorded in the run log.
	Name() string
	// Step is the tracker step the strategy reports to.
	Step() StepKey
	// Applicable reports whether Execute is worth running. It must not
	// mutate ec or perform I/O.
	Applicable(ec *citation.ExtractionContext, cfg *config.Config) bool
	// SkipReason explains why Applicable returned false.
	SkipReason(ec *citation.ExtractionContext, cfg *config.Config) string
	Execute(ctx context.Context, ec *citation.ExtractionContext, cfg *config.Config, in interact.Provider) citation.Result
}

// DOIFetcher resolves an identifier to a BibTeX response.
type DOIFetcher interface {
	Fetch(ctx context.Context, id string) (*doi.Response, error)
}

// Searcher runs scholarly title searches.
type Searcher interface {
	Search(ctx context.Context, title string) iter.Seq2[s2.Paper, error]
	BibTeX(ctx context.Context, paper s2.Paper) (string, error)
}

// DOIStrategy resolves the document's identifier through the DOI resolver.
type DOIStrategy struct {
	Fetcher DOIFetcher
	Logger  *slog.Logger
}

func (s *DOIStrategy) Name() string  { return "doi" }
func (s *DOIStrategy) Step() StepKey { return StepDOI }

// identifier prefers a DOI already in the metadata over one found in the text.
func (s *DOIStrategy) identifier(ec *citation.ExtractionContext) string {
	if ec.Metadata.DOI != "" {
		return ec.Metadata.DOI
	}
	return pdf.FindDOI(ec.RawText)
}

func (s *DOIStrategy) Applicable(ec *citation.ExtractionContext, cfg *config.Config) bool {
	return !cfg.SkipDOI && s.identifier(ec) != ""
}

func (s *DOIStrategy) SkipReason(ec *citation.ExtractionContext, cfg *config.Config) string {
	if cfg.SkipDOI {
		return "Disabled via --skip-doi"
	}
	if s.identifier(ec) == "" {
		return "No DOI detected"
	}
	return "Not applicable"
}

func (s *DOIStrategy) Execute(ctx context.Context, ec *citation.ExtractionContext, cfg *config.Config, _ interact.Provider) citation.Result {
	id := s.identifier(ec)
	if id == "" {
		return citation.Skip("No DOI in context")
	}
	tried := pdf.NormalizeDOI(id)
	if ec.IdentifierTried(tried) {
		return citation.Skip("DOI already tried")
	}
	ec.MarkIdentifierTried(tried)

	logger := loggerOr(s.Logger)
	logger.Info("Attempting DOI lookup", "doi", id)

	if cfg.DOITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DOITimeout)
		defer cancel()
	}

	resp, err := s.Fetcher.Fetch(ctx, id)
	if err != nil {
		logger.Warn("DOI lookup error", "pdf", ec.DocumentName(), "error", err)
		return citation.Fail(err.Error())
	}
	if !resp.IsBibTeX() {
		logger.Warn("DOI lookup failed", "pdf", ec.DocumentName(), "status", resp.StatusCode)
		return citation.Fail(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	logger.Info("DOI lookup succeeded", "pdf", ec.DocumentName())
	ec.Metadata.SetIfAbsent(citation.KeyDOI, id)
	return citation.Result{
		Outcome:  citation.Success,
		BibTeX:   strings.TrimSpace(resp.Body),
		Metadata: ec.Metadata.Clone(),
	}
}

// ScholarStrategy searches Semantic Scholar for the detected title and takes
// the first hit.
type ScholarStrategy struct {
	Searcher Searcher
	Logger   *slog.Logger
}

func (s *ScholarStrategy) Name() string  { return "scholar" }
func (s *ScholarStrategy) Step() StepKey { return StepScholar }

func (s *ScholarStrategy) Applicable(ec *citation.ExtractionContext, _ *config.Config) bool {
	title := ec.Metadata.Title
	return title != "" && !ec.TitleTried(title)
}

func (s *ScholarStrategy) SkipReason(ec *citation.ExtractionContext, _ *config.Config) string {
	title := ec.Metadata.Title
	if title == "" {
		return "No title candidate"
	}
	if ec.TitleTried(title) {
		return "Title already tried"
	}
	return "Not applicable"
}

func (s *ScholarStrategy) Execute(ctx context.Context, ec *citation.ExtractionContext, cfg *config.Config, _ interact.Provider) citation.Result {
	title := ec.Metadata.Title
	if title == "" {
		return citation.Skip("No title candidate")
	}
	if ec.TitleTried(title) {
		return citation.Skip("Title already tried")
	}
	ec.MarkTitleTried(title)

	logger := loggerOr(s.Logger)
	logger.Info("Searching Scholar", "title", title)

	if cfg.ScholarTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ScholarTimeout)
		defer cancel()
	}

	next, stop := iter.Pull2(s.Searcher.Search(ctx, title))
	first, err, found := next()
	stop()
	switch {
	case s2.IsNotFound(err):
		found = false
	case s2.IsRateLimited(err):
		logger.Warn("Scholar search rate limited, set S2_API_KEY for a higher limit", "pdf", ec.DocumentName())
		return citation.Fail(err.Error())
	case err != nil:
		logger.Warn("Scholar lookup error", "pdf", ec.DocumentName(), "error", err)
		return citation.Fail(err.Error())
	}
	if !found {
		return citation.Fail("No Scholar results")
	}

	bib, err := s.Searcher.BibTeX(ctx, first)
	if err != nil {
		logger.Warn("Scholar BibTeX fetch failed", "pdf", ec.DocumentName(), "paper", first.PaperID, "error", err)
	}
	bib = strings.TrimSpace(bib)
	if !bibtex.HasRecord(bib) {
		return citation.Fail("Scholar result had no BibTeX")
	}

	logger.Info("Scholar lookup succeeded", "pdf", ec.DocumentName())
	md := ec.Metadata.Clone()
	md.SetIfAbsent(citation.KeyDOI, first.ExternalIDs.DOI)
	return citation.Result{
		Outcome:  citation.Success,
		BibTeX:   bib,
		Metadata: md,
	}
}

// ManualStrategy asks the operator for every field. It always applies and
// is tried last.
type ManualStrategy struct {
	Logger *slog.Logger
}

func (s *ManualStrategy) Name() string  { return "manual" }
func (s *ManualStrategy) Step() StepKey { return StepManual }

func (s *ManualStrategy) Applicable(*citation.ExtractionContext, *config.Config) bool { return true }

func (s *ManualStrategy) SkipReason(*citation.ExtractionContext, *config.Config) string {
	return "Not applicable"
}

func (s *ManualStrategy) Execute(_ context.Context, ec *citation.ExtractionContext, _ *config.Config, in interact.Provider) citation.Result {
	loggerOr(s.Logger).Info("Prompting for manual citation", "pdf", ec.DocumentName())

	titleDefault := ec.Metadata.Title
	if titleDefault == "" {
		titleDefault = ec.DocumentStem()
	}
	title := in.Prompt("Title", titleDefault)
	authors := in.Prompt("Authors (BibTeX format)", "")
	journal := in.Prompt("Journal", "")
	year := in.Prompt("Year", ec.Metadata.Year)
	if title == "" || authors == "" || journal == "" || year == "" {
		return citation.Fail("Missing required fields")
	}

	id := in.Prompt("DOI (optional)", ec.Metadata.DOI)
	pages := in.Prompt("Pages (optional)", "")
	volume := in.Prompt("Volume (optional)", "")
	number := in.Prompt("Number (optional)", "")
	url := in.Prompt("URL (optional)", "")
	key := in.Prompt("BibTeX key", strings.ReplaceAll(ec.DocumentStem(), " ", ""))

	entry := bibtex.Entry{Type: "article", Key: key}
	entry.Add("author", authors)
	entry.Add("title", title)
	entry.Add("journal", journal)
	entry.Add("year", year)
	entry.Add("volume", volume)
	entry.Add("number", number)
	entry.Add("pages", pages)
	entry.Add("doi", id)
	entry.Add("url", url)

	return citation.Result{
		Outcome: citation.NeedsReview,
		BibTeX:  entry.String(),
		Metadata: citation.Metadata{
			Title:   title,
			Author:  authors,
			Year:    year,
			Journal: journal,
			DOI:     id,
		},
		Message: "Manual entry",
	}
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
