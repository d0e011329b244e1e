// Package pipeline turns reference PDFs into bibliography entries. Each
// document is tried against a fixed chain of strategies (DOI lookup, scholar
// search, manual entry); the first usable candidate is reviewed, appended to
// the bibliography and the PDF renamed. Documents nothing resolves are
// quarantined.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/citeflow/internal/bibtex"
	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/doi"
	"github.com/matsen/citeflow/internal/filing"
	"github.com/matsen/citeflow/internal/interact"
	"github.com/matsen/citeflow/internal/ledger"
	"github.com/matsen/citeflow/internal/pdf"
	"github.com/matsen/citeflow/internal/s2"
)

// Rejection reasons.
const (
	ReasonNoText    = "Unable to extract text"
	ReasonExhausted = "All strategies exhausted"
)

// Run log reasons for discarded candidates.
const (
	ReasonUserRejected = "user_rejected"
	ReasonStoreFailed  = "store_failed"
	ReasonInterrupted  = "interrupted"
)

// TextExtractor returns the text of a document's first pages, or "" when
// nothing could be read.
type TextExtractor interface {
	ExtractText(path string) string
}

// Deps are the external collaborators of a pipeline. Nil fields get the
// production implementation.
type Deps struct {
	Extractor TextExtractor
	DOI       DOIFetcher
	Search    Searcher
	Input     interact.Provider
}

// Pipeline processes reference PDFs one at a time.
type Pipeline struct {
	cfg        *config.Config
	extractor  TextExtractor
	input      interact.Provider
	strategies []Strategy
	store      *bibtex.Store
	filer      *filing.Filer
	runLog     *ledger.RunLog
	rejections *ledger.RejectionLog
	logger     *slog.Logger
}

// New creates a pipeline for cfg. The strategy chain is always DOI lookup,
// then scholar search, then manual entry.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Extractor == nil {
		deps.Extractor = pdf.NewExtractor(logger)
	}
	if deps.DOI == nil {
		deps.DOI = doi.NewClient()
	}
	if deps.Search == nil {
		deps.Search = s2.NewClient(s2.WithAPIKey(cfg.S2APIKey))
	}
	if deps.Input == nil {
		deps.Input = interact.ForMode(cfg.Interactive)
	}

	return &Pipeline{
		cfg:       cfg,
		extractor: deps.Extractor,
		input:     deps.Input,
		strategies: []Strategy{
			&DOIStrategy{Fetcher: deps.DOI, Logger: logger},
			&ScholarStrategy{Searcher: deps.Search, Logger: logger},
			&ManualStrategy{Logger: logger},
		},
		store:      bibtex.NewStore(cfg.OutputBib),
		filer:      filing.NewFiler(cfg.RejectedDir),
		runLog:     ledger.NewRunLog(cfg.RunLogPath),
		rejections: ledger.NewRejectionLog(cfg.RejectedLog),
		logger:     logger,
	}
}

// ProcessDirectory processes every *.pdf in the references directory in
// name order and writes the run summary. An empty directory is not an
// error. It stops early only when ctx is done.
func (p *Pipeline) ProcessDirectory(ctx context.Context) (ledger.Stats, error) {
	var stats ledger.Stats

	pdfs, err := filepath.Glob(filepath.Join(p.cfg.ReferencesDir, "*.pdf"))
	if err != nil {
		return stats, fmt.Errorf("listing PDFs: %w", err)
	}
	sort.Strings(pdfs)

	if len(pdfs) == 0 {
		p.logger.Info("No PDF files found", "dir", p.cfg.ReferencesDir)
	}

	for _, path := range pdfs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Record(p.ProcessDocument(ctx, path))
	}

	if err := ledger.WriteSummary(p.cfg.SummaryPath, stats); err != nil {
		p.logger.Error("Failed to write summary", "path", p.cfg.SummaryPath, "error", err)
	}
	return stats, nil
}

// ProcessDocument runs one document through the strategy chain and returns
// true if a citation was accepted and stored. Every step ends non-pending.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) bool {
	name := filepath.Base(path)
	p.logger.Info("Processing", "pdf", name)

	tr := NewTracker(func(line string) { p.logger.Info(line) })

	text := p.extractor.ExtractText(path)
	if strings.TrimSpace(text) == "" {
		tr.Set(StepText, StateFailed, "No text extracted")
		tr.FinalizePending()
		p.reject(path, ReasonNoText, tr)
		return false
	}
	tr.Set(StepText, StateSuccess, "")

	ec := citation.NewExtractionContext(path, text, DeriveMetadata(text))

	for _, s := range p.strategies {
		step := s.Step()
		if !s.Applicable(ec, p.cfg) {
			tr.Set(step, StateSkipped, s.SkipReason(ec, p.cfg))
			continue
		}

		res := s.Execute(ctx, ec, p.cfg, p.input)
		ec.Metadata.Merge(res.Metadata)

		switch res.Outcome {
		case citation.Success, citation.NeedsReview:
			tr.Set(step, StateSuccess, res.Message)
		case citation.Skipped:
			tr.Set(step, StateSkipped, res.Message)
			continue
		default:
			tr.Set(step, StateFailed, res.Message)
			continue
		}

		if !res.Usable() {
			continue
		}
		return p.reviewAndStore(path, s, res, tr)
	}

	tr.SetIfPending(StepManual, StateSkipped, "No viable strategy")
	tr.SetIfPending(StepReview, StateSkipped, "No candidate")
	tr.SetIfPending(StepStore, StateSkipped, "No candidate")
	tr.FinalizePending()

	if err := ctx.Err(); err != nil {
		p.logger.Warn("Interrupted, leaving document in place", "pdf", name, "error", err)
		p.logRun(name, ledger.NoStrategy, ledger.StatusDiscarded, tr, map[string]any{
			"reason": ReasonInterrupted,
		})
		return false
	}
	p.reject(path, ReasonExhausted, tr)
	return false
}

// reviewAndStore asks for confirmation of the candidate, then appends it to
// the bibliography and renames the PDF.
func (p *Pipeline) reviewAndStore(path string, s Strategy, res citation.Result, tr *Tracker) bool {
	name := filepath.Base(path)
	summary := bibtex.Summarize(res.BibTeX)
	label := s.Step().Label()

	p.logger.Info("Candidate citation", "pdf", name)
	for _, f := range []struct{ label, value string }{
		{"Title", summary.Title},
		{"Author", summary.Author},
		{"Journal", summary.Journal},
		{"Year", summary.Year},
		{"DOI", summary.DOI},
	} {
		if f.value != "" {
			p.logger.Info(fmt.Sprintf("    • %s: %s", f.label, f.value))
		}
	}

	if !p.input.Confirm(fmt.Sprintf("  Accept this entry? (%s)", label), true) {
		p.logger.Warn("User rejected citation", "pdf", name)
		tr.Set(StepReview, StateFailed, "User rejected candidate")
		tr.SetIfPending(StepStore, StateSkipped, NoteNotReached)
		tr.FinalizePending()
		p.logRun(name, s.Name(), ledger.StatusDiscarded, tr, map[string]any{
			"metadata": res.Metadata.Map(),
			"reason":   ReasonUserRejected,
		})
		return false
	}
	tr.Set(StepReview, StateSuccess, "")
	p.logger.Info("Approval: derived from " + label)

	if err := p.store.Append(res.BibTeX); err != nil {
		p.logger.Error("Failed to append citation", "path", p.cfg.OutputBib, "error", err)
		tr.Set(StepStore, StateFailed, "Failed to write references.bib")
		tr.FinalizePending()
		p.logRun(name, s.Name(), ledger.StatusDiscarded, tr, map[string]any{
			"metadata": res.Metadata.Map(),
			"reason":   ReasonStoreFailed,
		})
		return false
	}
	p.logger.Info("Appended citation", "path", p.cfg.OutputBib)

	author, year := summary.Author, summary.Year
	if summary.IsEmpty() {
		author, year = res.Metadata.Author, res.Metadata.Year
	}
	renamed, err := p.filer.RenameForCitation(path, author, year)
	if err != nil {
		p.logger.Warn("Failed to rename", "pdf", name, "error", err)
	} else if renamed != path {
		p.logger.Info("Renamed", "from", name, "to", filepath.Base(renamed))
	}
	tr.Set(StepStore, StateSuccess, "")

	markNotNeeded(tr, s.Step())
	tr.FinalizePending()

	p.logRun(name, s.Name(), ledger.StatusAccepted, tr, map[string]any{
		"metadata":       res.Metadata.Map(),
		"bibtex_summary": summary,
	})
	return true
}

// markNotNeeded annotates the strategies after the one that resolved the
// document.
func markNotNeeded(tr *Tracker, resolved StepKey) {
	switch resolved {
	case StepDOI:
		tr.SetIfPending(StepScholar, StateSkipped, "Resolved via DOI")
		tr.SetIfPending(StepManual, StateSkipped, "Not needed")
	case StepScholar:
		tr.SetIfPending(StepManual, StateSkipped, "Not needed")
	}
}

// reject quarantines the document and records why.
func (p *Pipeline) reject(path, reason string, tr *Tracker) {
	name := filepath.Base(path)
	p.logger.Warn("Rejecting", "pdf", name, "reason", reason)

	dest, err := p.filer.Quarantine(path)
	if err != nil {
		p.logger.Error("Failed to move to rejected directory", "pdf", name, "error", err)
	}
	if err := p.rejections.Append(filepath.Base(dest), reason); err != nil {
		p.logger.Error("Failed to write rejection log", "path", p.cfg.RejectedLog, "error", err)
	}
	p.logRun(name, ledger.NoStrategy, ledger.StatusRejected, tr, map[string]any{
		"reason": reason,
	})
}

// logRun records the document's outcome along with its final step states.
func (p *Pipeline) logRun(name, strategy, status string, tr *Tracker, extras map[string]any) {
	if tr.HasPending() {
		p.logger.Warn("Recording document with unfinished steps", "pdf", name)
		tr.FinalizePending()
	}
	extras["steps"] = tr.Snapshot()
	err := p.runLog.Write(ledger.Entry{
		Document: name,
		Strategy: strategy,
		Status:   status,
		Extras:   extras,
	})
	if err != nil {
		p.logger.Error("Failed to write run log", "path", p.cfg.RunLogPath, "error", err)
	}
}
