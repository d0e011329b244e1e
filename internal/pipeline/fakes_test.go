package pipeline

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/doi"
	"github.com/matsen/citeflow/internal/interact"
	"github.com/matsen/citeflow/internal/s2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type textFunc func(path string) string

func (f textFunc) ExtractText(path string) string { return f(path) }

// fakeDOI answers 404 unless resp is set. When block is set, Fetch waits
// for ctx to end.
type fakeDOI struct {
	resp  *doi.Response
	err   error
	block bool
	calls []string
}

func (f *fakeDOI) Fetch(ctx context.Context, id string) (*doi.Response, error) {
	f.calls = append(f.calls, id)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &doi.Response{StatusCode: 404}, nil
	}
	return f.resp, nil
}

type fakeSearch struct {
	papers   []s2.Paper
	err      error
	bib      string
	block    bool
	searches []string
}

func (f *fakeSearch) Search(ctx context.Context, title string) iter.Seq2[s2.Paper, error] {
	f.searches = append(f.searches, title)
	return func(yield func(s2.Paper, error) bool) {
		if f.block {
			<-ctx.Done()
			yield(s2.Paper{}, ctx.Err())
			return
		}
		if f.err != nil {
			yield(s2.Paper{}, f.err)
			return
		}
		for _, p := range f.papers {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeSearch) BibTeX(_ context.Context, p s2.Paper) (string, error) {
	if p.CitationStyles.BibTeX != "" {
		return p.CitationStyles.BibTeX, nil
	}
	return f.bib, nil
}

// scripted answers prompts from a map and records every prompt shown.
type scripted struct {
	answers  map[string]string
	decline  bool
	prompts  []string
	defaults map[string]string
	confirms []string
}

func (s *scripted) Prompt(message, def string) string {
	s.prompts = append(s.prompts, message)
	if s.defaults == nil {
		s.defaults = make(map[string]string)
	}
	s.defaults[message] = def
	if v, ok := s.answers[message]; ok {
		return v
	}
	return def
}

func (s *scripted) Confirm(message string, defYes bool) bool {
	s.confirms = append(s.confirms, message)
	return !s.decline
}

var _ interact.Provider = (*scripted)(nil)

// stubStrategy returns a fixed result and counts executions.
type stubStrategy struct {
	name   string
	step   StepKey
	result citation.Result
	runs   int
}

func (s *stubStrategy) Name() string  { return s.name }
func (s *stubStrategy) Step() StepKey { return s.step }

func (s *stubStrategy) Applicable(*citation.ExtractionContext, *config.Config) bool { return true }

func (s *stubStrategy) SkipReason(*citation.ExtractionContext, *config.Config) string { return "" }

func (s *stubStrategy) Execute(context.Context, *citation.ExtractionContext, *config.Config, interact.Provider) citation.Result {
	s.runs++
	return s.result
}
