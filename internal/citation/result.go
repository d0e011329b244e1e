package citation

import "strings"

// Outcome is the result classification of one strategy attempt.
type Outcome int

const (
	Success Outcome = iota
	NeedsReview
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NeedsReview:
		return "needs_review"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// HasCandidate is true for outcomes that offer a citation for confirmation.
// Success and NeedsReview differ only in the audit trail.
func (o Outcome) HasCandidate() bool {
	return o == Success || o == NeedsReview
}

// Result is returned by every strategy invocation.
type Result struct {
	Outcome  Outcome
	BibTeX   string   // Only set for Success and NeedsReview
	Metadata Metadata // Fields discovered during this attempt
	Message  string
}

// Usable reports whether the result carries a non-blank candidate citation.
func (r Result) Usable() bool {
	return r.Outcome.HasCandidate() && strings.TrimSpace(r.BibTeX) != ""
}

// Skip returns a Skipped result with msg.
func Skip(msg string) Result {
	return Result{Outcome: Skipped, Message: msg}
}

// Fail returns a Failed result with msg.
func Fail(msg string) Result {
	return Result{Outcome: Failed, Message: msg}
}
