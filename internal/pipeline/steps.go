package pipeline

import "fmt"

// StepKey identifies one of the six fixed stages of processing a document.
type StepKey string

// Steps in processing order.
const (
	StepText    StepKey = "text"
	StepDOI     StepKey = "doi"
	StepScholar StepKey = "scholar"
	StepManual  StepKey = "manual"
	StepReview  StepKey = "review"
	StepStore   StepKey = "store"
)

// Steps lists every step key in processing order.
var Steps = []StepKey{StepText, StepDOI, StepScholar, StepManual, StepReview, StepStore}

var stepLabels = map[StepKey]string{
	StepText:    "Extract text (first two pages)",
	StepDOI:     "Strategy 1: DOI lookup",
	StepScholar: "Strategy 2: Scholar lookup",
	StepManual:  "Strategy 3: Manual entry prompts",
	StepReview:  "Review + confirm",
	StepStore:   "Append to references.bib + rename PDF",
}

// Label returns the human-readable step name.
func (k StepKey) Label() string {
	if l, ok := stepLabels[k]; ok {
		return l
	}
	return string(k)
}

// State is the progress of one step.
type State string

// Step states.
const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateSkipped State = "skipped"
	StateFailed  State = "failed"
)

// Glyph returns the checkbox symbol for the state.
func (s State) Glyph() string {
	switch s {
	case StateSuccess:
		return "[x]"
	case StateSkipped:
		return "[-]"
	case StateFailed:
		return "[!]"
	default:
		return "[ ]"
	}
}

// NoteNotReached is given to steps still pending when a document terminates.
const NoteNotReached = "Not reached"

// StepStatus is the state of one step with an optional note.
type StepStatus struct {
	State State  `json:"state"`
	Note  string `json:"note,omitempty"`
}

// Tracker records per-step progress for one document. Every transition is
// reported to emit as one line.
type Tracker struct {
	steps map[StepKey]StepStatus
	emit  func(string)
}

// NewTracker creates a tracker with every step pending. A nil emit discards
// transition lines.
func NewTracker(emit func(string)) *Tracker {
	t := &Tracker{steps: make(map[StepKey]StepStatus, len(Steps)), emit: emit}
	for _, k := range Steps {
		t.steps[k] = StepStatus{State: StatePending}
	}
	return t
}

// Set moves key to state and emits the transition.
// Unknown keys are ignored.
func (t *Tracker) Set(key StepKey, state State, note string) {
	if _, ok := t.steps[key]; !ok {
		return
	}
	t.steps[key] = StepStatus{State: state, Note: note}
	if t.emit != nil {
		t.emit(FormatStep(key, state, note))
	}
}

// SetIfPending is Set, applied only while key is still pending.
func (t *Tracker) SetIfPending(key StepKey, state State, note string) {
	if t.State(key) != StatePending {
		return
	}
	t.Set(key, state, note)
}

// FinalizePending marks every step still pending as skipped.
func (t *Tracker) FinalizePending() {
	for _, k := range Steps {
		t.SetIfPending(k, StateSkipped, NoteNotReached)
	}
}

// State returns the current state of key.
func (t *Tracker) State(key StepKey) State {
	s, ok := t.steps[key]
	if !ok {
		return ""
	}
	return s.State
}

// HasPending reports whether any step is still pending.
func (t *Tracker) HasPending() bool {
	for _, s := range t.steps {
		if s.State == StatePending {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of every step's status.
func (t *Tracker) Snapshot() map[StepKey]StepStatus {
	out := make(map[StepKey]StepStatus, len(t.steps))
	for k, v := range t.steps {
		out[k] = v
	}
	return out
}

// FormatStep renders one transition line, e.g. "[x] Review + confirm".
func FormatStep(key StepKey, state State, note string) string {
	line := fmt.Sprintf("%s %s", state.Glyph(), key.Label())
	if note != "" {
		line += " — " + note
	}
	return line
}
