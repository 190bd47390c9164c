package session

import (
	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Error
	Success
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// State is an immutable UI snapshot. Transitions return a new State and a
// flag reporting whether they applied; stream transitions carry the
// submission sequence number and are dropped when it is not current.
type State struct {
	Phase    Phase
	Seq      uint64
	Progress analysis.Progress
	Err      string
	ErrCode  string
	Store    results.Store
}

// Begin enters Loading for submission seq.
func (s State) Begin(seq uint64) State {
	return State{
		Phase: Loading,
		Seq:   seq,
		Store: s.Store.ClearSelection(),
	}
}

// ApplyProgress records progress for the in-flight submission.
func (s State) ApplyProgress(seq uint64, p analysis.Progress) (State, bool) {
	if !s.accepts(seq) {
		return s, false
	}
	next := s
	next.Progress = p
	return next, true
}

// Complete installs the terminal result set.
func (s State) Complete(seq uint64, rs []analysis.Result) (State, bool) {
	if !s.accepts(seq) {
		return s, false
	}
	return State{
		Phase:    Success,
		Seq:      seq,
		Progress: s.Progress,
		Store:    s.Store.Replace(rs),
	}, true
}

// Fail ends the in-flight submission with err.
func (s State) Fail(seq uint64, err error) (State, bool) {
	if !s.accepts(seq) {
		return s, false
	}
	return State{
		Phase:    Error,
		Seq:      seq,
		Progress: s.Progress,
		Err:      analysis.UserMessage(err),
		ErrCode:  analysis.Code(err),
		Store:    s.Store,
	}, true
}

// Abort returns to Idle, abandoning the in-flight submission.
func (s State) Abort() (State, bool) {
	if s.Phase != Loading {
		return s, false
	}
	return State{Phase: Idle, Seq: s.Seq, Store: s.Store}, true
}

// Select toggles the detail view. Only a successful result set can be selected from.
func (s State) Select(id string) State {
	if s.Phase != Success {
		return s
	}
	next := s
	next.Store = s.Store.SelectCandidate(id)
	return next
}

// ClearSelection closes the detail view.
func (s State) ClearSelection() State {
	next := s
	next.Store = s.Store.ClearSelection()
	return next
}

// Sort reorders the result table.
func (s State) Sort(key results.SortKey, dir results.Direction) State {
	next := s
	next.Store = s.Store.SortBy(key, dir)
	return next
}

// ToggleSort flips the result table order.
func (s State) ToggleSort(key results.SortKey) State {
	next := s
	next.Store = s.Store.ToggleSort(key)
	return next
}

// ShowResults reports whether the result views are visible. A failed or
// aborted run keeps showing the previous result set.
func (s State) ShowResults() bool {
	return s.Phase != Loading && s.Store.Len() > 0
}

func (s State) accepts(seq uint64) bool {
	return s.Phase == Loading && s.Seq == seq
}
