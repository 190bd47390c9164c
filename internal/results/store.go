package results

import (
	"sort"
	"strings"

	"cvmatch-console/internal/analysis"
)

type SortKey string

const SortByScore SortKey = "score"

type Direction string

const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(raw string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	default:
		return "", false
	}
}

// ParseSortKey accepts the keys the table can be ordered by.
func ParseSortKey(raw string) (SortKey, bool) {
	if SortKey(strings.ToLower(strings.TrimSpace(raw))) == SortByScore {
		return SortByScore, true
	}
	return "", false
}

// Store is an immutable snapshot of a result set and its view state. The
// results are kept as delivered; sorting only changes the view order.
// Every operation returns a new Store; the receiver is never modified.
type Store struct {
	results  []analysis.Result
	order    []int
	key      SortKey
	dir      Direction
	selected string
}

// New returns a Store viewing results in the default order, score descending.
func New(results []analysis.Result) Store {
	return Store{}.Replace(results)
}

// Replace swaps in a new result set, clears the selection and restores the
// default order.
func (s Store) Replace(results []analysis.Result) Store {
	next := Store{
		results: make([]analysis.Result, len(results)),
		order:   make([]int, len(results)),
		key:     SortByScore,
		dir:     Desc,
	}
	copy(next.results, results)
	for i := range next.order {
		next.order[i] = i
	}
	next.sortInPlace()
	return next
}

// SortBy orders the view by key. Ties keep their current relative order.
// Unknown keys leave the order unchanged.
func (s Store) SortBy(key SortKey, dir Direction) Store {
	if key != SortByScore {
		return s
	}
	if dir != Asc {
		dir = Desc
	}
	next := s.clone()
	next.key = key
	next.dir = dir
	next.sortInPlace()
	return next
}

// ToggleSort flips the direction when key is already active and otherwise
// sorts by key descending.
func (s Store) ToggleSort(key SortKey) Store {
	if s.key == key && s.dir == Desc {
		return s.SortBy(key, Asc)
	}
	return s.SortBy(key, Desc)
}

// SelectCandidate toggles the detail selection. Ids not in the set are ignored.
func (s Store) SelectCandidate(id string) Store {
	if s.selected == id {
		return s.ClearSelection()
	}
	if _, ok := s.find(id); !ok {
		return s
	}
	next := s.clone()
	next.selected = id
	return next
}

// ClearSelection closes the detail view.
func (s Store) ClearSelection() Store {
	next := s.clone()
	next.selected = ""
	return next
}

// Results returns the result set in the order it was delivered.
func (s Store) Results() []analysis.Result {
	out := make([]analysis.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Sorted returns the result set in the current view order.
func (s Store) Sorted() []analysis.Result {
	out := make([]analysis.Result, 0, len(s.order))
	for _, i := range s.order {
		out = append(out, s.results[i])
	}
	return out
}

func (s Store) Len() int { return len(s.results) }

func (s Store) Key() SortKey { return s.key }

func (s Store) Direction() Direction { return s.dir }

// SelectedID returns the selected participant id or "".
func (s Store) SelectedID() string { return s.selected }

// Selected returns the selected result, if any.
func (s Store) Selected() (analysis.Result, bool) {
	if s.selected == "" {
		return analysis.Result{}, false
	}
	return s.find(s.selected)
}

func (s Store) find(id string) (analysis.Result, bool) {
	for _, r := range s.results {
		if r.ParticipantID == id {
			return r, true
		}
	}
	return analysis.Result{}, false
}

// clone copies the view order; the delivered results are shared read-only.
func (s Store) clone() Store {
	next := s
	next.order = make([]int, len(s.order))
	copy(next.order, s.order)
	return next
}

func (s *Store) sortInPlace() {
	asc := s.dir == Asc
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.results[s.order[i]].Score, s.results[s.order[j]].Score
		if asc {
			return a < b
		}
		return a > b
	})
}
