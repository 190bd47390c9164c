package views

import (
	"fmt"
	"math"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
	"cvmatch-console/internal/selection"
	"cvmatch-console/internal/session"
)

const (
	LoaderText       = "Analyzing CVs..."
	ViewDetailsLabel = "View Details"
	HideDetailsLabel = "Hide Details"
)

// Summary is the header of the result view. All fields are zero for an empty set.
type Summary struct {
	Count   int `json:"count"`
	Average int `json:"average"`
	Max     int `json:"max"`
}

// Summarize computes count, rounded mean and maximum score.
func Summarize(rs []analysis.Result) Summary {
	if len(rs) == 0 {
		return Summary{}
	}
	sum := 0
	top := rs[0].Score
	for _, r := range rs {
		sum += r.Score
		if r.Score > top {
			top = r.Score
		}
	}
	return Summary{
		Count:   len(rs),
		Average: int(math.Round(float64(sum) / float64(len(rs)))),
		Max:     top,
	}
}

// Status is the score band badge.
type Status struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// StatusFor maps a score to its band.
func StatusFor(score int) Status {
	switch {
	case score >= 80:
		return Status{Label: "Excellent Match", Color: "#2ecc71"}
	case score >= 60:
		return Status{Label: "Good Match", Color: "#f1c40f"}
	default:
		return Status{Label: "Needs Review", Color: "#e74c3c"}
	}
}

type Row struct {
	ParticipantID string `json:"participant_id"`
	CandidateName string `json:"candidate_name"`
	Score         int    `json:"score"`
	Status        Status `json:"status"`
	Selected      bool   `json:"selected"`
	ToggleLabel   string `json:"toggle_label"`
}

type Table struct {
	Key       results.SortKey   `json:"sort_key"`
	Direction results.Direction `json:"direction"`
	Arrow     string            `json:"arrow"`
	Rows      []Row             `json:"rows"`
}

// BuildTable renders the store in its current order.
func BuildTable(store results.Store) Table {
	t := Table{
		Key:       store.Key(),
		Direction: store.Direction(),
		Arrow:     Arrow(store.Direction()),
	}
	selected := store.SelectedID()
	for _, r := range store.Sorted() {
		isSelected := selected != "" && r.ParticipantID == selected
		label := ViewDetailsLabel
		if isSelected {
			label = HideDetailsLabel
		}
		t.Rows = append(t.Rows, Row{
			ParticipantID: r.ParticipantID,
			CandidateName: r.CandidateName,
			Score:         r.Score,
			Status:        StatusFor(r.Score),
			Selected:      isSelected,
			ToggleLabel:   label,
		})
	}
	return t
}

// Arrow is the sort indicator next to the score header.
func Arrow(dir results.Direction) string {
	if dir == results.Asc {
		return "↑"
	}
	return "↓"
}

type Reason struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type Detail struct {
	ParticipantID string   `json:"participant_id"`
	CandidateName string   `json:"candidate_name"`
	Score         int      `json:"score"`
	Status        Status   `json:"status"`
	Reasons       []Reason `json:"reasons"`
}

// BuildDetail renders the selected candidate with reasons numbered from 1.
func BuildDetail(store results.Store) (Detail, bool) {
	r, ok := store.Selected()
	if !ok {
		return Detail{}, false
	}
	d := Detail{
		ParticipantID: r.ParticipantID,
		CandidateName: r.CandidateName,
		Score:         r.Score,
		Status:        StatusFor(r.Score),
		Reasons:       make([]Reason, 0, len(r.Reasons)),
	}
	for i, text := range r.Reasons {
		d.Reasons = append(d.Reasons, Reason{Number: i + 1, Text: text})
	}
	return d, true
}

type Loader struct {
	Text    string `json:"text"`
	Percent int    `json:"percent"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Counter is the "current/total" text, empty before the first progress event.
func (l Loader) Counter() string {
	if l.Total == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", l.Current, l.Total)
}

// Page is everything the console renders for one snapshot.
type Page struct {
	Phase       string                `json:"phase"`
	Seq         uint64                `json:"seq"`
	Selection   selection.Description `json:"selection"`
	Messages    session.Messages      `json:"messages"`
	Loader      *Loader               `json:"loader,omitempty"`
	Error       string                `json:"error,omitempty"`
	ErrorCode   string                `json:"error_code,omitempty"`
	ShowResults bool                  `json:"show_results"`
	Summary     Summary               `json:"summary"`
	Table       Table                 `json:"table"`
	Detail      *Detail               `json:"detail,omitempty"`
}

// BuildPage derives the page from a session snapshot.
func BuildPage(snap session.Snapshot) Page {
	st := snap.State
	p := Page{
		Phase:     st.Phase.String(),
		Seq:       st.Seq,
		Selection: snap.Selection,
		Messages:  snap.Messages,
	}
	switch st.Phase {
	case session.Loading:
		p.Loader = &Loader{
			Text:    LoaderText,
			Percent: st.Progress.Percent,
			Current: st.Progress.Current,
			Total:   st.Progress.Total,
		}
	case session.Error:
		p.Error = ErrorBanner(st.Err)
		p.ErrorCode = st.ErrCode
	}
	if st.ShowResults() {
		p.ShowResults = true
		p.Summary = Summarize(st.Store.Results())
		p.Table = BuildTable(st.Store)
		if d, ok := BuildDetail(st.Store); ok {
			p.Detail = &d
		}
	}
	return p
}

// ErrorBanner formats an error message for display.
func ErrorBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return "Error: " + msg
}
