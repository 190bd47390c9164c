package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
	"cvmatch-console/internal/session"
)

func sample() []analysis.Result {
	return []analysis.Result{
		{ParticipantID: "p1", CandidateName: "Ana", Score: 80, Reasons: []string{"Go", "Postgres"}},
		{ParticipantID: "p2", CandidateName: "Ben", Score: 60},
		{ParticipantID: "p3", CandidateName: "Cy", Score: 100},
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{Count: 3, Average: 80, Max: 100}, Summarize(sample()))
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{Count: 2, Average: 51, Max: 51}, Summarize([]analysis.Result{{Score: 50}, {Score: 51}}))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
		color string
	}{
		{score: 100, want: "Excellent Match", color: "#2ecc71"},
		{score: 80, want: "Excellent Match", color: "#2ecc71"},
		{score: 79, want: "Good Match", color: "#f1c40f"},
		{score: 60, want: "Good Match", color: "#f1c40f"},
		{score: 59, want: "Needs Review", color: "#e74c3c"},
		{score: 0, want: "Needs Review", color: "#e74c3c"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := StatusFor(tt.score)
			assert.Equal(t, tt.want, got.Label)
			assert.Equal(t, tt.color, got.Color)
		})
	}
}

func TestBuildTableAndDetail(t *testing.T) {
	store := results.New(sample()).SelectCandidate("p1")
	table := BuildTable(store)
	assert.Equal(t, "↓", table.Arrow)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "p3", table.Rows[0].ParticipantID)
	assert.Equal(t, ViewDetailsLabel, table.Rows[0].ToggleLabel)
	assert.True(t, table.Rows[1].Selected)
	assert.Equal(t, HideDetailsLabel, table.Rows[1].ToggleLabel)

	detail, ok := BuildDetail(store)
	require.True(t, ok)
	assert.Equal(t, []Reason{{Number: 1, Text: "Go"}, {Number: 2, Text: "Postgres"}}, detail.Reasons)

	_, ok = BuildDetail(store.ClearSelection())
	assert.False(t, ok)

	assert.Equal(t, "↑", BuildTable(store.ToggleSort(results.SortByScore)).Arrow)
}

func TestBuildPageLoading(t *testing.T) {
	st, _ := session.State{}.Begin(1).ApplyProgress(1, analysis.Progress{Percent: 33, Current: 1, Total: 3})
	p := BuildPage(session.Snapshot{State: st})
	require.NotNil(t, p.Loader)
	assert.Equal(t, LoaderText, p.Loader.Text)
	assert.Equal(t, "1/3", p.Loader.Counter())
	assert.False(t, p.ShowResults)
	assert.Equal(t, "loading", p.Phase)
}

func TestBuildPageError(t *testing.T) {
	st, _ := session.State{}.Begin(1).Fail(1, analysis.ErrStreamIncomplete)
	p := BuildPage(session.Snapshot{State: st})
	assert.Equal(t, "Error: "+analysis.ErrStreamIncomplete.Error(), p.Error)
	assert.Equal(t, analysis.ErrorCodeStreamIncomplete, p.ErrorCode)
	assert.Nil(t, p.Loader)
}

func TestBuildPageSuccess(t *testing.T) {
	st, _ := session.State{}.Begin(1).Complete(1, sample())
	st = st.Select("p2")
	p := BuildPage(session.Snapshot{State: st})
	assert.True(t, p.ShowResults)
	assert.Equal(t, 3, p.Summary.Count)
	require.NotNil(t, p.Detail)
	assert.Equal(t, "Ben", p.Detail.CandidateName)
	assert.Empty(t, p.Detail.Reasons)
}

func TestWriteText(t *testing.T) {
	st, _ := session.State{}.Begin(1).Complete(1, sample())
	st = st.Select("p1")

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, BuildPage(session.Snapshot{State: st})))
	out := buf.String()
	assert.Contains(t, out, "Average Score: 80")
	assert.Contains(t, out, "SCORE ↓")
	assert.Contains(t, out, "Excellent Match")
	assert.Contains(t, out, "1. Go")
	assert.Contains(t, out, "2. Postgres")

	buf.Reset()
	require.NoError(t, WriteText(&buf, BuildPage(session.Snapshot{})))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestWriteProgress(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProgress(&buf, Loader{Text: LoaderText, Percent: 50, Current: 1, Total: 2}))
	assert.Equal(t, "Analyzing CVs...  50% (1/2)\n", buf.String())
}
