package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvmatch-console/internal/analysis"
)

func sampleResults() []analysis.Result {
	return []analysis.Result{
		{ParticipantID: "a", CandidateName: "Ana", Score: 60},
		{ParticipantID: "b", CandidateName: "Ben", Score: 90, Reasons: []string{"Go", "Kubernetes"}},
	}
}

func TestStateHappyPath(t *testing.T) {
	var s State
	assert.Equal(t, Idle, s.Phase)

	s = s.Begin(1)
	assert.Equal(t, Loading, s.Phase)
	assert.False(t, s.ShowResults())

	s, ok := s.ApplyProgress(1, analysis.Progress{Percent: 50, Current: 1, Total: 2})
	require.True(t, ok)
	assert.Equal(t, 50, s.Progress.Percent)

	s, ok = s.Complete(1, sampleResults())
	require.True(t, ok)
	assert.Equal(t, Success, s.Phase)
	assert.Equal(t, "", s.Store.SelectedID())
	assert.Equal(t, sampleResults(), s.Store.Results())
	assert.Equal(t, "b", s.Store.Sorted()[0].ParticipantID)
	assert.True(t, s.ShowResults())
}

func TestStateDropsStaleEvents(t *testing.T) {
	s := State{}.Begin(1).Begin(2)

	next, ok := s.ApplyProgress(1, analysis.Progress{Percent: 90})
	assert.False(t, ok)
	assert.Equal(t, s, next)

	_, ok = s.Complete(1, sampleResults())
	assert.False(t, ok)
	_, ok = s.Fail(1, analysis.ErrProtocol)
	assert.False(t, ok)

	done, ok := s.Complete(2, nil)
	require.True(t, ok)
	_, ok = done.ApplyProgress(2, analysis.Progress{Percent: 10})
	assert.False(t, ok, "terminal event is final for its stream")
}

func TestStateFail(t *testing.T) {
	s := State{}.Begin(3)
	s, ok := s.Fail(3, fmt.Errorf("%w: bad frame", analysis.ErrProtocol))
	require.True(t, ok)
	assert.Equal(t, Error, s.Phase)
	assert.Equal(t, analysis.ErrorCodeProtocol, s.ErrCode)
	assert.Contains(t, s.Err, "bad frame")
	assert.False(t, s.ShowResults())
}

func TestStateBeginClearsSelection(t *testing.T) {
	s, _ := State{}.Begin(1).Complete(1, sampleResults())
	s = s.Select("a")
	assert.Equal(t, "a", s.Store.SelectedID())

	s = s.Begin(2)
	assert.Equal(t, "", s.Store.SelectedID())
	assert.Equal(t, "", s.Err)
}

func TestStateSelectOnlyInSuccess(t *testing.T) {
	s := State{}.Begin(1)
	assert.Equal(t, "", s.Select("a").Store.SelectedID())

	failed, _ := s.Fail(1, errors.New("x"))
	assert.Equal(t, "", failed.Select("a").Store.SelectedID())
}

func TestStateAbort(t *testing.T) {
	s := State{}.Begin(4)
	idle, ok := s.Abort()
	require.True(t, ok)
	assert.Equal(t, Idle, idle.Phase)

	_, ok = idle.ApplyProgress(4, analysis.Progress{Percent: 5})
	assert.False(t, ok)
	_, ok = idle.Abort()
	assert.False(t, ok)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "success", Success.String())
}

func TestStateFailKeepsPreviousResultsVisible(t *testing.T) {
	s, _ := State{}.Begin(1).Complete(1, sampleResults())
	s = s.Begin(2)
	assert.False(t, s.ShowResults())

	s, ok := s.Fail(2, analysis.ErrStreamIncomplete)
	require.True(t, ok)
	assert.True(t, s.ShowResults())
	assert.Equal(t, "", s.Select("a").Store.SelectedID())
}
