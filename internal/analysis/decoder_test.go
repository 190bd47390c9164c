package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderJoinsLinesAcrossChunks(t *testing.T) {
	var d Decoder
	events, err := d.Feed([]byte(`data: {"progress": 5`))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = d.Feed([]byte("0}\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventProgress, events[0].Kind)
	assert.Equal(t, 50, events[0].Progress.Percent)
}

func TestDecoderLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []EventKind
	}{
		{name: "ignores comments and blanks", input: ": ping\n\nevent: x\n", kinds: nil},
		{name: "crlf", input: "data: {\"progress\": 10, \"current\": 1, \"total\": 10}\r\n\r\n", kinds: []EventKind{EventProgress}},
		{name: "neither field", input: "data: {\"status\": \"working\"}\n", kinds: nil},
		{name: "results win over progress", input: "data: {\"progress\": 100, \"results\": []}\n", kinds: []EventKind{EventResults}},
		{name: "null results", input: "data: {\"results\": null}\n", kinds: []EventKind{EventResults}},
		{name: "several per chunk", input: "data: {\"progress\": 33.3}\n\ndata: {\"progress\": 66.7}\n\n", kinds: []EventKind{EventProgress, EventProgress}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			events, err := d.Feed([]byte(tt.input))
			require.NoError(t, err)
			var kinds []EventKind
			for _, ev := range events {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestDecoderRoundsAndClampsProgress(t *testing.T) {
	var d Decoder
	events, err := d.Feed([]byte("data: {\"progress\": 33.5}\ndata: {\"progress\": 140}\ndata: {\"progress\": -3}\n"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 34, events[0].Progress.Percent)
	assert.Equal(t, 100, events[1].Progress.Percent)
	assert.Equal(t, 0, events[2].Progress.Percent)
}

func TestDecoderMalformedJSON(t *testing.T) {
	var d Decoder
	_, err := d.Feed([]byte("data: {not json}\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocol))
}

func TestDecoderStopsAfterTerminal(t *testing.T) {
	var d Decoder
	events, err := d.Feed([]byte("data: {\"results\": []}\ndata: {\"progress\": 10}\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, d.Done())

	events, err = d.Feed([]byte("data: {bad}\n"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecoderFlushesTrailingLine(t *testing.T) {
	var d Decoder
	events, err := d.Feed([]byte(`data: {"results": [{"participant_id": "p1", "candidate_name": "Ana", "score": 81, "reasons": ["Go"]}]}`))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = d.Flush()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, d.Done())
	assert.Equal(t, []Result{{ParticipantID: "p1", CandidateName: "Ana", Score: 81, Reasons: []string{"Go"}}}, events[0].Results)
}
