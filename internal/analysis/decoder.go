package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

var dataPrefix = []byte("data: ")

// Decoder turns chunks of an event stream into events. Lines split across
// chunks are held until their newline arrives. A Decoder stops producing
// events once it has seen the terminal one.
type Decoder struct {
	pending []byte
	done    bool
}

// Done reports whether the terminal event has been decoded.
func (d *Decoder) Done() bool {
	return d.done
}

// Feed consumes one chunk and returns the events completed by it.
func (d *Decoder) Feed(chunk []byte) ([]Event, error) {
	if d.done {
		return nil, nil
	}
	d.pending = append(d.pending, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			break
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]

		ev, ok, err := decodeLine(line)
		if err != nil {
			return events, err
		}
		if !ok {
			continue
		}
		events = append(events, ev)
		if ev.Terminal() {
			d.done = true
			d.pending = nil
			return events, nil
		}
	}
	// Copy the tail so the caller's chunk buffer can be reused.
	d.pending = append([]byte(nil), d.pending...)
	return events, nil
}

// Flush processes a trailing line that never received its newline.
func (d *Decoder) Flush() ([]Event, error) {
	if d.done || len(d.pending) == 0 {
		return nil, nil
	}
	line := d.pending
	d.pending = nil
	ev, ok, err := decodeLine(line)
	if err != nil || !ok {
		return nil, err
	}
	if ev.Terminal() {
		d.done = true
	}
	return []Event{ev}, nil
}

func decodeLine(line []byte) (Event, bool, error) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, dataPrefix) {
		return Event{}, false, nil
	}
	payload := line[len(dataPrefix):]

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Event{}, false, fmt.Errorf("%w: malformed event %q: %v", ErrProtocol, truncate(payload, 80), err)
	}

	// results wins: the final frame carries progress 100 alongside the results.
	if raw, ok := fields["results"]; ok {
		results, err := DecodeResults(raw)
		if err != nil {
			return Event{}, false, err
		}
		return Event{Kind: EventResults, Results: results}, true, nil
	}
	raw, ok := fields["progress"]
	if !ok {
		return Event{}, false, nil
	}
	var wire struct {
		Progress *float64 `json:"progress"`
		Current  float64  `json:"current"`
		Total    float64  `json:"total"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil || wire.Progress == nil {
		return Event{}, false, fmt.Errorf("%w: invalid progress %s", ErrProtocol, truncate(raw, 40))
	}
	return Event{Kind: EventProgress, Progress: Progress{
		Percent: clampPercent(*wire.Progress),
		Current: int(wire.Current),
		Total:   int(wire.Total),
	}}, true, nil
}

func clampPercent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
