package analysis

// Result is one candidate's score against the job description.
type Result struct {
	ParticipantID string   `json:"participant_id"`
	CandidateName string   `json:"candidate_name"`
	Score         int      `json:"score"`
	Reasons       []string `json:"reasons"`
}

// Progress reports how many CVs the server has processed.
type Progress struct {
	Percent int `json:"progress"`
	Current int `json:"current"`
	Total   int `json:"total"`
}

type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventResults
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventResults:
		return "results"
	default:
		return "unknown"
	}
}

// Event is one decoded frame. Exactly one of Progress and Results is meaningful,
// selected by Kind.
type Event struct {
	Kind     EventKind
	Progress Progress
	Results  []Result
}

// Terminal reports whether e ends its stream.
func (e Event) Terminal() bool {
	return e.Kind == EventResults
}
