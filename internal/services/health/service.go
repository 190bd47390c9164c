package health

import "time"

// Status is the health payload.
type Status struct {
	OK            bool   `json:"ok"`
	Analyzer      string `json:"analyzer"`
	Phase         string `json:"phase"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Service reports process health. Phase is read on every call.
type Service struct {
	analyzer string
	started  time.Time
	phase    func() string
}

// NewService constructs a health service for the given analysis endpoint.
func NewService(analyzer string, phase func() string) *Service {
	if phase == nil {
		phase = func() string { return "" }
	}
	return &Service{analyzer: analyzer, started: time.Now(), phase: phase}
}

// Status returns the current health payload.
func (s *Service) Status() Status {
	return Status{
		OK:            true,
		Analyzer:      s.analyzer,
		Phase:         s.phase(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
}
