package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
	"cvmatch-console/internal/selection"
	"cvmatch-console/internal/shared/metrics"
	"cvmatch-console/internal/shared/telemetry"
)

// Messages are the per-field notices shown next to the form.
type Messages struct {
	JobDescription string `json:"job_description,omitempty"`
	CVs            string `json:"cvs,omitempty"`
	Submit         string `json:"submit,omitempty"`
}

// Snapshot is what views render: the UI state plus the current selection.
type Snapshot struct {
	State     State
	Selection selection.Description
	Messages  Messages
}

// Controller owns the single session: the file selection, the UI state and
// the in-flight analysis. All methods are safe for concurrent use.
type Controller struct {
	submitter analysis.Submitter

	mu        sync.Mutex
	state     State
	selection selection.Model
	messages  Messages
	seq       uint64
	cancel    context.CancelFunc
	started   time.Time
	subs      map[chan Snapshot]struct{}
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewController builds a Controller that submits through submitter.
func NewController(submitter analysis.Submitter) *Controller {
	return &Controller{
		submitter: submitter,
		subs:      make(map[chan Snapshot]struct{}),
		done:      make(chan struct{}),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetJobDescription replaces the job description. A rejected file leaves the
// previous one in place and sets the field message.
func (c *Controller) SetJobDescription(f selection.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.selection.SetJobDescription(f)
	if err != nil {
		c.messages.JobDescription = analysis.UserMessage(err)
	} else {
		c.messages.JobDescription = ""
	}
	c.messages.Submit = ""
	c.publishLocked()
	return err
}

// ClearJobDescription removes the job description and its field message.
func (c *Controller) ClearJobDescription() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.ClearJobDescription()
	c.messages.JobDescription = ""
	c.messages.Submit = ""
	c.publishLocked()
}

// SetCVs replaces the CV list and returns the names of ignored files.
func (c *Controller) SetCVs(files []selection.File) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ignored := c.selection.SetCVs(files)
	if len(ignored) > 0 {
		c.messages.CVs = selection.IgnoredFilesMessage
		telemetry.Info("selection.ignored", map[string]any{"files": ignored})
	} else {
		c.messages.CVs = ""
	}
	c.messages.Submit = ""
	c.publishLocked()
	return ignored
}

// Notify sets the non-empty fields of m as the current form messages.
func (c *Controller) Notify(m Messages) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.JobDescription != "" {
		c.messages.JobDescription = m.JobDescription
	}
	if m.CVs != "" {
		c.messages.CVs = m.CVs
	}
	if m.Submit != "" {
		c.messages.Submit = m.Submit
	}
	c.publishLocked()
}

// Start submits the current selection. Missing inputs fail immediately and
// leave the state unchanged. Any in-flight submission is cancelled and its
// remaining events are discarded.
func (c *Controller) Start() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var jdPtr *selection.File
	if jd, ok := c.selection.JobDescription(); ok {
		jdPtr = &jd
	}
	cvs := c.selection.CVs()
	if err := analysis.CheckInputs(jdPtr, cvs); err != nil {
		c.messages.Submit = analysis.UserMessage(err)
		c.publishLocked()
		return 0, err
	}

	c.releaseLocked()
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = time.Now()
	c.messages.Submit = ""
	c.state = c.state.Begin(seq)
	c.publishLocked()

	metrics.IncAnalysisStarted()
	metrics.SetProgress(0)
	telemetry.Info("analysis.started", map[string]any{
		"seq":             seq,
		"job_description": jdPtr.Name,
		"cv_count":        len(cvs),
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, seq, jdPtr, cvs)
	}()
	return seq, nil
}

// Cancel abandons the in-flight analysis and returns to Idle.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.state.Abort()
	if !ok {
		return false
	}
	c.releaseLocked()
	c.state = next
	metrics.IncAnalysisFailed(analysis.ErrorCodeCanceled)
	telemetry.Info("analysis.canceled", map[string]any{"seq": next.Seq})
	c.publishLocked()
	return true
}

// Select toggles the detail view for a candidate.
func (c *Controller) Select(id string) {
	c.update(func(s State) State { return s.Select(id) })
}

// ClearSelection closes the detail view.
func (c *Controller) ClearSelection() {
	c.update(func(s State) State { return s.ClearSelection() })
}

// Sort reorders the result table.
func (c *Controller) Sort(key results.SortKey, dir results.Direction) {
	c.update(func(s State) State { return s.Sort(key, dir) })
}

// ToggleSort flips the result table order.
func (c *Controller) ToggleSort(key results.SortKey) {
	c.update(func(s State) State { return s.ToggleSort(key) })
}

// Subscribe returns a channel of snapshots, starting with the current one.
// Slow subscribers only see the latest snapshot. Call the returned func to
// unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
		})
	}
}

// Close cancels any in-flight analysis, waits for it to stop and closes
// Done. It is safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

// Done is closed by Close. Long-lived readers such as event streams stop on it.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) releaseLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) run(ctx context.Context, seq uint64, jd *selection.File, cvs []selection.File) {
	stream, err := c.submitter.Submit(ctx, jd, cvs)
	if err != nil {
		c.fail(seq, err)
		return
	}
	rs, err := stream.Results(func(p analysis.Progress) {
		c.progress(seq, p)
	})
	if err != nil {
		c.fail(seq, err)
		return
	}
	c.complete(seq, rs)
}

func (c *Controller) progress(seq uint64, p analysis.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.state.ApplyProgress(seq, p)
	if !ok {
		c.staleLocked(seq, "progress")
		return
	}
	c.state = next
	metrics.SetProgress(p.Percent)
	telemetry.Debug("analysis.progress", map[string]any{
		"seq":      seq,
		"progress": p.Percent,
		"current":  p.Current,
		"total":    p.Total,
	})
	c.publishLocked()
}

func (c *Controller) complete(seq uint64, rs []analysis.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.state.Complete(seq, rs)
	if !ok {
		c.staleLocked(seq, "results")
		return
	}
	c.state = next
	c.releaseLocked()
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDuration(c.started)
	telemetry.Info("analysis.completed", map[string]any{
		"seq":         seq,
		"results":     len(rs),
		"duration_ms": time.Since(c.started).Milliseconds(),
	})
	c.publishLocked()
}

func (c *Controller) fail(seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.state.Fail(seq, err)
	if !ok {
		if !errors.Is(err, context.Canceled) {
			c.staleLocked(seq, "error")
		}
		return
	}
	c.state = next
	c.releaseLocked()
	metrics.IncAnalysisFailed(next.ErrCode)
	telemetry.Warn("analysis.failed", map[string]any{
		"seq":   seq,
		"code":  next.ErrCode,
		"error": err,
	})
	c.publishLocked()
}

func (c *Controller) staleLocked(seq uint64, kind string) {
	metrics.IncStaleEvents()
	telemetry.Debug("analysis.stale", map[string]any{
		"seq":     seq,
		"current": c.state.Seq,
		"event":   kind,
	})
}

func (c *Controller) update(fn func(State) State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	c.publishLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.state,
		Selection: c.selection.Describe(),
		Messages:  c.messages,
	}
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
