package throttle

import (
	"sync"
	"time"

	"github.com/tunegrab/tunegrab/internal/model"
)

// Default throttling windows
const (
	DefaultMinInterval   = 150 * time.Millisecond
	DefaultMinDelta      = 0.03
	DefaultForceInterval = 1500 * time.Millisecond
)

// Config tunes the throttling windows
type Config struct {
	MinInterval   time.Duration // minimum time between forwarded updates
	MinDelta      float64       // minimum progress change to forward early
	ForceInterval time.Duration // maximum time a pending update may wait
}

// DefaultConfig returns the throttling windows used by the download manager
func DefaultConfig() Config {
	return Config{
		MinInterval:   DefaultMinInterval,
		MinDelta:      DefaultMinDelta,
		ForceInterval: DefaultForceInterval,
	}
}

// jobState tracks throttling bookkeeping for a single job
type jobState struct {
	lastUpdate   time.Time
	lastFraction float64
	lastStatus   model.JobStatus
	pending      *model.ProgressEvent
	timer        *time.Timer // trailing flush for suppressed updates
}

// Throttler forwards a bounded rate of progress events per job
type Throttler struct {
	cfg     Config
	forward func(model.ProgressEvent)

	mu     sync.Mutex
	jobs   map[string]*jobState
	closed bool
}

// New creates a throttler that delivers events to forward
func New(cfg Config, forward func(model.ProgressEvent)) *Throttler {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MinDelta <= 0 {
		cfg.MinDelta = DefaultMinDelta
	}
	if cfg.ForceInterval <= 0 {
		cfg.ForceInterval = DefaultForceInterval
	}

	return &Throttler{
		cfg:     cfg,
		forward: forward,
		jobs:    make(map[string]*jobState),
	}
}

// Publish submits a progress event. Status changes and terminal events are
// forwarded immediately; repeated samples within the same status are
// forwarded when the throttling window allows, with a trailing flush so no
// sample is lost beyond the window's tolerance. The forward callback runs
// outside the throttler's lock, so it may call back into Publish or
// ClearJob safely.
func (t *Throttler) Publish(ev model.ProgressEvent) {
	t.mu.Lock()

	if t.closed || t.forward == nil {
		t.mu.Unlock()
		return
	}

	st, ok := t.jobs[ev.JobID]
	if !ok {
		st = &jobState{}
		t.jobs[ev.JobID] = st
	}

	evCopy := ev
	st.pending = &evCopy

	if t.shouldForwardNow(st, ev) {
		out := t.takePendingLocked(st)
		t.mu.Unlock()
		if out != nil {
			t.forward(*out)
		}
		return
	}

	if st.timer == nil {
		jobID := ev.JobID
		st.timer = time.AfterFunc(t.cfg.MinInterval, func() {
			t.flushJob(jobID)
		})
	}
	t.mu.Unlock()
}

// shouldForwardNow applies the throttling rules for one event
func (t *Throttler) shouldForwardNow(st *jobState, ev model.ProgressEvent) bool {
	// Completion, failure and cancellation must reach the UI right away.
	if ev.Status.IsTerminal() {
		return true
	}

	// A status transition (queued, downloading, converting) is forwarded
	// immediately; repeated samples within the same status fall through to
	// the time and delta windows below.
	if ev.Status != st.lastStatus {
		return true
	}

	now := time.Now()
	sinceLast := now.Sub(st.lastUpdate)
	delta := ev.Fraction - st.lastFraction
	if delta < 0 {
		delta = -delta
	}

	if sinceLast >= t.cfg.MinInterval && delta >= t.cfg.MinDelta {
		return true
	}
	return sinceLast >= t.cfg.ForceInterval
}

// flushJob delivers the pending event for a job, if still present
func (t *Throttler) flushJob(jobID string) {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return
	}

	var out *model.ProgressEvent
	if st, ok := t.jobs[jobID]; ok {
		st.timer = nil
		out = t.takePendingLocked(st)
	}
	t.mu.Unlock()

	if out != nil {
		t.forward(*out)
	}
}

// takePendingLocked removes the pending event and updates the throttling
// bookkeeping. Caller holds the mutex and invokes forward after unlocking.
func (t *Throttler) takePendingLocked(st *jobState) *model.ProgressEvent {
	if st.pending == nil {
		return nil
	}

	ev := st.pending
	st.pending = nil
	st.lastUpdate = time.Now()
	st.lastFraction = ev.Fraction
	st.lastStatus = ev.Status
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	return ev
}

// ClearJob drops throttling state for a finished job
func (t *Throttler) ClearJob(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.jobs[jobID]; ok {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(t.jobs, jobID)
	}
}

// Close stops all trailing flush timers and rejects further events
func (t *Throttler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, st := range t.jobs {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(t.jobs, id)
	}
}

// Pending reports how many jobs have a suppressed update waiting
func (t *Throttler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, st := range t.jobs {
		if st.pending != nil {
			count++
		}
	}
	return count
}
