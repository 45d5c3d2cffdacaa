package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tunegrab/tunegrab/internal/convert"
	"github.com/tunegrab/tunegrab/internal/download"
	"github.com/tunegrab/tunegrab/internal/model"
	"github.com/tunegrab/tunegrab/internal/platform"
	"github.com/tunegrab/tunegrab/internal/throttle"
	"github.com/tunegrab/tunegrab/internal/validate"
)

// Pool and phase settings
const (
	DefaultMaxConcurrent = 3
	MinConcurrent        = 1
	MaxConcurrentLimit   = 10
	DefaultPhaseTimeout  = 30 * time.Minute

	JobIDPrefix   = "job-"
	WorkDirPrefix = ".tunegrab-"

	// DownloadWeight is the share of overall job progress assigned to
	// the download phase. Conversion covers the remainder.
	DownloadWeight = 0.8
)

// Manager errors
var (
	ErrDuplicateURL  = errors.New("url is already queued or downloading")
	ErrNoValidURLs   = errors.New("no valid youtube urls found")
	ErrJobNotFound   = errors.New("job not found")
	ErrJobFinished   = errors.New("job already finished")
	ErrManagerClosed = errors.New("manager is closed")
)

// Config holds the manager settings
type Config struct {
	DownloadDir   string        // destination for finished MP3 files
	MaxConcurrent int           // pool slot count
	PhaseTimeout  time.Duration // per-phase watchdog
	Throttle      throttle.Config
}

// DefaultConfig returns a config with the standard pool settings
func DefaultConfig(downloadDir string) Config {
	return Config{
		DownloadDir:   downloadDir,
		MaxConcurrent: DefaultMaxConcurrent,
		PhaseTimeout:  DefaultPhaseTimeout,
		Throttle:      throttle.DefaultConfig(),
	}
}

// Stats summarizes the current job population
type Stats struct {
	Total     int
	Queued    int
	Active    int
	Completed int
	Failed    int
	Cancelled int
	Overall   float64 // mean progress across all jobs, 0.0 to 1.0
}

// Manager owns the job table and the bounded worker pool. Jobs past the
// concurrency limit wait in a FIFO queue; a slot is handed to the oldest
// queued job whenever a running job reaches a terminal state.
type Manager struct {
	cfg       Config
	fetcher   download.Fetcher
	converter convert.Converter
	throttler *throttle.Throttler

	mu      sync.Mutex
	jobs    map[string]*model.Job
	queue   []string // FIFO of queued job IDs
	running int
	cancels map[string]context.CancelFunc
	closed  bool

	onUpdate func(*model.Job)
	onLog    func(string)

	ffmpegErr  error
	ffmpegOnce sync.Once
}

// New creates a manager around the given collaborators. The conversion
// binary is probed once here so a missing install is reported up front
// instead of failing every job individually.
func New(cfg Config, fetcher download.Fetcher, converter convert.Converter) *Manager {
	if cfg.MaxConcurrent < MinConcurrent {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.MaxConcurrent > MaxConcurrentLimit {
		cfg.MaxConcurrent = MaxConcurrentLimit
	}
	if cfg.PhaseTimeout <= 0 {
		cfg.PhaseTimeout = DefaultPhaseTimeout
	}

	m := &Manager{
		cfg:       cfg,
		fetcher:   fetcher,
		converter: converter,
		jobs:      make(map[string]*model.Job),
		cancels:   make(map[string]context.CancelFunc),
	}
	m.throttler = throttle.New(cfg.Throttle, m.deliver)
	m.ffmpegErr = converter.Check()
	return m
}

// SetUpdateCallback sets the callback invoked with a job snapshot after
// every forwarded progress event
func (m *Manager) SetUpdateCallback(callback func(*model.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = callback
}

// SetLogCallback sets the callback invoked with human readable log lines
func (m *Manager) SetLogCallback(callback func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLog = callback
}

// FFmpegError returns the result of the startup conversion binary probe
func (m *Manager) FFmpegError() error {
	return m.ffmpegErr
}

// Submit validates a URL and either starts it immediately or queues it.
// The returned job is a snapshot; later state is observed through the
// update callback or Job.
func (m *Manager) Submit(rawURL string) (*model.Job, error) {
	if err := validate.Check(rawURL); err != nil {
		return nil, err
	}
	url := validate.Normalize(rawURL)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}

	for _, job := range m.jobs {
		if job.URL == url && !job.Status.IsTerminal() {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateURL, url)
		}
	}

	job := &model.Job{
		ID:          generateJobID(),
		URL:         url,
		VideoID:     validate.VideoID(url),
		Status:      model.JobStatusQueued,
		ETASec:      -1,
		SubmittedAt: time.Now(),
	}
	m.jobs[job.ID] = job

	if m.running < m.cfg.MaxConcurrent {
		m.admitLocked(job)
	} else {
		m.queue = append(m.queue, job.ID)
	}
	snapshot := job.Clone()
	m.mu.Unlock()

	m.reportFFmpegOnce()
	m.logf("job %s accepted: %s", snapshot.ID, url)
	m.publish(snapshot, model.PhaseDownload)
	return snapshot, nil
}

// SubmitText extracts every YouTube URL from free-form text and submits
// each one. Lines without a recognizable URL are skipped, duplicates are
// reported through the log callback.
func (m *Manager) SubmitText(text string) ([]*model.Job, error) {
	urls := validate.ExtractFromText(text)
	if len(urls) == 0 {
		return nil, ErrNoValidURLs
	}

	var jobs []*model.Job
	var lastErr error
	for _, url := range urls {
		job, err := m.Submit(url)
		if err != nil {
			lastErr = err
			m.logf("skipping %s: %v", url, err)
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return nil, lastErr
	}
	return jobs, nil
}

// Cancel stops a job. A queued job is removed without ever starting, a
// running job has its context cancelled and finishes cooperatively.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	job, exists := m.jobs[id]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.Status.IsTerminal() {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobFinished, job.Status)
	}

	if job.Status == model.JobStatusQueued {
		m.removeFromQueueLocked(id)
		job.SetStatus(model.JobStatusCancelled, "")
		job.FinishedAt = time.Now()
		snapshot := job.Clone()
		m.mu.Unlock()

		m.logf("job %s cancelled while queued", id)
		m.publish(snapshot, model.PhaseDownload)
		m.throttler.ClearJob(id)
		return nil
	}

	cancel, running := m.cancels[id]
	m.mu.Unlock()

	if running {
		m.logf("job %s cancellation requested", id)
		cancel()
	}
	return nil
}

// CancelAll cancels every job that has not yet finished
func (m *Manager) CancelAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.jobs))
	for id, job := range m.jobs {
		if !job.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Cancel(id)
	}
}

// Job returns a snapshot of a job by ID
func (m *Manager) Job(id string) (*model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.jobs[id]
	if !exists {
		return nil, false
	}
	return job.Clone(), true
}

// Jobs returns snapshots of all jobs in submission order
func (m *Manager) Jobs() []*model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].SubmittedAt.Before(jobs[j].SubmittedAt)
	})
	return jobs
}

// Stats returns aggregate counters over the current job table
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var st Stats
	var sum float64
	for _, job := range m.jobs {
		st.Total++
		sum += job.Progress
		switch job.Status {
		case model.JobStatusQueued:
			st.Queued++
		case model.JobStatusDownloading, model.JobStatusConverting:
			st.Active++
		case model.JobStatusCompleted:
			st.Completed++
		case model.JobStatusFailed:
			st.Failed++
		case model.JobStatusCancelled:
			st.Cancelled++
		}
	}
	if st.Total > 0 {
		st.Overall = sum / float64(st.Total)
	}
	return st
}

// ClearFinished removes all terminal jobs from the table and returns
// how many were removed
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	var removed []string
	for id, job := range m.jobs {
		if job.Status.IsTerminal() {
			removed = append(removed, id)
			delete(m.jobs, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		m.throttler.ClearJob(id)
	}
	if len(removed) > 0 {
		m.logf("cleared %d finished jobs", len(removed))
	}
	return len(removed)
}

// SetMaxConcurrent changes the pool size at runtime. Growing the pool
// admits queued jobs immediately; shrinking only affects future admissions.
func (m *Manager) SetMaxConcurrent(limit int) {
	if limit < MinConcurrent {
		limit = MinConcurrent
	}
	if limit > MaxConcurrentLimit {
		limit = MaxConcurrentLimit
	}

	m.mu.Lock()
	m.cfg.MaxConcurrent = limit
	var admitted []*model.Job
	for !m.closed && m.running < m.cfg.MaxConcurrent {
		job := m.nextQueuedLocked()
		if job == nil {
			break
		}
		m.admitLocked(job)
		admitted = append(admitted, job.Clone())
	}
	m.mu.Unlock()

	for _, job := range admitted {
		m.logf("job %s admitted from queue", job.ID)
		m.publish(job, model.PhaseDownload)
	}
}

// Close cancels every remaining job and shuts down event delivery.
// Running jobs finish cooperatively; no new submissions are accepted.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true

	var cancelled []*model.Job
	for _, id := range m.queue {
		job, exists := m.jobs[id]
		if !exists || job.Status != model.JobStatusQueued {
			continue
		}
		job.SetStatus(model.JobStatusCancelled, "")
		job.FinishedAt = time.Now()
		cancelled = append(cancelled, job.Clone())
	}
	m.queue = nil

	cancels := make([]context.CancelFunc, 0, len(m.cancels))
	for _, cancel := range m.cancels {
		cancels = append(cancels, cancel)
	}
	m.mu.Unlock()

	for _, job := range cancelled {
		m.publish(job, model.PhaseDownload)
	}
	for _, cancel := range cancels {
		cancel()
	}
	m.throttler.Close()
}

// admitLocked grants a pool slot to a queued job and starts its worker.
// Callers must hold m.mu.
func (m *Manager) admitLocked(job *model.Job) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[job.ID] = cancel
	m.running++
	job.Status = model.JobStatusDownloading
	job.StartedAt = time.Now()
	go m.runJob(ctx, job.ID)
}

// nextQueuedLocked pops the oldest still-queued job, skipping entries
// that were cancelled while waiting. Callers must hold m.mu.
func (m *Manager) nextQueuedLocked() *model.Job {
	for len(m.queue) > 0 {
		id := m.queue[0]
		m.queue = m.queue[1:]
		job, exists := m.jobs[id]
		if exists && job.Status == model.JobStatusQueued {
			return job
		}
	}
	return nil
}

// removeFromQueueLocked drops a job ID from the wait queue. Callers must
// hold m.mu.
func (m *Manager) removeFromQueueLocked(id string) {
	for i, queued := range m.queue {
		if queued == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// runJob is the worker goroutine for a single admitted job
func (m *Manager) runJob(ctx context.Context, id string) {
	defer m.releaseSlot(id)

	phase := model.PhaseDownload
	defer func() {
		if r := recover(); r != nil {
			m.finishJob(id, phase, fmt.Errorf("internal error: %v", r))
		}
	}()

	err := m.executeJob(ctx, id, &phase)
	m.finishJob(id, phase, err)
}

// executeJob runs the download and conversion phases. Intermediate media
// lives in a per-job work directory that is always removed, so a failed
// or cancelled job leaves no partial files behind.
func (m *Manager) executeJob(ctx context.Context, id string, phase *model.Phase) error {
	m.mu.Lock()
	job := m.jobs[id]
	url := job.URL
	snapshot := job.Clone()
	m.mu.Unlock()

	m.publish(snapshot, model.PhaseDownload)

	workDir := filepath.Join(m.cfg.DownloadDir, WorkDirPrefix+id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	dlCtx, cancelDL := context.WithTimeout(ctx, m.cfg.PhaseTimeout)
	result, err := m.fetcher.Fetch(dlCtx, url, workDir, func(p download.Progress) {
		m.applyDownloadProgress(id, p)
	})
	cancelDL()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	*phase = model.PhaseConvert
	outputName := platform.SanitizeFileName(convert.OutputPathFor(filepath.Base(result.MediaPath)))
	outputPath := filepath.Join(m.cfg.DownloadDir, outputName)

	m.mu.Lock()
	job = m.jobs[id]
	if result.Title != "" && job.Title == "" {
		job.Title = result.Title
	}
	job.SetStatus(model.JobStatusConverting, "")
	job.SetProgress(DownloadWeight)
	job.Speed = ""
	job.ETASec = -1
	snapshot = job.Clone()
	m.mu.Unlock()

	m.logf("job %s converting %s", id, filepath.Base(result.MediaPath))
	m.publish(snapshot, model.PhaseConvert)

	cvCtx, cancelCV := context.WithTimeout(ctx, m.cfg.PhaseTimeout)
	err = m.converter.Convert(cvCtx, result.MediaPath, outputPath, func(fraction float64) {
		m.applyConvertProgress(id, fraction)
	})
	cancelCV()
	if err != nil {
		return err
	}

	info, statErr := os.Stat(outputPath)
	m.mu.Lock()
	job = m.jobs[id]
	job.OutputPath = outputPath
	if statErr == nil {
		job.FileSize = info.Size()
	}
	m.mu.Unlock()
	return nil
}

// finishJob records the terminal state for a job and emits the final event
func (m *Manager) finishJob(id string, phase model.Phase, err error) {
	m.mu.Lock()
	job, exists := m.jobs[id]
	if !exists || job.Status.IsTerminal() {
		m.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		job.SetStatus(model.JobStatusCompleted, "")
		job.SetProgress(1.0)
	case errors.Is(err, context.Canceled):
		job.SetStatus(model.JobStatusCancelled, "")
	case errors.Is(err, context.DeadlineExceeded):
		job.SetStatus(model.JobStatusFailed, fmt.Sprintf("timed out after %s", m.cfg.PhaseTimeout))
	default:
		job.SetStatus(model.JobStatusFailed, err.Error())
	}
	job.Speed = ""
	job.ETASec = -1
	job.FinishedAt = time.Now()
	snapshot := job.Clone()
	m.mu.Unlock()

	switch snapshot.Status {
	case model.JobStatusCompleted:
		m.logf("job %s completed: %s", id, snapshot.OutputPath)
	case model.JobStatusCancelled:
		m.logf("job %s cancelled", id)
	case model.JobStatusFailed:
		if download.IsNetworkError(err) {
			m.logf("job %s failed (network): %s", id, snapshot.LastError)
		} else {
			m.logf("job %s failed: %s", id, snapshot.LastError)
		}
	}
	m.publish(snapshot, phase)
	m.throttler.ClearJob(id)
}

// releaseSlot frees the worker slot and admits the oldest queued job
func (m *Manager) releaseSlot(id string) {
	m.mu.Lock()
	delete(m.cancels, id)
	m.running--

	var next *model.Job
	if !m.closed {
		if job := m.nextQueuedLocked(); job != nil {
			m.admitLocked(job)
			next = job.Clone()
		}
	}
	m.mu.Unlock()

	if next != nil {
		m.logf("job %s admitted from queue", next.ID)
		m.publish(next, model.PhaseDownload)
	}
}

// applyDownloadProgress maps a download sample onto overall job progress
func (m *Manager) applyDownloadProgress(id string, p download.Progress) {
	m.mu.Lock()
	job, exists := m.jobs[id]
	if !exists || job.Status != model.JobStatusDownloading {
		m.mu.Unlock()
		return
	}
	job.SetProgress(p.Fraction * DownloadWeight)
	job.Speed = p.Speed
	job.ETASec = p.ETASec
	if p.Title != "" && job.Title == "" {
		job.Title = p.Title
	}
	snapshot := job.Clone()
	m.mu.Unlock()

	m.publish(snapshot, model.PhaseDownload)
}

// applyConvertProgress maps a conversion sample onto overall job progress
func (m *Manager) applyConvertProgress(id string, fraction float64) {
	m.mu.Lock()
	job, exists := m.jobs[id]
	if !exists || job.Status != model.JobStatusConverting {
		m.mu.Unlock()
		return
	}
	job.SetProgress(DownloadWeight + fraction*(1-DownloadWeight))
	snapshot := job.Clone()
	m.mu.Unlock()

	m.publish(snapshot, model.PhaseConvert)
}

// publish pushes a job state sample into the throttler
func (m *Manager) publish(job *model.Job, phase model.Phase) {
	m.throttler.Publish(model.ProgressEvent{
		JobID:    job.ID,
		Fraction: job.Progress,
		Phase:    phase,
		Status:   job.Status,
		Speed:    job.Speed,
		ETASec:   job.ETASec,
	})
}

// deliver receives throttled events and hands a fresh job snapshot to the
// update callback
func (m *Manager) deliver(ev model.ProgressEvent) {
	m.mu.Lock()
	job, exists := m.jobs[ev.JobID]
	var snapshot *model.Job
	if exists {
		snapshot = job.Clone()
	}
	callback := m.onUpdate
	m.mu.Unlock()

	if exists && callback != nil {
		callback(snapshot)
	}
}

// logf writes to the standard log and mirrors the line to the log callback
func (m *Manager) logf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("%s", message)

	m.mu.Lock()
	callback := m.onLog
	m.mu.Unlock()
	if callback != nil {
		callback(message)
	}
}

// reportFFmpegOnce logs a missing conversion binary a single time
func (m *Manager) reportFFmpegOnce() {
	if m.ffmpegErr == nil {
		return
	}
	m.ffmpegOnce.Do(func() {
		m.logf("warning: %v, downloads will fail at the conversion step", m.ffmpegErr)
	})
}

// generateJobID generates a unique job ID using UUID v7 for better uniqueness and time ordering
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return JobIDPrefix + id.String()
}
