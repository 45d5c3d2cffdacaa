package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tunegrab/tunegrab/internal/download"
	"github.com/tunegrab/tunegrab/internal/model"
	"github.com/tunegrab/tunegrab/internal/validate"
)

// fakeFetcher simulates the extraction collaborator. With hold set it
// blocks until released or cancelled, which lets tests pin jobs in the
// downloading state.
type fakeFetcher struct {
	mu        sync.Mutex
	active    int
	maxActive int
	order     []string
	errs      map[string]error
	release   chan struct{}
	hold      bool
}

func newFakeFetcher(hold bool) *fakeFetcher {
	return &fakeFetcher{
		errs:    make(map[string]error),
		release: make(chan struct{}, 64),
		hold:    hold,
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, destDir string, onProgress func(download.Progress)) (*download.Result, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.order = append(f.order, url)
	err := f.errs[url]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.hold {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(download.Progress{Fraction: 1.0, Speed: "1.0MB/s", ETASec: 0, Title: "Test Song"})
	}

	mediaPath := filepath.Join(destDir, "test-song.webm")
	if writeErr := os.WriteFile(mediaPath, []byte("media"), 0644); writeErr != nil {
		return nil, writeErr
	}
	return &download.Result{MediaPath: mediaPath, Title: "Test Song"}, nil
}

func (f *fakeFetcher) releaseOne() {
	f.release <- struct{}{}
}

func (f *fakeFetcher) fetchOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeFetcher) peakActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

// fakeConverter simulates the conversion collaborator
type fakeConverter struct {
	checkErr error
	convErr  error
}

func (c *fakeConverter) Check() error {
	return c.checkErr
}

func (c *fakeConverter) Convert(ctx context.Context, inputPath, outputPath string, onProgress func(float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.convErr != nil {
		return c.convErr
	}
	if err := os.WriteFile(outputPath, []byte("mp3"), 0644); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

func newTestManager(t *testing.T, limit int, fetcher download.Fetcher) *Manager {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.MaxConcurrent = limit
	m := New(cfg, fetcher, &fakeConverter{})
	t.Cleanup(m.Close)
	return m
}

func waitUntil(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func jobStatus(m *Manager, id string) model.JobStatus {
	job, exists := m.Job(id)
	if !exists {
		return ""
	}
	return job.Status
}

func testURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	m := newTestManager(t, 1, newFakeFetcher(false))

	job, err := m.Submit("https://example.com/not-youtube")
	if !errors.Is(err, validate.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	if job != nil {
		t.Errorf("expected no job for invalid URL, got %v", job)
	}
	if stats := m.Stats(); stats.Total != 0 {
		t.Errorf("expected empty job table, got %d jobs", stats.Total)
	}
}

func TestSubmitRejectsDuplicateActiveURL(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	first, err := m.Submit(testURL("dQw4w9WgXcA"))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err = m.Submit(testURL("dQw4w9WgXcA"))
	if !errors.Is(err, ErrDuplicateURL) {
		t.Errorf("expected ErrDuplicateURL, got %v", err)
	}

	fetcher.releaseOne()
	waitUntil(t, 5*time.Second, "first job to finish", func() bool {
		return jobStatus(m, first.ID).IsTerminal()
	})

	// A finished job no longer blocks resubmission of the same URL
	if _, err := m.Submit(testURL("dQw4w9WgXcA")); err != nil {
		t.Errorf("resubmit after completion failed: %v", err)
	}
}

func TestRunningNeverExceedsLimit(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, DefaultMaxConcurrent, fetcher)

	ids := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd", "eeeeeeeeeee"}
	var jobs []*model.Job
	for _, id := range ids {
		job, err := m.Submit(testURL(id))
		if err != nil {
			t.Fatalf("submit %s failed: %v", id, err)
		}
		jobs = append(jobs, job)
	}

	waitUntil(t, 5*time.Second, "three active jobs", func() bool {
		return m.Stats().Active == DefaultMaxConcurrent
	})
	if stats := m.Stats(); stats.Queued != 2 {
		t.Errorf("expected 2 queued jobs, got %d", stats.Queued)
	}

	for range jobs {
		fetcher.releaseOne()
	}
	waitUntil(t, 5*time.Second, "all jobs to finish", func() bool {
		return m.Stats().Completed == len(jobs)
	})

	if peak := fetcher.peakActive(); peak > DefaultMaxConcurrent {
		t.Errorf("concurrency limit violated: %d simultaneous downloads", peak)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	urls := []string{testURL("11111111111"), testURL("22222222222"), testURL("33333333333")}
	for _, url := range urls {
		if _, err := m.Submit(url); err != nil {
			t.Fatalf("submit %s failed: %v", url, err)
		}
	}

	for i := range urls {
		waitUntil(t, 5*time.Second, "next download to start", func() bool {
			return len(fetcher.fetchOrder()) == i+1
		})
		fetcher.releaseOne()
	}

	waitUntil(t, 5*time.Second, "all jobs to finish", func() bool {
		return m.Stats().Completed == len(urls)
	})

	order := fetcher.fetchOrder()
	for i, url := range urls {
		if order[i] != url {
			t.Errorf("fetch order[%d] = %s, want %s", i, order[i], url)
		}
	}
}

func TestCancelQueuedJobNeverStarts(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	var mu sync.Mutex
	seen := make(map[string][]model.JobStatus)
	m.SetUpdateCallback(func(job *model.Job) {
		mu.Lock()
		seen[job.ID] = append(seen[job.ID], job.Status)
		mu.Unlock()
	})

	running, err := m.Submit(testURL("aaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	queued, err := m.Submit(testURL("bbbbbbbbbbb"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if queued.Status != model.JobStatusQueued {
		t.Fatalf("expected second job queued, got %s", queued.Status)
	}

	if err := m.Cancel(queued.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := jobStatus(m, queued.ID); got != model.JobStatusCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}

	fetcher.releaseOne()
	waitUntil(t, 5*time.Second, "running job to finish", func() bool {
		return jobStatus(m, running.ID) == model.JobStatusCompleted
	})

	for _, url := range fetcher.fetchOrder() {
		if strings.Contains(url, "bbbbbbbbbbb") {
			t.Errorf("cancelled queued job was started: %s", url)
		}
	}
	mu.Lock()
	for _, status := range seen[queued.ID] {
		if status == model.JobStatusDownloading || status == model.JobStatusConverting {
			t.Errorf("cancelled queued job passed through %s", status)
		}
	}
	mu.Unlock()
}

func TestCancelRunningJobLeavesNoPartialFiles(t *testing.T) {
	fetcher := newFakeFetcher(true)
	cfg := DefaultConfig(t.TempDir())
	cfg.MaxConcurrent = 1
	m := New(cfg, fetcher, &fakeConverter{})
	t.Cleanup(m.Close)

	job, err := m.Submit(testURL("dQw4w9WgXcA"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	waitUntil(t, 5*time.Second, "download to start", func() bool {
		return len(fetcher.fetchOrder()) == 1
	})

	if err := m.Cancel(job.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	waitUntil(t, 5*time.Second, "job to be cancelled", func() bool {
		return jobStatus(m, job.ID) == model.JobStatusCancelled
	})

	entries, err := os.ReadDir(cfg.DownloadDir)
	if err != nil {
		t.Fatalf("reading download dir: %v", err)
	}
	for _, entry := range entries {
		t.Errorf("unexpected leftover in download dir: %s", entry.Name())
	}
}

func TestFailedJobDoesNotAffectOthers(t *testing.T) {
	fetcher := newFakeFetcher(false)
	fetcher.errs[testURL("aaaaaaaaaaa")] = errors.New("network unreachable")
	m := newTestManager(t, 2, fetcher)

	failing, err := m.Submit(testURL("aaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	healthy, err := m.Submit(testURL("bbbbbbbbbbb"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	waitUntil(t, 5*time.Second, "both jobs to finish", func() bool {
		return jobStatus(m, failing.ID).IsTerminal() && jobStatus(m, healthy.ID).IsTerminal()
	})

	failed, _ := m.Job(failing.ID)
	if failed.Status != model.JobStatusFailed {
		t.Errorf("expected failed status, got %s", failed.Status)
	}
	if failed.LastError == "" {
		t.Error("expected error message on failed job")
	}

	completed, _ := m.Job(healthy.ID)
	if completed.Status != model.JobStatusCompleted {
		t.Errorf("expected completed status, got %s", completed.Status)
	}
	if completed.OutputPath == "" {
		t.Error("expected output path on completed job")
	}
}

func TestCompletedJobReportsFullProgress(t *testing.T) {
	fetcher := newFakeFetcher(false)
	m := newTestManager(t, 1, fetcher)

	var mu sync.Mutex
	var last *model.Job
	m.SetUpdateCallback(func(job *model.Job) {
		mu.Lock()
		last = job
		mu.Unlock()
	})

	job, err := m.Submit(testURL("dQw4w9WgXcA"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	waitUntil(t, 5*time.Second, "job to complete", func() bool {
		return jobStatus(m, job.ID) == model.JobStatusCompleted
	})
	waitUntil(t, 5*time.Second, "final event to arrive", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last != nil && last.Status == model.JobStatusCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	if last.Progress != 1.0 {
		t.Errorf("final event progress = %f, want 1.0", last.Progress)
	}
	if !strings.HasSuffix(last.OutputPath, ".mp3") {
		t.Errorf("expected mp3 output path, got %s", last.OutputPath)
	}
	if last.Title != "Test Song" {
		t.Errorf("expected title from extraction, got %q", last.Title)
	}
}

func TestSubmitTextExtractsMultipleURLs(t *testing.T) {
	fetcher := newFakeFetcher(false)
	m := newTestManager(t, 3, fetcher)

	text := "https://www.youtube.com/watch?v=aaaaaaaaaaa\n" +
		"not a url at all\n" +
		"https://youtu.be/bbbbbbbbbbb\n"
	jobs, err := m.SubmitText(text)
	if err != nil {
		t.Fatalf("submit text failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	waitUntil(t, 5*time.Second, "all jobs to finish", func() bool {
		return m.Stats().Completed == 2
	})
}

func TestSubmitTextRejectsEmptyInput(t *testing.T) {
	m := newTestManager(t, 1, newFakeFetcher(false))

	if _, err := m.SubmitText("nothing here\n\n"); !errors.Is(err, ErrNoValidURLs) {
		t.Errorf("expected ErrNoValidURLs, got %v", err)
	}
}

func TestClearFinishedRemovesOnlyTerminalJobs(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	done, err := m.Submit(testURL("aaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	fetcher.releaseOne()
	waitUntil(t, 5*time.Second, "first job to finish", func() bool {
		return jobStatus(m, done.ID) == model.JobStatusCompleted
	})

	active, err := m.Submit(testURL("bbbbbbbbbbb"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	waitUntil(t, 5*time.Second, "second job to start", func() bool {
		return jobStatus(m, active.ID) == model.JobStatusDownloading
	})

	if removed := m.ClearFinished(); removed != 1 {
		t.Errorf("expected 1 removed job, got %d", removed)
	}
	if _, exists := m.Job(done.ID); exists {
		t.Error("finished job still present after clear")
	}
	if _, exists := m.Job(active.ID); !exists {
		t.Error("active job removed by clear")
	}

	fetcher.releaseOne()
}

func TestSetMaxConcurrentGrowsPool(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	for _, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"} {
		if _, err := m.Submit(testURL(id)); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	waitUntil(t, 5*time.Second, "one active job", func() bool {
		return m.Stats().Active == 1
	})

	m.SetMaxConcurrent(3)
	waitUntil(t, 5*time.Second, "three active jobs", func() bool {
		return m.Stats().Active == 3
	})

	for i := 0; i < 3; i++ {
		fetcher.releaseOne()
	}
	waitUntil(t, 5*time.Second, "all jobs to finish", func() bool {
		return m.Stats().Completed == 3
	})
}

func TestStatsAggregation(t *testing.T) {
	fetcher := newFakeFetcher(true)
	m := newTestManager(t, 1, fetcher)

	running, _ := m.Submit(testURL("aaaaaaaaaaa"))
	queued, _ := m.Submit(testURL("bbbbbbbbbbb"))

	waitUntil(t, 5*time.Second, "first job to start", func() bool {
		return jobStatus(m, running.ID) == model.JobStatusDownloading
	})

	stats := m.Stats()
	if stats.Total != 2 || stats.Active != 1 || stats.Queued != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	_ = m.Cancel(queued.ID)
	fetcher.releaseOne()
	waitUntil(t, 5*time.Second, "first job to finish", func() bool {
		return jobStatus(m, running.ID) == model.JobStatusCompleted
	})

	stats = m.Stats()
	if stats.Completed != 1 || stats.Cancelled != 1 || stats.Active != 0 {
		t.Errorf("unexpected final stats: %+v", stats)
	}
}

func TestPhaseTimeoutFailsJob(t *testing.T) {
	fetcher := newFakeFetcher(true)
	cfg := DefaultConfig(t.TempDir())
	cfg.MaxConcurrent = 1
	cfg.PhaseTimeout = 50 * time.Millisecond
	m := New(cfg, fetcher, &fakeConverter{})
	t.Cleanup(m.Close)

	job, err := m.Submit(testURL("dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The fetcher is never released, so the download phase deadline fires
	waitUntil(t, 5*time.Second, "job to time out", func() bool {
		return jobStatus(m, job.ID) == model.JobStatusFailed
	})

	got, ok := m.Job(job.ID)
	if !ok {
		t.Fatal("Job lookup failed")
	}
	if got.Status == model.JobStatusCancelled {
		t.Fatal("Expected timed-out job to be Failed, got Cancelled")
	}
	if !strings.Contains(got.LastError, "timed out after") {
		t.Errorf("Expected timeout message in LastError, got %q", got.LastError)
	}
}

func TestNetworkFailureLoggedAsNetwork(t *testing.T) {
	fetcher := newFakeFetcher(false)
	url := testURL("dQw4w9WgXcQ")
	fetcher.errs[url] = download.ErrNetwork

	m := newTestManager(t, 1, fetcher)

	var logMu sync.Mutex
	var logLines []string
	m.SetLogCallback(func(line string) {
		logMu.Lock()
		logLines = append(logLines, line)
		logMu.Unlock()
	})

	job, err := m.Submit(url)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	waitUntil(t, 5*time.Second, "job to fail", func() bool {
		return jobStatus(m, job.ID) == model.JobStatusFailed
	})

	waitUntil(t, 5*time.Second, "network failure log line", func() bool {
		logMu.Lock()
		defer logMu.Unlock()
		for _, line := range logLines {
			if strings.Contains(line, "failed (network)") {
				return true
			}
		}
		return false
	})
}
