package model

import (
	"fmt"
	"strings"
	"time"
)

// Job represents a single URL-to-MP3 conversion request
type Job struct {
	ID          string
	URL         string
	VideoID     string
	Title       string    // video title, filled once metadata is known
	Status      JobStatus
	Progress    float64   // 0.0 to 1.0 across both phases
	Speed       string    // human readable download speed
	ETASec      int       // estimated seconds remaining, -1 if unknown
	LastError   string    // last error message if any
	OutputPath  string    // path to the final MP3 file
	FileSize    int64     // output size in bytes
	SubmittedAt time.Time // when the job was accepted
	StartedAt   time.Time // when a pool slot was granted
	FinishedAt  time.Time // when the job reached a terminal state
}

// SetStatus updates the job status. The error message is kept only for
// failed jobs so stale errors do not survive a restart.
func (j *Job) SetStatus(status JobStatus, errMsg string) {
	j.Status = status
	if status == JobStatusFailed {
		j.LastError = errMsg
	} else {
		j.LastError = ""
	}
}

// SetProgress stores a progress fraction clamped to [0,1]
func (j *Job) SetProgress(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	j.Progress = fraction
}

// Percent returns the progress as an integer percentage
func (j *Job) Percent() int {
	return int(j.Progress*100 + 0.5)
}

// DisplayTitle returns title, output filename, or URL in order of preference
func (j *Job) DisplayTitle() string {
	if j.Title != "" && !strings.HasPrefix(j.Title, "http") {
		return j.Title
	}

	if j.OutputPath != "" {
		parts := strings.FieldsFunc(j.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return j.URL
}

// ETAString formats the remaining time for display
func (j *Job) ETAString() string {
	if j.ETASec <= 0 {
		return ""
	}
	if j.ETASec < 60 {
		return fmt.Sprintf("%ds", j.ETASec)
	}
	return fmt.Sprintf("%dm%02ds", j.ETASec/60, j.ETASec%60)
}

// Clone returns a shallow copy safe to hand to other goroutines
func (j *Job) Clone() *Job {
	c := *j
	return &c
}

// ProgressEvent is an ephemeral progress sample flowing from a running job
// towards the presentation layer. It is consumed by the throttler and
// discarded.
type ProgressEvent struct {
	JobID    string
	Fraction float64 // 0.0 to 1.0
	Phase    Phase
	Status   JobStatus
	Speed    string // human readable, e.g. "1.2MB/s"
	ETASec   int    // -1 if unknown
}

// Terminal returns true if the event carries a final status
func (e ProgressEvent) Terminal() bool {
	return e.Status.IsTerminal()
}
