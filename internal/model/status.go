package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// JobStatusQueued means the job is waiting for a free pool slot
	JobStatusQueued JobStatus = "Queued"

	// JobStatusDownloading means the audio stream is being fetched
	JobStatusDownloading JobStatus = "Downloading"

	// JobStatusConverting means ffmpeg is producing the MP3 output
	JobStatusConverting JobStatus = "Converting"

	// JobStatusCompleted means the job finished successfully
	JobStatusCompleted JobStatus = "Completed"

	// JobStatusFailed means the job failed with an error
	JobStatusFailed JobStatus = "Failed"

	// JobStatusCancelled means the job was cancelled by the user
	JobStatusCancelled JobStatus = "Cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job currently occupies a pool slot
func (js JobStatus) IsActive() bool {
	return js == JobStatusDownloading || js == JobStatusConverting
}

// IsTerminal returns true if the job reached a final state
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusCompleted || js == JobStatusFailed || js == JobStatusCancelled
}

// Phase identifies which external collaborator produced a progress sample
type Phase string

const (
	// PhaseDownload covers the stream extraction step
	PhaseDownload Phase = "download"

	// PhaseConvert covers the MP3 conversion step
	PhaseConvert Phase = "convert"
)
