// Package manager orchestrates URL-to-MP3 jobs. It validates and admits
// submissions, runs at most a configured number of jobs concurrently,
// queues the rest in FIFO order, and drives each job through its download
// and conversion phases with cooperative cancellation.
package manager
