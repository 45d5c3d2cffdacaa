// Package throttle rate-limits per-job progress events before they reach
// the presentation layer. High-frequency samples from the download and
// conversion collaborators are collapsed so the UI thread is never
// overwhelmed, while status changes and the final completion event are
// always forwarded.
package throttle
