package download

import "context"

// Progress is a single extraction progress sample
type Progress struct {
	Fraction float64 // 0.0 to 1.0, download bytes only
	Speed    string  // human readable, e.g. "1.2MB/s"
	ETASec   int     // -1 if unknown
	Title    string  // video title once known, "" otherwise
}

// Result describes a finished extraction
type Result struct {
	MediaPath string // downloaded media file awaiting conversion
	Title     string // video title, may be empty on metadata failure
}

// Fetcher defines the interface for the extraction collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string, onProgress func(Progress)) (*Result, error)
}
