package convert

import "context"

// Converter defines the interface for the MP3 conversion collaborator.
type Converter interface {
	// Check verifies the conversion binary is available. Called once at
	// manager startup; a missing binary is reported there, not per job.
	Check() error

	// Convert transcodes inputPath into an MP3 at outputPath, reporting
	// conversion progress as a 0..1 fraction. The partial output file is
	// removed on cancellation or error.
	Convert(ctx context.Context, inputPath, outputPath string, onProgress func(float64)) error
}
