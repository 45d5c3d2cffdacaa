package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg settings for MP3 output
const (
	AudioCodec     = "libmp3lame"
	AudioBitrate   = "192k"
	SampleRate     = "44100"
	StereoChannels = "2"

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="

	OutputExtensionMP3 = ".mp3"
)

var (
	// ErrFFmpegNotFound is returned when the ffmpeg binary is missing
	ErrFFmpegNotFound = errors.New("ffmpeg not found: install ffmpeg or put the executable on PATH")

	// ErrConversion wraps ffmpeg failures
	ErrConversion = errors.New("conversion failed")
)

// FFmpegConverter drives the system ffmpeg binary
type FFmpegConverter struct {
	ffmpegPath string // custom path, "" means resolve from PATH
	bitrate    string
}

// NewFFmpegConverter creates a converter. ffmpegPath may be empty to use
// the binary from PATH.
func NewFFmpegConverter(ffmpegPath string) *FFmpegConverter {
	return &FFmpegConverter{ffmpegPath: ffmpegPath, bitrate: AudioBitrate}
}

// SetBitrate overrides the default MP3 bitrate
func (c *FFmpegConverter) SetBitrate(kbps int) {
	if kbps > 0 {
		c.bitrate = fmt.Sprintf("%dk", kbps)
	}
}

// Check verifies the ffmpeg binary is reachable
func (c *FFmpegConverter) Check() error {
	if c.ffmpegPath != "" {
		if _, err := os.Stat(c.ffmpegPath); err != nil {
			return fmt.Errorf("%w (configured path %s)", ErrFFmpegNotFound, c.ffmpegPath)
		}
		return nil
	}

	if _, err := exec.LookPath(FFmpegCommand); err != nil {
		return ErrFFmpegNotFound
	}
	return nil
}

// Convert transcodes inputPath to an MP3 at outputPath
func (c *FFmpegConverter) Convert(ctx context.Context, inputPath, outputPath string, onProgress func(float64)) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: input file does not exist: %s", ErrConversion, inputPath)
	}

	// Duration is needed only for progress scaling; conversion still works
	// without it.
	duration, err := c.audioDuration(ctx, inputPath)
	if err != nil {
		duration = 0
	}

	args := BuildFFmpegArgs(inputPath, outputPath, c.bitrate)
	cmd := exec.CommandContext(ctx, c.command(), args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: failed to create stderr pipe: %v", ErrConversion, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start ffmpeg: %v", ErrConversion, err)
	}

	go monitorProgress(stderr, duration, onProgress)

	err = cmd.Wait()

	if ctx.Err() != nil {
		os.Remove(outputPath)
		return ctx.Err()
	}
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: %v", ErrConversion, err)
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

// command returns the ffmpeg executable to run
func (c *FFmpegConverter) command() string {
	if c.ffmpegPath != "" {
		return c.ffmpegPath
	}
	return FFmpegCommand
}

// BuildFFmpegArgs builds the ffmpeg command arguments for MP3 extraction
func BuildFFmpegArgs(inputPath, outputPath, bitrate string) []string {
	if bitrate == "" {
		bitrate = AudioBitrate
	}
	return []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-vn",                 // Drop any video stream
		"-codec:a", AudioCodec, // MP3 encoder
		"-b:a", bitrate, // Constant bitrate
		"-ar", SampleRate, // 44.1 kHz
		"-ac", StereoChannels, // Stereo output
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats", // No stats output
		outputPath, // Output file
	}
}

// audioDuration measures the input duration in seconds using ffprobe
func (c *FFmpegConverter) audioDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, FFprobeCommand,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// monitorProgress parses ffmpeg progress output into fractions
func monitorProgress(stderr io.ReadCloser, totalDuration float64, onProgress func(float64)) {
	defer stderr.Close()
	scanner := bufio.NewScanner(stderr)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fraction, ok := parseProgressLine(line, totalDuration)
		if ok && onProgress != nil {
			onProgress(fraction)
		}
	}
}

// parseProgressLine extracts a 0..1 fraction from one out_time_us= line
func parseProgressLine(line string, totalDuration float64) (float64, bool) {
	if !strings.HasPrefix(line, ProgressTimePrefix) || totalDuration <= 0 {
		return 0, false
	}

	timeStr := strings.TrimPrefix(line, ProgressTimePrefix)
	timeMicroseconds, err := strconv.ParseInt(timeStr, 10, 64)
	if err != nil {
		return 0, false
	}

	timeSeconds := float64(timeMicroseconds) / 1000000.0
	fraction := timeSeconds / totalDuration
	if fraction > 1.0 {
		fraction = 1.0
	}
	if fraction < 0 {
		return 0, false
	}

	return fraction, true
}

// OutputPathFor derives the MP3 output path for a media file, replacing
// its extension.
func OutputPathFor(mediaPath string) string {
	ext := ""
	if idx := strings.LastIndex(mediaPath, "."); idx > strings.LastIndexAny(mediaPath, "/\\") {
		ext = mediaPath[idx:]
	}
	return strings.TrimSuffix(mediaPath, ext) + OutputExtensionMP3
}
