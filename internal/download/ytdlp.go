package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// ErrNetwork reports an extraction or network failure from yt-dlp
var ErrNetwork = errors.New("download failed")

// Extraction settings
const (
	ProgressSampleInterval = 500 * time.Millisecond
	RetryBackoff           = 2 * time.Second
	MaxRetries             = 1

	// Audio-only selection; conversion to MP3 happens in internal/convert
	AudioFormat      = "bestaudio/best"
	FilenameTemplate = "%(title)s.%(ext)s"
)

// YTDLPFetcher extracts audio streams using the yt-dlp binary
type YTDLPFetcher struct{}

// NewYTDLPFetcher creates the yt-dlp backed fetcher
func NewYTDLPFetcher() *YTDLPFetcher {
	return &YTDLPFetcher{}
}

// Fetch downloads the best audio stream for url into destDir and returns
// the media path and title. Progress samples carry byte fractions only.
func (f *YTDLPFetcher) Fetch(ctx context.Context, url, destDir string, onProgress func(Progress)) (*Result, error) {
	dl := ytdlp.New().
		Format(AudioFormat).
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Output(destDir + "/" + FilenameTemplate)

	var lastTitle string
	dl.ProgressFunc(ProgressSampleInterval, func(update ytdlp.ProgressUpdate) {
		if onProgress == nil {
			return
		}

		sample := Progress{ETASec: -1}

		if update.TotalBytes > 0 {
			sample.Fraction = float64(update.DownloadedBytes) / float64(update.TotalBytes)
		}

		if !update.Started.IsZero() {
			elapsed := time.Since(update.Started)
			if elapsed.Seconds() > 0 {
				bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
				sample.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
			}
		}

		if eta := update.ETA(); eta > 0 {
			sample.ETASec = int(eta.Seconds())
		}

		if update.Info != nil && update.Info.Title != nil && *update.Info.Title != "" {
			lastTitle = *update.Info.Title
		}
		sample.Title = lastTitle

		onProgress(sample)
	})

	result, err := f.runWithRetry(ctx, dl, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	res := &Result{Title: lastTitle}
	if result != nil {
		info, infoErr := result.GetExtractedInfo()
		if infoErr == nil && len(info) > 0 {
			if info[0].Filename != nil {
				res.MediaPath = *info[0].Filename
			}
			if res.Title == "" && info[0].Title != nil {
				res.Title = *info[0].Title
			}
		}
	}

	if res.MediaPath == "" {
		return nil, fmt.Errorf("%w: no media file reported for %s", ErrNetwork, url)
	}

	return res, nil
}

// runWithRetry attempts the download with a single backoff retry
func (f *YTDLPFetcher) runWithRetry(ctx context.Context, dl *ytdlp.Command, url string) (*ytdlp.Result, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			log.Printf("Retrying download for %s, attempt %d", url, attempt+1)
		}

		res, err := dl.Run(ctx, url)
		if err == nil {
			return res, nil
		}

		lastErr = err
		log.Printf("Download attempt %d failed for %s: %v", attempt+1, url, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// IsNetworkError reports whether err came from the extraction step
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) {
		return true
	}

	// yt-dlp surfaces transport failures as free-form messages
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "network") || strings.Contains(msg, "connection")
}
