package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidURL reports a malformed or unsupported URL
var ErrInvalidURL = errors.New("invalid YouTube URL")

// Canonical URL template used after normalization
const (
	WatchURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Supported YouTube URL shapes. Video IDs are exactly 11 characters.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})(?:&.*)?$`),
	regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]{11})(?:\?.*)?$`),
	regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})(?:\?.*)?$`),
	regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})(?:\?.*)?$`),
	regexp.MustCompile(`(?i)^(?:https?://)?(?:m\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})(?:&.*)?$`),
}

// Same shapes without anchors, for finding URLs embedded in a line of text
var searchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})(?:&[^\s]*)?`),
	regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]{11})(?:\?[^\s]*)?`),
	regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})(?:\?[^\s]*)?`),
	regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})(?:\?[^\s]*)?`),
	regexp.MustCompile(`(?i)(?:https?://)?(?:m\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})(?:&[^\s]*)?`),
}

// IsValid reports whether url is a well-formed YouTube video URL
func IsValid(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}

	for _, pattern := range urlPatterns {
		if pattern.MatchString(url) {
			return true
		}
	}
	return false
}

// VideoID extracts the 11-character video ID, or "" for invalid URLs
func VideoID(url string) string {
	url = strings.TrimSpace(url)
	for _, pattern := range urlPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// Normalize rewrites any supported URL shape into the canonical watch URL.
// Invalid URLs are returned unchanged.
func Normalize(url string) string {
	if id := VideoID(url); id != "" {
		return fmt.Sprintf(WatchURLTemplate, id)
	}
	return url
}

// Check returns ErrInvalidURL (wrapped with the offending input) for
// malformed URLs and nil otherwise.
func Check(url string) error {
	if !IsValid(url) {
		return fmt.Errorf("%w: %s", ErrInvalidURL, strings.TrimSpace(url))
	}
	return nil
}

// ExtractFromText collects valid YouTube URLs from multi-line text input,
// one URL per line or embedded within a line. Results are normalized and
// de-duplicated preserving submission order.
func ExtractFromText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if IsValid(line) {
			urls = append(urls, Normalize(line))
			continue
		}

		for _, pattern := range searchPatterns {
			for _, match := range pattern.FindAllString(line, -1) {
				if IsValid(match) {
					urls = append(urls, Normalize(match))
				}
			}
		}
	}

	// De-duplicate preserving order
	seen := make(map[string]struct{}, len(urls))
	unique := urls[:0]
	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		unique = append(unique, url)
	}

	return unique
}
