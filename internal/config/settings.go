package config

import (
	"path/filepath"

	"fyne.io/fyne/v2"

	"github.com/tunegrab/tunegrab/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir      = "download_directory"
	KeyMaxConcurrent    = "max_concurrent_jobs"
	KeyAudioBitrate     = "audio_bitrate_kbps"
	KeyPhaseTimeoutMin  = "phase_timeout_minutes"
	KeyLanguage         = "app_language"
	KeyNotifyOnComplete = "notify_on_complete"
	KeyAutoScrollLogs   = "auto_scroll_logs"
)

// Default values
const (
	DefaultMaxConcurrent    = 3
	DefaultAudioBitrate     = 192
	DefaultPhaseTimeoutMin  = 30
	DefaultLanguage         = "system"
	DefaultNotifyOnComplete = true
	DefaultAutoScrollLogs   = true

	DownloadSubdir = "TuneGrab"
)

// Clamp bounds
const (
	MinConcurrent   = 1
	MaxConcurrent   = 10
	MinTimeoutMin   = 5
	MaxTimeoutMin   = 180
	FallbackPathDir = "/tmp/tunegrab"
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		downloads, err := platform.GetHomeDownloadsDir()
		if err != nil {
			downloads = FallbackPathDir
		}
		dir = filepath.Join(downloads, DownloadSubdir)
		s.SetDownloadDirectory(dir)
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxConcurrent returns the worker pool size
func (s *Settings) GetMaxConcurrent() int {
	value := s.app.Preferences().Int(KeyMaxConcurrent)
	if value <= 0 {
		s.SetMaxConcurrent(DefaultMaxConcurrent)
		return DefaultMaxConcurrent
	}
	return value
}

// SetMaxConcurrent sets the worker pool size, clamped to sane bounds
func (s *Settings) SetMaxConcurrent(count int) {
	if count < MinConcurrent {
		count = MinConcurrent
	}
	if count > MaxConcurrent {
		count = MaxConcurrent
	}
	s.app.Preferences().SetInt(KeyMaxConcurrent, count)
}

// GetAudioBitrate returns the MP3 bitrate in kbps
func (s *Settings) GetAudioBitrate() int {
	value := s.app.Preferences().Int(KeyAudioBitrate)
	if value <= 0 {
		s.SetAudioBitrate(DefaultAudioBitrate)
		return DefaultAudioBitrate
	}
	return value
}

// SetAudioBitrate sets the MP3 bitrate, snapping to the closest option
func (s *Settings) SetAudioBitrate(kbps int) {
	options := s.GetAudioBitrateOptions()
	closest := options[0]
	for _, option := range options {
		if abs(option-kbps) < abs(closest-kbps) {
			closest = option
		}
	}
	s.app.Preferences().SetInt(KeyAudioBitrate, closest)
}

// GetAudioBitrateOptions returns the supported MP3 bitrates
func (s *Settings) GetAudioBitrateOptions() []int {
	return []int{128, 192, 256, 320}
}

// GetPhaseTimeoutMinutes returns the per-phase watchdog in minutes
func (s *Settings) GetPhaseTimeoutMinutes() int {
	value := s.app.Preferences().Int(KeyPhaseTimeoutMin)
	if value <= 0 {
		s.SetPhaseTimeoutMinutes(DefaultPhaseTimeoutMin)
		return DefaultPhaseTimeoutMin
	}
	return value
}

// SetPhaseTimeoutMinutes sets the per-phase watchdog, clamped to sane bounds
func (s *Settings) SetPhaseTimeoutMinutes(minutes int) {
	if minutes < MinTimeoutMin {
		minutes = MinTimeoutMin
	}
	if minutes > MaxTimeoutMin {
		minutes = MaxTimeoutMin
	}
	s.app.Preferences().SetInt(KeyPhaseTimeoutMin, minutes)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"pt":     "Português",
	}
}

// GetNotifyOnComplete returns whether finished jobs raise a system notification
func (s *Settings) GetNotifyOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyNotifyOnComplete, DefaultNotifyOnComplete)
}

// SetNotifyOnComplete sets whether finished jobs raise a system notification
func (s *Settings) SetNotifyOnComplete(notify bool) {
	s.app.Preferences().SetBool(KeyNotifyOnComplete, notify)
}

// GetAutoScrollLogs returns whether the log panel follows new lines
func (s *Settings) GetAutoScrollLogs() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoScrollLogs, DefaultAutoScrollLogs)
}

// SetAutoScrollLogs sets whether the log panel follows new lines
func (s *Settings) SetAutoScrollLogs(autoScroll bool) {
	s.app.Preferences().SetBool(KeyAutoScrollLogs, autoScroll)
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
