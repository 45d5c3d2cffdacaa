package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconQueued   = "⏳"
	IconCancel   = "⏹"
	IconError    = "❌"
	IconMusic    = "🎵"
	IconFolder   = "📁"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing (JobRow / lists)
const (
	StatusLabelWidth  float32 = 96
	SpeedLabelWidth   float32 = 110
	PercentLabelWidth float32 = 48

	RowMinWidth  float32 = 420
	RowMinHeight float32 = 72

	WindowWidth  float32 = 860
	WindowHeight float32 = 640

	LogPanelHeight float32 = 120

	SettingsDialogWidth  float32 = 520
	SettingsDialogHeight float32 = 420
)

// Log panel behavior
const (
	MaxLogLines    = 500
	StatsBarFormat = "%d total" + MiddleDotSeparator + "%d active" + MiddleDotSeparator + "%d queued" + MiddleDotSeparator + "%d done" + MiddleDotSeparator + "%d failed"
)

// Delays
const (
	PopupAutoHide = 2 * time.Second
)
