// Package ui contains the Fyne user interface: the root window with the
// URL input and job list, per-job rows, the settings dialog and the
// activity log panel.
package ui
