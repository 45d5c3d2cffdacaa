package platform

// Package platform wraps OS-specific concerns: locating the user's
// Downloads directory, creating folders, and opening finished files in the
// system file manager or default player.
