// Package validate checks submitted YouTube URLs before they are admitted
// into the download queue and extracts URLs from free-form text input.
package validate
