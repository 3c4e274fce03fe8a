// Package ui contains the Fyne-based desktop user interface for the application.
// It wires file selection, encode options and batch progress to the transcode
// service. All UI strings are localized via Localization.
package ui
