package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconStop     = "⏹"
	IconPending  = "⏳"
	IconClose    = "×"
	IconError    = "❌"
	IconDone     = "✔"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing (JobRow / lists)
const (
	StatusLabelWidth  float32 = 150
	PercentLabelWidth float32 = 48
	ProgressBarWidth  float32 = 160

	RowMinWidth  float32 = 480
	RowMinHeight float32 = 64

	WindowWidth    float32 = 900
	WindowHeight   float32 = 640
	DropZoneHeight float32 = 90
)

// Toast notification sizing and behavior
const (
	ToastWidth    float32 = 320
	ToastHeight   float32 = 120
	ToastMargin   float32 = 20
	ToastAutoHide         = 5 * time.Second
)

// Dialog sizing
const (
	SettingsDialogWidth  float32 = 520
	SettingsDialogHeight float32 = 420
)
