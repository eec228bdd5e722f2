package ui

import "time"

// LayoutCompactWidth is the terminal width below which the board drops its
// professional and services columns.
const LayoutCompactWidth = 100

// Log pane limits.
const (
	// LogTailLimit is the number of log records shown in the log pane.
	LogTailLimit = 500
)

// DefaultUIInterval is how often the UI re-reads the board snapshot.
const DefaultUIInterval = time.Second
