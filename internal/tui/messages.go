package tui

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/profile"
)

// Message types for the TUI

// SnapshotLoadedMsg carries the result of a full screen load
type SnapshotLoadedMsg struct {
	Snapshot profile.Snapshot
	Err      error
}

// ResourceEventMsg wraps a loader event received from the observer channel
type ResourceEventMsg struct {
	Event domain.ResourceEvent
}
