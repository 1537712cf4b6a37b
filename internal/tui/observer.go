package tui

import "github.com/mmcdole/reel/internal/domain"

// ChannelObserver adapts domain.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.ResourceEvent
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.ResourceEvent) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnResourceEvent sends the event to the channel (non-blocking if full).
func (o *ChannelObserver) OnResourceEvent(event domain.ResourceEvent) {
	select {
	case o.ch <- event:
	default: // Non-blocking if channel full
	}
}
