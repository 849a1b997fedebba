// Package events fans portfolio events out to observers outside the foreground loop.
package events

import (
	"sync"

	"github.com/vadiminshakov/investtrack/internal/domain"
)

const defaultBuffer = 64

// SnapshotBroadcaster fans appended snapshots out to all subscribers through
// buffered channels. A subscriber that falls behind misses snapshots; it never
// blocks the publisher.
type SnapshotBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan domain.Snapshot]struct{}
	buffer int
	closed bool
}

// NewSnapshotBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewSnapshotBroadcaster(buffer int) *SnapshotBroadcaster {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &SnapshotBroadcaster{
		subs:   make(map[chan domain.Snapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends s to every subscriber and returns how many received it.
func (b *SnapshotBroadcaster) Publish(s domain.Snapshot) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- s:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribe returns a channel receiving snapshots until Unsubscribe or Close.
// After Close the returned channel is already closed.
func (b *SnapshotBroadcaster) Subscribe() <-chan domain.Snapshot {
	ch := make(chan domain.Snapshot, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *SnapshotBroadcaster) Unsubscribe(sub <-chan domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		if (<-chan domain.Snapshot)(ch) == sub {
			delete(b.subs, ch)
			close(ch)
			return
		}
	}
}

// Subscribers number of active subscriptions.
func (b *SnapshotBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription; later subscriptions are closed immediately.
func (b *SnapshotBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.closed = true
}
