// Package events provides a simple publish-subscribe bus carrying store
// snapshots to SSE clients.
package events

import (
	"sync"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe bus. Subscribers that are slow
// to consume have snapshots dropped rather than blocking the store.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan models.Snapshot
}

// NewBus creates a new bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan models.Snapshot)}
}

// Subscribe creates a new subscription with the given ID.
// Call Unsubscribe when done to clean up.
func (b *Bus) Subscribe(id string) <-chan models.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan models.Snapshot, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends a snapshot to all subscribers, dropping on full buffers.
func (b *Bus) Publish(snap models.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
			// Drop if subscriber is slow
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
