package session

import (
	"context"
	"sync"
	"time"
)

// EventKind names a change of session state.
type EventKind string

const (
	EventAdopted   EventKind = "adopted"
	EventCleared   EventKind = "cleared"
	EventForcedOut EventKind = "forced_logout"
)

// Event is published whenever the authenticated state of a session changes.
type Event struct {
	Kind      EventKind `json:"kind"`
	Snapshot  Snapshot  `json:"session"`
	Redirect  string    `json:"redirect,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// broadcaster fans events out to subscribers.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

// subscribe registers a subscriber; the channel is closed when ctx ends.
func (b *broadcaster) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// publish never blocks; slow subscribers miss events.
func (b *broadcaster) publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
