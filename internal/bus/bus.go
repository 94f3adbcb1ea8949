package bus

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Bus is an in-process publish/subscribe event bus with namespace filtering.
// Publishing never blocks: events for a full subscriber are dropped, since
// every consumer re-reads model snapshots rather than relying on payloads.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	next    int
	closed  bool
	dropped atomic.Int64
}

type subscription struct {
	namespaces []string
	ch         chan Event
}

func (s *subscription) matches(kind string) bool {
	for _, ns := range s.namespaces {
		if strings.HasPrefix(kind, ns) {
			return true
		}
	}
	return false
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
	}
}

// Publish sends an event to all subscribers with a namespace that is a prefix
// of event.Kind.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.matches(evt.Kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel that receives events matching the given namespace prefix.
// bufSize controls the channel buffer. Returns the channel and an unsubscribe function.
func (b *Bus) Subscribe(namespace string, bufSize int) (<-chan Event, func()) {
	return b.SubscribeMany(bufSize, namespace)
}

// SubscribeMany is Subscribe for several namespace prefixes sharing one channel.
func (b *Bus) SubscribeMany(bufSize int, namespaces ...string) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = &subscription{namespaces: namespaces, ch: ch}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Dropped returns how many events were discarded because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
