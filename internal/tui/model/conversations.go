package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/matheus3301/wachats/internal/bus"
	chatsync "github.com/matheus3301/wachats/internal/sync"
	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/matheus3301/wachats/internal/wa"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Conversations holds the conversation list, newest activity first.
type Conversations struct {
	source   ConversationSource
	reporter Reporter
	bus      *bus.Bus
	logger   *zap.Logger

	mu        sync.RWMutex
	items     []wa.Conversation
	exhausted bool

	older singleflight.Group
}

// NewConversations creates an empty conversation list backed by source.
func NewConversations(source ConversationSource, reporter Reporter, b *bus.Bus, logger *zap.Logger) *Conversations {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conversations{
		source:   source,
		reporter: reporter,
		bus:      b,
		logger:   logger,
	}
}

// Load performs the unbounded initial fetch and replaces the held list.
func (m *Conversations) Load(ctx context.Context) error {
	fresh, err := m.source.ListConversations(ctx, client.ConversationQuery{})
	report(m.reporter, err)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.items = chatsync.MergeConversations(nil, fresh)
	m.exhausted = false
	n := len(m.items)
	m.mu.Unlock()

	m.logger.Debug("conversations loaded", zap.Int("count", n))
	m.publish(bus.ConversationsMerged, n)
	return nil
}

// Poll fetches conversations active since the newest one held and merges
// them in. With nothing held it fetches unbounded.
func (m *Conversations) Poll(ctx context.Context) error {
	var q client.ConversationQuery
	m.mu.RLock()
	if len(m.items) > 0 {
		q.AfterAt = m.items[0].LastChatAt
	}
	m.mu.RUnlock()

	fresh, err := m.source.ListConversations(ctx, q)
	report(m.reporter, err)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	m.mu.Lock()
	m.items = chatsync.MergeConversations(m.items, fresh)
	n := len(m.items)
	m.mu.Unlock()

	m.logger.Debug("conversations merged", zap.Int("fresh", len(fresh)), zap.Int("count", n))
	m.publish(bus.ConversationsMerged, n)
	return nil
}

// LoadOlder fetches the page preceding the oldest held conversation and
// appends it. Concurrent calls share one request. It returns how many
// conversations were added.
func (m *Conversations) LoadOlder(ctx context.Context) (int, error) {
	v, err, _ := m.older.Do("older", func() (any, error) {
		return m.loadOlder(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (m *Conversations) loadOlder(ctx context.Context) (int, error) {
	m.mu.RLock()
	if len(m.items) == 0 || m.exhausted {
		m.mu.RUnlock()
		return 0, nil
	}
	q := client.ConversationQuery{BeforeAt: m.items[len(m.items)-1].LastChatAt}
	m.mu.RUnlock()

	older, err := m.source.ListConversations(ctx, q)
	report(m.reporter, err)
	if err != nil {
		return 0, fmt.Errorf("load older conversations: %w", err)
	}

	m.mu.Lock()
	before := len(m.items)
	m.items = chatsync.AppendOlderConversations(m.items, older)
	added := len(m.items) - before
	if added == 0 {
		m.exhausted = true
	}
	m.mu.Unlock()

	if added > 0 {
		m.publish(bus.ConversationsPaged, added)
	}
	return added, nil
}

// Snapshot returns a copy of the held list.
func (m *Conversations) Snapshot() []wa.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]wa.Conversation, len(m.items))
	copy(out, m.items)
	return out
}

// Find returns the held conversation with the given id.
func (m *Conversations) Find(id string) (wa.Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.items {
		if c.ID == id {
			return c, true
		}
	}
	return wa.Conversation{}, false
}

// Exhausted reports whether a backward page came back with nothing new.
func (m *Conversations) Exhausted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exhausted
}

func (m *Conversations) publish(kind string, payload any) {
	if m.bus != nil {
		m.bus.Publish(bus.NewEvent(kind, payload))
	}
}
