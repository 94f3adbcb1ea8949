package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matheus3301/wachats/internal/bus"
	chatsync "github.com/matheus3301/wachats/internal/sync"
	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/matheus3301/wachats/internal/wa"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrStale is returned when a response arrives for a conversation that is no
// longer open. The response has been discarded.
var ErrStale = errors.New("conversation changed while loading")

// ThreadUpdate is the payload of messages.* events.
type ThreadUpdate struct {
	ConversationID string
	Count          int
}

// Thread holds the messages of the open conversation, oldest first.
type Thread struct {
	source   MessageSource
	reporter Reporter
	bus      *bus.Bus
	logger   *zap.Logger

	mu        sync.RWMutex
	conv      *wa.Conversation
	gen       uint64
	messages  []wa.ChatMessage
	loading   bool
	exhausted bool

	older singleflight.Group
}

// NewThread creates a thread with no conversation open.
func NewThread(source MessageSource, reporter Reporter, b *bus.Bus, logger *zap.Logger) *Thread {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Thread{
		source:   source,
		reporter: reporter,
		bus:      b,
		logger:   logger,
	}
}

// Open switches to conv and replaces the held messages with a full fetch.
// If another conversation is opened before the fetch returns, the result is
// dropped and ErrStale is returned.
func (t *Thread) Open(ctx context.Context, conv wa.Conversation) error {
	return t.Load(ctx, t.Switch(conv))
}

// Switch makes conv the open conversation with no messages held and returns
// its generation. Responses for earlier generations are discarded from now
// on.
func (t *Thread) Switch(conv wa.Conversation) uint64 {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.conv = &conv
	t.messages = nil
	t.loading = true
	t.exhausted = false
	t.mu.Unlock()
	t.publish(bus.MessagesReplaced, ThreadUpdate{ConversationID: conv.ID})
	return gen
}

// Load performs the full fetch for generation gen, as returned by Switch.
func (t *Thread) Load(ctx context.Context, gen uint64) error {
	t.mu.RLock()
	if t.gen != gen || t.conv == nil {
		t.mu.RUnlock()
		return ErrStale
	}
	convID := t.conv.ID
	t.mu.RUnlock()

	msgs, err := t.source.ListMessages(ctx, convID, client.MessageQuery{})
	if !t.current(gen) {
		t.logger.Debug("discarding stale thread load", zap.String("conversation_id", convID))
		return ErrStale
	}
	report(t.reporter, err)
	if err != nil {
		t.mu.Lock()
		t.loading = false
		t.mu.Unlock()
		t.publish(bus.MessagesReplaced, ThreadUpdate{ConversationID: convID})
		return fmt.Errorf("open conversation %s: %w", convID, err)
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return ErrStale
	}
	t.messages = chatsync.ReverseMessages(msgs)
	t.loading = false
	n := len(t.messages)
	t.mu.Unlock()

	t.logger.Debug("thread loaded", zap.String("conversation_id", convID), zap.Int("count", n))
	t.publish(bus.MessagesReplaced, ThreadUpdate{ConversationID: convID, Count: n})
	return nil
}

// Close forgets the open conversation. Responses still in flight are
// discarded.
func (t *Thread) Close() {
	t.mu.Lock()
	t.gen++
	t.conv = nil
	t.messages = nil
	t.loading = false
	t.mu.Unlock()
	t.publish(bus.MessagesReplaced, ThreadUpdate{})
}

// Poll fetches messages newer than the last one held and appends them.
func (t *Thread) Poll(ctx context.Context) error {
	t.mu.RLock()
	if t.conv == nil {
		t.mu.RUnlock()
		return nil
	}
	convID, gen := t.conv.ID, t.gen
	var q client.MessageQuery
	if n := len(t.messages); n > 0 {
		q.AfterID = t.messages[n-1].ID
	}
	t.mu.RUnlock()

	fresh, err := t.source.ListMessages(ctx, convID, q)
	if !t.current(gen) {
		return nil
	}
	report(t.reporter, err)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return nil
	}
	before := len(t.messages)
	t.messages = chatsync.AppendMessages(t.messages, fresh)
	added := len(t.messages) - before
	t.mu.Unlock()

	if added > 0 {
		t.publish(bus.MessagesAppended, ThreadUpdate{ConversationID: convID, Count: added})
	}
	return nil
}

// LoadOlder fetches the page preceding the oldest held message and prepends
// it. Concurrent calls share one request. It returns how many messages were
// added.
func (t *Thread) LoadOlder(ctx context.Context) (int, error) {
	t.mu.RLock()
	key := fmt.Sprint(t.gen)
	t.mu.RUnlock()

	v, err, _ := t.older.Do(key, func() (any, error) {
		return t.loadOlder(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (t *Thread) loadOlder(ctx context.Context) (int, error) {
	t.mu.RLock()
	if t.conv == nil || len(t.messages) == 0 || t.exhausted {
		t.mu.RUnlock()
		return 0, nil
	}
	convID, gen := t.conv.ID, t.gen
	q := client.MessageQuery{BeforeID: t.messages[0].ID}
	t.mu.RUnlock()

	older, err := t.source.ListMessages(ctx, convID, q)
	if !t.current(gen) {
		return 0, ErrStale
	}
	report(t.reporter, err)
	if err != nil {
		return 0, fmt.Errorf("load older messages: %w", err)
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return 0, ErrStale
	}
	before := len(t.messages)
	t.messages = chatsync.PrependOlderMessages(t.messages, older)
	added := len(t.messages) - before
	if added == 0 {
		t.exhausted = true
	}
	t.mu.Unlock()

	if added > 0 {
		t.publish(bus.MessagesPaged, ThreadUpdate{ConversationID: convID, Count: added})
	}
	return added, nil
}

// Conversation returns the open conversation.
func (t *Thread) Conversation() (wa.Conversation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conv == nil {
		return wa.Conversation{}, false
	}
	return *t.conv, true
}

// Messages returns a copy of the held messages, oldest first.
func (t *Thread) Messages() []wa.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]wa.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// LastID returns the id of the newest held message, or "".
func (t *Thread) LastID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return ""
	}
	return t.messages[len(t.messages)-1].ID
}

// Loading reports whether the initial fetch of the open conversation is
// outstanding.
func (t *Thread) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

func (t *Thread) current(gen uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen == gen
}

func (t *Thread) publish(kind string, payload any) {
	if t.bus != nil {
		t.bus.Publish(bus.NewEvent(kind, payload))
	}
}
