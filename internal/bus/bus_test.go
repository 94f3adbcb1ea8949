package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversations.", 10)
	defer unsub()

	b.Publish(NewEvent(ConversationsMerged, 3))

	select {
	case evt := <-ch:
		if evt.Kind != ConversationsMerged {
			t.Errorf("got kind %q, want %s", evt.Kind, ConversationsMerged)
		}
		if evt.Payload != 3 {
			t.Errorf("payload = %v, want 3", evt.Payload)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("messages.", 10)
	defer unsub()

	b.Publish(Event{Kind: ConversationsMerged})
	b.Publish(Event{Kind: MessagesAppended})

	select {
	case evt := <-ch:
		if evt.Kind != MessagesAppended {
			t.Errorf("got kind %q, want %s", evt.Kind, MessagesAppended)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeMany(t *testing.T) {
	b := New()
	ch, unsub := b.SubscribeMany(10, "messages.", "message.")
	defer unsub()

	b.Publish(Event{Kind: MessagesReplaced})
	b.Publish(Event{Kind: MessageSent})
	b.Publish(Event{Kind: ConversationsPaged})

	got := []string{(<-ch).Kind, (<-ch).Kind}
	if got[0] != MessagesReplaced || got[1] != MessageSent {
		t.Errorf("kinds = %v, want [%s %s]", got, MessagesReplaced, MessageSent)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("messages.", 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: MessagesAppended})

	if _, ok := <-ch; ok {
		t.Error("received event after unsubscribe")
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("messages.", 10)
	b.Close()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}
	b.Publish(Event{Kind: MessagesAppended})

	late, _ := b.Subscribe("messages.", 1)
	if _, ok := <-late; ok {
		t.Error("subscription after Close should be closed")
	}
}
