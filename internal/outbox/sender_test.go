package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/wachats/internal/bus"
	"github.com/matheus3301/wachats/internal/wa"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// mockSender records calls and returns configurable results.
type mockSender struct {
	mu      sync.Mutex
	calls   []sendCall
	err     error
	release chan struct{} // when set, SendMessage blocks until closed
	started chan struct{}
}

type sendCall struct {
	ConversationID string
	Text           string
}

func (m *mockSender) SendMessage(ctx context.Context, conversationID, text string) (*wa.ChatMessage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sendCall{ConversationID: conversationID, Text: text})
	m.mu.Unlock()
	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &wa.ChatMessage{ID: "srv-1", Status: "sent", Content: wa.NewText(text)}, nil
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestSendSuccess(t *testing.T) {
	b := bus.New()
	mock := &mockSender{}
	s := NewSender(mock, b, zap.NewNop())

	ch, unsub := b.Subscribe(bus.MessageSent, 10)
	defer unsub()

	msg, err := s.Send(context.Background(), "C", "Hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.ID != "srv-1" {
		t.Errorf("ID = %q, want %q", msg.ID, "srv-1")
	}
	if mock.callCount() != 1 {
		t.Fatalf("got %d send calls, want 1", mock.callCount())
	}
	if mock.calls[0] != (sendCall{ConversationID: "C", Text: "Hello"}) {
		t.Errorf("call = %+v, want {C, Hello}", mock.calls[0])
	}
	if s.InFlight() {
		t.Error("InFlight() = true after Send returned")
	}

	select {
	case evt := <-ch:
		sent, ok := evt.Payload.(Sent)
		if !ok || sent.ConversationID != "C" {
			t.Errorf("payload = %#v, want Sent for C", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message.sent event")
	}
}

func TestSendFailureClearsInFlight(t *testing.T) {
	b := bus.New()
	mock := &mockSender{err: errors.New("network error")}
	s := NewSender(mock, b, zaptest.NewLogger(t))

	ch, unsub := b.Subscribe(bus.MessageSendFailed, 10)
	defer unsub()

	if _, err := s.Send(context.Background(), "C", "hello"); err == nil {
		t.Fatal("Send() expected error")
	}
	if s.InFlight() {
		t.Error("InFlight() = true after failed Send")
	}

	select {
	case evt := <-ch:
		failed := evt.Payload.(SendFailed)
		if failed.Text != "hello" {
			t.Errorf("Text = %q, want %q", failed.Text, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message.send_failed event")
	}

	// No retry: the next send is a fresh request.
	mock.err = nil
	if _, err := s.Send(context.Background(), "C", "hello"); err != nil {
		t.Fatalf("Send() after failure error = %v", err)
	}
	if mock.callCount() != 2 {
		t.Errorf("got %d send calls, want 2", mock.callCount())
	}
}

func TestSendRejectsWhileInFlight(t *testing.T) {
	mock := &mockSender{release: make(chan struct{}), started: make(chan struct{})}
	s := NewSender(mock, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "C", "first")
		done <- err
	}()

	select {
	case <-mock.started:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for first send")
	}
	if !s.InFlight() {
		t.Error("InFlight() = false during send")
	}

	if _, err := s.Send(context.Background(), "C", "second"); !errors.Is(err, ErrInFlight) {
		t.Errorf("second Send() error = %v, want ErrInFlight", err)
	}

	close(mock.release)
	if err := <-done; err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if mock.callCount() != 1 {
		t.Errorf("got %d send calls, want 1", mock.callCount())
	}
}

func TestSendRejectsBlank(t *testing.T) {
	mock := &mockSender{}
	s := NewSender(mock, nil, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := s.Send(context.Background(), "C", text); !errors.Is(err, ErrEmpty) {
			t.Errorf("Send(%q) error = %v, want ErrEmpty", text, err)
		}
	}
	if mock.callCount() != 0 {
		t.Errorf("got %d send calls, want 0", mock.callCount())
	}
}
