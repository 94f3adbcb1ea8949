package model

import (
	"context"
	"errors"

	"github.com/matheus3301/wachats/internal/tui/client"
	"github.com/matheus3301/wachats/internal/wa"
)

// ConversationSource lists conversations. *client.Client satisfies it.
type ConversationSource interface {
	ListConversations(ctx context.Context, q client.ConversationQuery) ([]wa.Conversation, error)
}

// MessageSource lists the messages of one conversation. *client.Client satisfies it.
type MessageSource interface {
	ListMessages(ctx context.Context, conversationID string, q client.MessageQuery) ([]wa.ChatMessage, error)
}

// Reporter receives the outcome of every backend round trip. *status.Machine
// satisfies it.
type Reporter interface {
	ReportSuccess()
	ReportFailure(err error)
}

type nopReporter struct{}

func (nopReporter) ReportSuccess()      {}
func (nopReporter) ReportFailure(error) {}

// report forwards err to r. Cancelled requests say nothing about the backend
// and are not reported.
func report(r Reporter, err error) {
	switch {
	case err == nil:
		r.ReportSuccess()
	case errors.Is(err, context.Canceled):
	default:
		r.ReportFailure(err)
	}
}
