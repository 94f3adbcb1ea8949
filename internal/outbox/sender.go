package outbox

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/matheus3301/wachats/internal/bus"
	"github.com/matheus3301/wachats/internal/wa"
	"go.uber.org/zap"
)

// ErrInFlight is returned by Send while a previous send has not completed.
var ErrInFlight = errors.New("a message is already being sent")

// ErrEmpty is returned by Send for blank text.
var ErrEmpty = errors.New("message text is empty")

// MessageSender posts a text message to a conversation.
type MessageSender interface {
	SendMessage(ctx context.Context, conversationID, text string) (*wa.ChatMessage, error)
}

// Sent is the payload of message.sent events.
type Sent struct {
	ConversationID string
	Message        *wa.ChatMessage
}

// SendFailed is the payload of message.send_failed events.
type SendFailed struct {
	ConversationID string
	Text           string
	Err            error
}

// Sender submits outgoing text one message at a time. Nothing is queued:
// text typed while a send is in flight is rejected with ErrInFlight and
// failed sends are not retried.
type Sender struct {
	sender   MessageSender
	bus      *bus.Bus
	logger   *zap.Logger
	inFlight atomic.Bool
}

// NewSender creates a new sender.
func NewSender(sender MessageSender, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		sender: sender,
		bus:    b,
		logger: logger,
	}
}

// InFlight reports whether a send is currently outstanding.
func (s *Sender) InFlight() bool {
	return s.inFlight.Load()
}

// Send posts text to the conversation and blocks until the backend answers.
func (s *Sender) Send(ctx context.Context, conversationID, text string) (*wa.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.publish(bus.MessageSending, conversationID)

	msg, err := s.sender.SendMessage(ctx, conversationID, text)
	if err != nil {
		s.logger.Error("failed to send message", zap.Error(err), zap.String("conversation_id", conversationID))
		s.publish(bus.MessageSendFailed, SendFailed{
			ConversationID: conversationID,
			Text:           text,
			Err:            err,
		})
		return nil, err
	}

	s.logger.Info("message sent", zap.String("conversation_id", conversationID), zap.String("message_id", msg.ID))
	s.publish(bus.MessageSent, Sent{ConversationID: conversationID, Message: msg})
	return msg, nil
}

func (s *Sender) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.NewEvent(kind, payload))
	}
}
