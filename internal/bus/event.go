package bus

import "time"

// Event kinds published by the models and the sender.
const (
	ConversationsMerged = "conversations.merged"
	ConversationsPaged  = "conversations.paged"
	MessagesReplaced    = "messages.replaced"
	MessagesAppended    = "messages.appended"
	MessagesPaged       = "messages.paged"
	MessageSending      = "message.sending"
	MessageSent         = "message.sent"
	MessageSendFailed   = "message.send_failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent returns an event stamped with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
