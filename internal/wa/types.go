package wa

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Delivery statuses reported by the backend. Any other non-empty value is
// treated as sent.
const (
	StatusIncoming = ""
	StatusFailed   = "failed"
	StatusRead     = "read"
)

// Content kinds carried in ChatMessage.Content.Type.
const (
	KindText        = "text"
	KindImage       = "image"
	KindVideo       = "video"
	KindTemplate    = "template"
	KindButton      = "button"
	KindUnsupported = "unsupported"
)

// Conversation is a chat thread with one contact.
type Conversation struct {
	ID            string    `json:"id"`
	Name          *string   `json:"name,omitempty"`
	Phone         string    `json:"phone"`
	PhoneNumberID string    `json:"phone_number_id"`
	LastChatAt    time.Time `json:"last_chat_at"`
}

// DisplayName returns the contact name, falling back to the phone number.
func (c Conversation) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return c.Phone
}

// Initials returns the first character of every word of the display name.
func (c Conversation) Initials() string {
	var b strings.Builder
	for _, word := range strings.Split(c.DisplayName(), " ") {
		if word == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return b.String()
}

// ChatMessage is one inbound or outbound message of a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Content   Content   `json:"content"`
}

// Incoming reports whether the message was received rather than sent.
func (m ChatMessage) Incoming() bool {
	return m.Status == StatusIncoming
}

// TextBody is the payload of a text message.
type TextBody struct {
	Body string `json:"body"`
}

// Media references an image or video stored by the backend.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// Template is the payload of a template message.
type Template struct {
	Name string `json:"name"`
}

// Button is the payload of a quick-reply button message.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload,omitempty"`
}
