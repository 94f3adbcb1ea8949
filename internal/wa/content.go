package wa

import (
	"encoding/json"
	"fmt"
)

// Content is the typed payload of a ChatMessage. Only the field matching
// Type is set. Raw always holds the payload as received so unknown kinds can
// still be shown.
type Content struct {
	Type     string    `json:"type"`
	Text     *TextBody `json:"text,omitempty"`
	Image    *Media    `json:"image,omitempty"`
	Video    *Media    `json:"video,omitempty"`
	Template *Template `json:"template,omitempty"`
	Button   *Button   `json:"button,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type contentFields Content

// UnmarshalJSON decodes the known payload kinds and keeps the raw bytes.
func (c *Content) UnmarshalJSON(data []byte) error {
	var f contentFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	*c = Content(f)
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the payload as received when available.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(contentFields(c))
}

// NewText builds a text payload.
func NewText(body string) Content {
	return Content{Type: KindText, Text: &TextBody{Body: body}}
}

// Preview returns a one-line summary of the payload, used by list views and
// the CLI.
func (c Content) Preview() string {
	switch c.Type {
	case KindText:
		if c.Text != nil {
			return c.Text.Body
		}
	case KindImage:
		return "[image]"
	case KindVideo:
		return "[video]"
	case KindTemplate:
		if c.Template != nil {
			return c.Template.Name
		}
	case KindButton:
		if c.Button != nil {
			return c.Button.Text
		}
	case KindUnsupported:
		return "unsupported message"
	}
	return c.RawString()
}

// RawString returns the payload as JSON text.
func (c Content) RawString() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%+v", contentFields(c))
	}
	return string(b)
}

// MediaID returns the referenced media identifier for image and video
// payloads.
func (c Content) MediaID() (string, bool) {
	switch {
	case c.Type == KindImage && c.Image != nil:
		return c.Image.ID, true
	case c.Type == KindVideo && c.Video != nil:
		return c.Video.ID, true
	}
	return "", false
}
