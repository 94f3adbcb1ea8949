package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/wa"
	"github.com/rivo/tview"
)

const composerTitle = " Compose (i to focus) "

// MessageThread displays the messages of one conversation and a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	renderer *Renderer
	header   *tview.TextView
	messages *tview.TextView
	composer *tview.InputField

	conv    *wa.Conversation
	msgs    []wa.ChatMessage
	loading bool
	firstID string
	lastID  string
	width   int

	onSend func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme, renderer *Renderer) *MessageThread {
	header := tview.NewTextView().
		SetDynamicColors(true)
	header.SetBackgroundColor(theme.BgColor)

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("Type a message...")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(composerTitle)
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		renderer: renderer,
		header:   header,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil {
			return
		}
		if text := composer.GetText(); strings.TrimSpace(text) != "" {
			mt.onSend(text)
		}
	})

	mt.render()
	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.conv != nil {
		return mt.conv.DisplayName()
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "o", Description: "Older"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// SetOnSend sets the callback fired when Enter is pressed with text in the
// composer. The composer is not cleared; call ClearComposer on success.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Update renders conv and its messages, oldest first. The view scrolls to
// the end when the newest message changes and to the top when older
// messages were prepended.
func (mt *MessageThread) Update(conv *wa.Conversation, msgs []wa.ChatMessage, loading bool) {
	switched := conv == nil || mt.conv == nil || conv.ID != mt.conv.ID
	mt.conv = conv
	mt.msgs = msgs
	mt.loading = loading
	mt.render()

	var first, last string
	if len(msgs) > 0 {
		first, last = msgs[0].ID, msgs[len(msgs)-1].ID
	}
	switch {
	case switched || last != mt.lastID:
		mt.messages.ScrollToEnd()
	case first != mt.firstID:
		mt.messages.ScrollToBeginning()
	}
	mt.firstID, mt.lastID = first, last
}

// Conversation returns the conversation on display.
func (mt *MessageThread) Conversation() (wa.Conversation, bool) {
	if mt.conv == nil {
		return wa.Conversation{}, false
	}
	return *mt.conv, true
}

// SetSending disables the composer while a send is in flight.
func (mt *MessageThread) SetSending(sending bool) {
	mt.composer.SetDisabled(sending)
	if sending {
		mt.composer.SetTitle(" Sending... ")
	} else {
		mt.composer.SetTitle(composerTitle)
	}
}

// ClearComposer empties the composer.
func (mt *MessageThread) ClearComposer() {
	mt.composer.SetText("")
}

// ComposerText returns the composer content.
func (mt *MessageThread) ComposerText() string {
	return mt.composer.GetText()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

// Draw re-lays the bubbles when the pane width changed, then draws.
func (mt *MessageThread) Draw(screen tcell.Screen) {
	_, _, w, _ := mt.GetInnerRect()
	if w-2 != mt.width {
		mt.width = w - 2
		mt.render()
	}
	mt.Flex.Draw(screen)
}

func (mt *MessageThread) render() {
	mt.header.Clear()
	mt.messages.Clear()

	if mt.conv == nil {
		mt.messages.SetTitle(" Messages ")
		_, _ = fmt.Fprintf(mt.messages, "\n [%s]Select a conversation[-]", ui.ColorName(mt.theme.TimestampColor))
		return
	}

	c := mt.conv
	_, _ = fmt.Fprintf(mt.header, " [%s::b]%s[-:-:-] [::b]%s[::-] [%s]%s[-]",
		ui.ColorName(mt.theme.AvatarColor), tview.Escape(sanitizeForTerminal(c.Initials())),
		tview.Escape(oneLine(sanitizeForTerminal(c.DisplayName()))),
		ui.ColorName(mt.theme.TimestampColor), tview.Escape(c.Phone))
	mt.messages.SetTitle(fmt.Sprintf(" %s (%d) ", tview.Escape(oneLine(sanitizeForTerminal(c.DisplayName()))), len(mt.msgs)))

	switch {
	case len(mt.msgs) == 0 && mt.loading:
		_, _ = fmt.Fprintf(mt.messages, "\n [%s]Loading...[-]", ui.ColorName(mt.theme.TimestampColor))
		return
	case len(mt.msgs) == 0:
		_, _ = fmt.Fprintf(mt.messages, "\n [%s]No messages yet[-]", ui.ColorName(mt.theme.TimestampColor))
		return
	}

	_, _ = fmt.Fprint(mt.messages, mt.format(*c, mt.msgs))
}

func (mt *MessageThread) format(conv wa.Conversation, msgs []wa.ChatMessage) string {
	width := mt.width
	maxWidth := width * 3 / 4
	tsColor := ui.ColorName(mt.theme.TimestampColor)

	var b strings.Builder
	for _, m := range msgs {
		style := StyleForStatus(m.Status)
		base := ui.ColorName(style.Color(mt.theme))
		body := mt.renderer.Content(conv, m.Content, base)

		for _, line := range layoutBubble(body, style.Align, maxWidth, width) {
			fmt.Fprintf(&b, "[%s::-]%s[-:-:-]\n", base, line)
		}
		footer := fmt.Sprintf("[%s]%s / %s[-]", tsColor, m.CreatedAt.Local().Format("2006-01-02 15:04:05"), tview.Escape(statusLabel(m.Status)))
		for _, line := range layoutBubble(footer, style.Align, 0, width) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusLabel(status string) string {
	if status == wa.StatusIncoming {
		return "received"
	}
	return status
}
