package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/wa"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders conversation details. mediaBase is the URL prefix media of
// this conversation is served from.
func (ci *ConversationInfo) Update(conv *wa.Conversation, messages int, mediaBase string) {
	ci.Clear()
	if conv == nil {
		return
	}

	fg := ui.ColorName(ci.theme.FgColor)
	ct := ui.ColorName(ci.theme.CounterColor)

	name := "-"
	if conv.Name != nil && *conv.Name != "" {
		name = *conv.Name
	}
	lastActive := "-"
	if !conv.LastChatAt.IsZero() {
		lastActive = conv.LastChatAt.Local().Format(time.RFC1123)
	}

	rows := []struct{ label, value string }{
		{"Name:", name},
		{"Initials:", conv.Initials()},
		{"Phone:", conv.Phone},
		{"ID:", conv.ID},
		{"Phone Number ID:", conv.PhoneNumberID},
		{"Last Active:", lastActive},
		{"Loaded Messages:", fmt.Sprintf("%d", messages)},
		{"Media:", mediaBase},
	}
	_, _ = fmt.Fprint(ci, "\n")
	for _, r := range rows {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-17s[-:-:-] [%s]%s[-]\n",
			fg, r.label, ct, tview.Escape(sanitizeForTerminal(r.value)))
	}
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(oneLine(sanitizeForTerminal(conv.DisplayName())))))
}
