package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData holds what the header shows about the active profile.
type ProfileData struct {
	Profile       string
	Server        string
	Status        string
	Conversations int
	Messages      int
	Uptime        time.Duration
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.Clear()
	if data == nil {
		return
	}

	fgColor := ColorName(pi.theme.FgColor)
	counterColor := ColorName(pi.theme.CounterColor)

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Server:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]  %s\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-] [%s::b]Msgs:[-:-:-] [%s]%d[-] [%s::b]Up:[-:-:-] [%s]%s[-]",
		fgColor, counterColor, tview.Escape(data.Profile),
		fgColor, counterColor, tview.Escape(data.Server),
		fgColor, data.Status,
		fgColor, counterColor, data.Conversations,
		fgColor, counterColor, data.Messages,
		fgColor, counterColor, formatDuration(data.Uptime),
	)

	_, _ = fmt.Fprint(pi, text)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
