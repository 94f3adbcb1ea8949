package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Quit"},
		{"Ctrl-C", "Quit immediately"},
		{"Ctrl-R", "Refresh now"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter by name or phone"},
		{"0", "Clear filter"},
		{"1-9", "Open Nth conversation"},
		{"d", "Conversation details"},
		{"j/k", "Move down / up"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send message (in composer)"},
		{"o", "Load older messages"},
		{"d", "Conversation details"},
		{"Esc", "Leave composer / back to list"},
	}},
	{"Commands (: mode)", [][2]string{
		{":open <name>", "Open conversation by name or phone"},
		{":refresh", "Poll the backend now"},
		{":older", "Load older conversations"},
		{":help / :h", "Show this help"},
		{":quit / :q", "Quit application"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-14s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
