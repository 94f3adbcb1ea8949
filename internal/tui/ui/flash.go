package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// FlashBar displays transient notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Info shows an informational notice.
func (fb *FlashBar) Info(msg string) {
	fb.show(msg, fb.theme.FlashInfoColor)
}

// Warn shows a warning.
func (fb *FlashBar) Warn(msg string) {
	fb.show(msg, fb.theme.FlashWarnColor)
}

// Err shows an error.
func (fb *FlashBar) Err(msg string) {
	fb.show(msg, fb.theme.FlashErrColor)
}

func (fb *FlashBar) show(msg string, color tcell.Color) {
	fb.Clear()
	if msg == "" {
		return
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(color), tview.Escape(msg))
}
