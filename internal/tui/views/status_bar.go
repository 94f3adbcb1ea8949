package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/wachats/internal/status"
	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the profile and backend connectivity.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	state   status.State
	lastErr string
	now     func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{
		TextView: tv,
		theme:    theme,
		state:    status.Connecting,
		now:      time.Now,
	}
	sb.render()
	return sb
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetState updates the connectivity display. err is the most recent poll
// error, shown while the backend is not online.
func (sb *StatusBar) SetState(state status.State, err error) {
	sb.state = state
	sb.lastErr = ""
	if err != nil && state != status.Online {
		sb.lastErr = err.Error()
	}
	sb.render()
}

func (sb *StatusBar) stateColor() string {
	switch sb.state {
	case status.Online:
		return ui.ColorName(sb.theme.OnlineColor)
	case status.Degraded:
		return ui.ColorName(sb.theme.DegradedColor)
	case status.Offline:
		return ui.ColorName(sb.theme.OfflineColor)
	default:
		return ui.ColorName(sb.theme.FlashInfoColor)
	}
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-] | %s",
		tview.Escape(sb.profile), sb.stateColor(), sb.state, sb.now().Format("15:04"))
	if sb.lastErr != "" {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.ColorName(sb.theme.FlashWarnColor), tview.Escape(oneLine(sb.lastErr)))
	}

	_, _ = fmt.Fprint(sb, line)
}
