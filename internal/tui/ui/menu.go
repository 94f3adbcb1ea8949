package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// MenuRows is the number of hints stacked in one menu column.
const MenuRows = 4

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints top to bottom, starting a new column every MenuRows.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.format(hints))
}

func (m *Menu) format(hints []MenuHint) string {
	keyColor := ColorName(m.theme.MenuKeyColor)
	numColor := ColorName(m.theme.NumericKeyColor)

	width := 0
	for _, h := range hints {
		if w := len(h.Key) + len(h.Description) + 3; w > width {
			width = w
		}
	}

	rows := make([]strings.Builder, min(len(hints), MenuRows))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		plain := len(h.Key) + len(h.Description) + 3
		pad := ""
		if i+MenuRows < len(hints) {
			pad = strings.Repeat(" ", width-plain+2)
		}
		fmt.Fprintf(&rows[i%MenuRows], "[%s::b]<%s>[-:-:-] %s%s", kc, tview.Escape(h.Key), h.Description, pad)
	}

	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = rows[i].String()
	}
	return strings.Join(lines, "\n")
}
