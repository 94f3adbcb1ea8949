package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Crumbs is a breadcrumb bar showing the current navigation path.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the breadcrumb trail. The last entry is highlighted.
func (c *Crumbs) Update(trail []string) {
	c.Clear()
	_, _ = fmt.Fprint(c, c.format(trail))
}

func (c *Crumbs) format(trail []string) string {
	parts := make([]string, 0, len(trail))
	for i, name := range trail {
		name = tview.Escape(name)
		if i == len(trail)-1 {
			parts = append(parts, fmt.Sprintf("[%s:%s:b] %s [-:-:-]",
				ColorName(c.theme.CrumbActiveFg), ColorName(c.theme.CrumbActiveBg), name))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:] %s [-:-:-]",
			ColorName(c.theme.CrumbInactiveFg), ColorName(c.theme.CrumbInactiveBg), name))
	}
	return strings.Join(parts, " ")
}
