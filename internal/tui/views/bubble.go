package views

import (
	"strings"

	"github.com/rivo/tview"
)

// layoutBubble wraps tagged text to at most maxWidth cells per line and, for
// right-aligned bubbles, pads every line so it ends at the right edge of a
// pane width cells wide. Words wider than maxWidth are kept whole.
func layoutBubble(body string, align, maxWidth, width int) []string {
	var out []string
	for _, para := range strings.Split(body, "\n") {
		out = append(out, wrapTagged(para, maxWidth)...)
	}
	for i, line := range out {
		if align == tview.AlignRight {
			if pad := width - tview.TaggedStringWidth(line); pad > 0 {
				out[i] = strings.Repeat(" ", pad) + line
			}
		} else {
			out[i] = " " + line
		}
	}
	return out
}

func wrapTagged(line string, maxWidth int) []string {
	if maxWidth <= 0 || tview.TaggedStringWidth(line) <= maxWidth {
		return []string{line}
	}
	var (
		out []string
		cur strings.Builder
		w   int
	)
	for _, word := range strings.Split(line, " ") {
		ww := tview.TaggedStringWidth(word)
		switch {
		case w == 0:
		case w+1+ww > maxWidth:
			out = append(out, cur.String())
			cur.Reset()
			w = 0
		default:
			cur.WriteByte(' ')
			w++
		}
		cur.WriteString(word)
		w += ww
	}
	return append(out, cur.String())
}
