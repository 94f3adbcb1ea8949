package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/wa"
	"github.com/rivo/tview"
)

// ConversationList is the conversation table.
type ConversationList struct {
	*tview.Table
	theme    *ui.Theme
	convs    []wa.Conversation
	visible  []wa.Conversation
	filter   string
	activeID string
	now      func() time.Time

	onOpen    func(wa.Conversation)
	onNearEnd func()
	restoring bool
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	cl := &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}

	table.SetSelectedFunc(func(row, _ int) {
		if c, ok := cl.at(row); ok && cl.onOpen != nil {
			cl.onOpen(c)
		}
	})
	table.SetSelectionChangedFunc(func(row, _ int) {
		if cl.restoring {
			return
		}
		if cl.filter == "" && row > 0 && row == len(cl.visible) && cl.onNearEnd != nil {
			cl.onNearEnd()
		}
	})

	cl.render()
	return cl
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "d", Description: "Details"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// SetOnOpen sets the callback fired when a conversation is chosen with Enter.
func (cl *ConversationList) SetOnOpen(fn func(wa.Conversation)) {
	cl.onOpen = fn
}

// SetOnNearEnd sets the callback fired when the cursor reaches the last row.
// It is used to page older conversations in.
func (cl *ConversationList) SetOnNearEnd(fn func()) {
	cl.onNearEnd = fn
}

// Update replaces the rows, keeping the cursor on the same conversation.
// Moving the cursor here does not count as reaching the end.
func (cl *ConversationList) Update(convs []wa.Conversation) {
	selected, hadSelection := cl.Selected()
	cl.convs = convs
	cl.render()

	cl.restoring = true
	defer func() { cl.restoring = false }()
	switch {
	case hadSelection:
		cl.selectID(selected.ID)
	case len(cl.visible) > 0:
		cl.Select(1, 0)
	}
}

// SetActive marks the conversation currently open in the thread.
func (cl *ConversationList) SetActive(id string) {
	cl.activeID = id
	cl.render()
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = strings.TrimSpace(filter)
	cl.render()
	cl.restoring = true
	cl.Select(1, 0)
	cl.restoring = false
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string {
	return cl.filter
}

// Selected returns the conversation under the cursor.
func (cl *ConversationList) Selected() (wa.Conversation, bool) {
	row, _ := cl.GetSelection()
	return cl.at(row)
}

// ByIndex returns the Nth visible conversation (1-based).
func (cl *ConversationList) ByIndex(n int) (wa.Conversation, bool) {
	if n < 1 || n > len(cl.visible) {
		return wa.Conversation{}, false
	}
	return cl.visible[n-1], true
}

// FindByName returns the first conversation whose display name or phone
// contains query, ignoring the filter.
func (cl *ConversationList) FindByName(query string) (wa.Conversation, bool) {
	for _, c := range cl.convs {
		if matches(c, query) {
			return c, true
		}
	}
	return wa.Conversation{}, false
}

// Visible returns the conversations that pass the filter, in display order.
func (cl *ConversationList) Visible() []wa.Conversation {
	return cl.visible
}

func (cl *ConversationList) at(row int) (wa.Conversation, bool) {
	return cl.ByIndex(row)
}

func (cl *ConversationList) selectID(id string) {
	for i, c := range cl.visible {
		if c.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text  string
		exp   int
		align int
	}{
		{" #", 0, tview.AlignRight},
		{" ", 0, tview.AlignLeft},
		{" NAME", 2, tview.AlignLeft},
		{" PHONE", 1, tview.AlignLeft},
		{" LAST ACTIVE", 0, tview.AlignRight},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp).
			SetAlign(h.align)
		cl.SetCell(0, col, cell)
	}

	visible := make([]wa.Conversation, 0, len(cl.convs))
	for _, c := range cl.convs {
		if cl.filter != "" && !matches(c, cl.filter) {
			continue
		}
		visible = append(visible, c)
	}
	cl.visible = visible

	now := cl.now()
	for i, c := range cl.visible {
		row := i + 1
		fg := cl.theme.FgColor
		attrs := tcell.AttrNone
		if c.ID == cl.activeID {
			fg = cl.theme.CounterColor
			attrs = tcell.AttrBold
		}
		index := ""
		if row <= 9 {
			index = fmt.Sprintf("%d", row)
		}
		cl.SetCell(row, 0, tview.NewTableCell(index).SetTextColor(cl.theme.NumericKeyColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.Initials()))).SetTextColor(cl.theme.AvatarColor).SetAttributes(tcell.AttrBold))
		cl.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(oneLine(sanitizeForTerminal(c.DisplayName())))).SetExpansion(2).SetTextColor(fg).SetAttributes(attrs))
		cl.SetCell(row, 3, tview.NewTableCell(" "+tview.Escape(c.Phone)).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 4, tview.NewTableCell(formatTimestamp(c.LastChatAt, now)+" ").SetTextColor(fg).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

func matches(c wa.Conversation, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.DisplayName()), q) ||
		strings.Contains(strings.ToLower(c.Phone), q)
}

// formatTimestamp renders t relative to now: a clock time today, a short
// date this year, a full date otherwise.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	switch {
	case t.Year() == now.Year() && t.YearDay() == now.YearDay():
		return t.Format("15:04")
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("2006-01-02")
	}
}
