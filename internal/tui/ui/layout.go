package ui

// TwoPaneMinWidth is the narrowest terminal, in columns, that shows the
// conversation list and the thread side by side.
const TwoPaneMinWidth = 100

// Layout selects which panes are visible.
type Layout int

const (
	// LayoutList shows only the conversation list.
	LayoutList Layout = iota
	// LayoutThread shows only the open thread.
	LayoutThread
	// LayoutSplit shows the list and the thread next to each other.
	LayoutSplit
)

func (l Layout) String() string {
	switch l {
	case LayoutList:
		return "list"
	case LayoutThread:
		return "thread"
	case LayoutSplit:
		return "split"
	default:
		return "unknown"
	}
}

// LayoutFor picks the layout for a terminal of the given width.
func LayoutFor(width int, threadOpen bool) Layout {
	if width >= TwoPaneMinWidth {
		return LayoutSplit
	}
	if threadOpen {
		return LayoutThread
	}
	return LayoutList
}

// ShowsList reports whether the conversation list is visible.
func (l Layout) ShowsList() bool {
	return l == LayoutList || l == LayoutSplit
}

// ShowsThread reports whether the thread pane is visible.
func (l Layout) ShowsThread() bool {
	return l == LayoutThread || l == LayoutSplit
}
