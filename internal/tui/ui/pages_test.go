package ui

import (
	"slices"
	"testing"

	"github.com/rivo/tview"
)

func newTestPages() *Pages {
	p := NewPages()
	for _, name := range []string{"main", "help", "details"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	return p
}

func TestPagesPushPop(t *testing.T) {
	p := newTestPages()
	var last []string
	p.SetOnChange(func(stack []string) { last = stack })

	p.Reset("main")
	p.Push("help")
	p.Push("help")
	if p.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", p.Depth())
	}
	if !slices.Equal(last, []string{"main", "help"}) {
		t.Errorf("onChange stack = %v, want [main help]", last)
	}

	if got := p.Pop(); got != "help" {
		t.Errorf("Pop() = %q, want help", got)
	}
	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on root = %q, want empty", got)
	}
	if p.Current() != "main" {
		t.Errorf("Current() = %q, want main", p.Current())
	}
}

func TestPagesResetReplacesStack(t *testing.T) {
	p := newTestPages()
	p.Reset("main")
	p.Push("help")
	p.Push("details")
	p.Reset("main")

	if got := p.Stack(); !slices.Equal(got, []string{"main"}) {
		t.Errorf("Stack() = %v, want [main]", got)
	}
}
