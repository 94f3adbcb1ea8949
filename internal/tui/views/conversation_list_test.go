package views

import (
	"testing"
	"time"

	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/wa"
)

func strPtr(s string) *string { return &s }

func sampleConversations() []wa.Conversation {
	return []wa.Conversation{
		{ID: "c1", Name: strPtr("Ana Souza"), Phone: "5511999990001"},
		{ID: "c2", Phone: "5511999990002"},
		{ID: "c3", Name: strPtr("Bruno"), Phone: "5521988880003"},
	}
}

func TestConversationListFilter(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update(sampleConversations())

	if n := len(cl.Visible()); n != 3 {
		t.Fatalf("Visible() len = %d, want 3", n)
	}

	cl.SetFilter("ana")
	if got := cl.Visible(); len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("filter ana = %v, want [c1]", got)
	}

	cl.SetFilter("5521")
	if got := cl.Visible(); len(got) != 1 || got[0].ID != "c3" {
		t.Errorf("filter by phone = %v, want [c3]", got)
	}

	cl.ClearFilter()
	if n := len(cl.Visible()); n != 3 {
		t.Errorf("Visible() after ClearFilter len = %d, want 3", n)
	}
}

func TestConversationListByIndex(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update(sampleConversations())

	if c, ok := cl.Selected(); !ok || c.ID != "c1" {
		t.Errorf("initial Selected() = %v, %v, want c1", c.ID, ok)
	}

	c, ok := cl.ByIndex(2)
	if !ok || c.ID != "c2" {
		t.Errorf("ByIndex(2) = %v, %v, want c2", c.ID, ok)
	}
	if _, ok := cl.ByIndex(0); ok {
		t.Error("ByIndex(0) ok, want false")
	}
	if _, ok := cl.ByIndex(4); ok {
		t.Error("ByIndex(4) ok, want false")
	}
}

func TestConversationListKeepsSelection(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	convs := sampleConversations()
	cl.Update(convs)
	cl.Select(2, 0)

	// c2 moves to the top after new activity.
	cl.Update([]wa.Conversation{convs[1], convs[0], convs[2]})

	c, ok := cl.Selected()
	if !ok || c.ID != "c2" {
		t.Errorf("Selected() = %v, want c2", c.ID)
	}
}

func TestConversationListOpenAndNearEnd(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update(sampleConversations())

	var nearEnd int
	cl.SetOnNearEnd(func() { nearEnd++ })
	cl.Select(2, 0)
	cl.Select(3, 0)
	if nearEnd != 1 {
		t.Errorf("near end fired %d times, want 1", nearEnd)
	}

	cl.SetFilter("bruno")
	cl.Select(1, 0)
	if nearEnd != 1 {
		t.Errorf("near end fired while filtering")
	}

	c, ok := cl.FindByName("souza")
	if !ok || c.ID != "c1" {
		t.Errorf("FindByName(souza) = %v, want c1", c.ID)
	}
}

func TestConversationListRefreshOnLastRowDoesNotPage(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	convs := sampleConversations()
	cl.Update(convs)

	var nearEnd int
	cl.SetOnNearEnd(func() { nearEnd++ })
	cl.Select(3, 0)
	if nearEnd != 1 {
		t.Fatalf("near end fired %d times on reaching the last row, want 1", nearEnd)
	}

	for range 5 {
		cl.Update(convs)
	}
	cl.ClearFilter()
	if nearEnd != 1 {
		t.Errorf("near end fired %d times after refreshes, want 1", nearEnd)
	}
	if c, ok := cl.Selected(); !ok || c.ID != "c1" {
		t.Errorf("Selected() = %v after ClearFilter, want c1", c.ID)
	}

	// New rows arrive below the cursor; moving down to the new end pages again.
	more := append(append([]wa.Conversation(nil), convs...), wa.Conversation{ID: "c4", Phone: "5531"})
	cl.Update(more)
	cl.Select(4, 0)
	if nearEnd != 2 {
		t.Errorf("near end fired %d times after moving to the new last row, want 2", nearEnd)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC), "09:05"},
		{time.Date(2024, 3, 2, 9, 5, 0, 0, time.UTC), "Mar 02"},
		{time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), "2023-12-31"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.in, now); got != tt.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
