package model

import (
	"context"

	"github.com/matheus3301/wachats/internal/bus"
)

// ViewModel groups the state the TUI renders and signals when it changed.
type ViewModel struct {
	Conversations *Conversations
	Thread        *Thread
	Flash         Flash

	refreshCh chan struct{}
}

// NewViewModel creates a view model over the given list and thread.
func NewViewModel(convs *Conversations, thread *Thread) *ViewModel {
	return &ViewModel{
		Conversations: convs,
		Thread:        thread,
		refreshCh:     make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh. Bursts of changes
// collapse into one pending signal.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

// Refresh requests a redraw.
func (vm *ViewModel) Refresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Watch turns model, sender and status events into refresh signals until
// ctx is done or the bus is closed.
func (vm *ViewModel) Watch(ctx context.Context, b *bus.Bus) {
	ch, unsub := b.SubscribeMany(64, "conversations.", "messages.", "message.", "status.")
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			vm.Refresh()
		}
	}
}
