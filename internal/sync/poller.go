package sync

import (
	"context"
	gosync "sync"
	"time"

	"go.uber.org/zap"
)

// PollFunc performs one fetch-and-merge round. The context is cancelled
// when the poller stops, which aborts any in-flight request.
type PollFunc func(ctx context.Context) error

// Poller runs a PollFunc on a fixed interval until stopped. Rounds never
// overlap: a tick that fires while a round is still running is skipped.
type Poller struct {
	name     string
	interval time.Duration
	fn       PollFunc
	logger   *zap.Logger

	mu     gosync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller. A nil logger disables logging.
func NewPoller(name string, interval time.Duration, fn PollFunc, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
	}
}

// Start begins ticking. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels the poller and waits for the current round to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poller has been started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.fn(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("poll failed", zap.String("poller", p.name), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
