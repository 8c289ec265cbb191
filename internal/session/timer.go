package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimer counts a round down in one-second steps. It emits a TimerTick
// per second and exactly one TimerExpired at zero, unless stopped first.
type RoundTimer struct {
	clock clockwork.Clock
	emit  func(Event)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRoundTimer creates a stopped timer that reports through emit.
func NewRoundTimer(clock clockwork.Clock, emit func(Event)) *RoundTimer {
	return &RoundTimer{clock: clock, emit: emit}
}

// Start replaces any running countdown with a new one for round.
func (t *RoundTimer) Start(round, seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	if seconds <= 0 {
		go t.expire(ctx, round)
		return
	}
	// Created here, not in run, so the ticker exists once Start returns.
	ticker := t.clock.NewTicker(time.Second)
	go t.run(ctx, ticker, round, seconds)
}

// Stop cancels the running countdown, if any. Safe to call repeatedly.
func (t *RoundTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *RoundTimer) run(ctx context.Context, ticker clockwork.Ticker, round, remaining int) {
	defer ticker.Stop()
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			remaining--
			if ctx.Err() != nil {
				return
			}
			t.emit(TimerTick{Round: round, Remaining: remaining})
		}
	}
	t.expire(ctx, round)
}

func (t *RoundTimer) expire(ctx context.Context, round int) {
	if ctx.Err() != nil {
		return
	}
	t.emit(TimerExpired{Round: round})
}
