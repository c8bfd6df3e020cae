package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// questionTimer drives the one-second countdown for a single question. There is
// no pause or resume; a question is either counting down or the timer has been
// torn down.
//
// The ticker is created in the caller's goroutine and stopped synchronously by
// cancel, so no stray tick can be scheduled once cancel returns.
type questionTimer struct {
	ticker   clockwork.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

// startQuestionTimer counts down from seconds. onTick fires once per elapsed
// second with the updated remaining value, including the transition to 0.
// onExpire fires exactly once when the countdown reaches zero, unless the timer
// was cancelled first. If expiry races with cancel, the session's round guard
// decides which side wins; the timer itself never fires onExpire twice.
func startQuestionTimer(clock clockwork.Clock, seconds int, onTick func(int), onExpire func()) *questionTimer {
	t := &questionTimer{stopCh: make(chan struct{})}
	if seconds <= 0 {
		go onExpire()
		return t
	}
	t.ticker = clock.NewTicker(time.Second)
	go t.run(seconds, onTick, onExpire)
	return t
}

func (t *questionTimer) run(seconds int, onTick func(int), onExpire func()) {
	remaining := seconds
	for {
		select {
		case <-t.ticker.Chan():
			remaining--
			onTick(remaining)
			if remaining <= 0 {
				t.ticker.Stop()
				onExpire()
				return
			}
		case <-t.stopCh:
			return
		}
	}
}

// cancel stops the countdown. A no-op after expiry or a previous cancel.
func (t *questionTimer) cancel() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		if t.ticker != nil {
			t.ticker.Stop()
		}
	})
}
