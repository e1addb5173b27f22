package invite

import (
	"sync"
	"sync/atomic"
	"time"
)

// fallbackTimer fires a callback once a deadline passes unless cancelled
// first. Starting it while a timer is pending is a no-op.
type fallbackTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// start arms the timer. Returns false if a timer was already pending.
func (f *fallbackTimer) start(d time.Duration, fire func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		return false
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		f.mu.Lock()
		if f.timer != t {
			// Cancelled between expiry and acquiring the lock.
			f.mu.Unlock()
			return
		}
		f.timer = nil
		f.mu.Unlock()

		fire()
	})
	f.timer = t

	return true
}

// cancel stops a pending timer. Safe to call when nothing is pending or the
// timer already fired.
func (f *fallbackTimer) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// pending reports whether a timer is armed.
func (f *fallbackTimer) pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timer != nil
}

// transitionGuard lets exactly one of normal completion and the fallback
// timer perform the terminal transition of a run.
type transitionGuard struct {
	done atomic.Bool
	by   atomic.Int32
}

// fire runs transition if nobody has yet and records who did.
// Returns false if the transition already happened.
func (g *transitionGuard) fire(trigger Trigger, transition func()) bool {
	if !g.done.CompareAndSwap(false, true) {
		return false
	}
	g.by.Store(int32(trigger))
	if transition != nil {
		transition()
	}
	return true
}

func (g *transitionGuard) trigger() Trigger {
	return Trigger(g.by.Load())
}
