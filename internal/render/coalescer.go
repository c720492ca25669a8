package render

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRedrawInterval caps full redraws at about 30 per second.
const DefaultRedrawInterval = 33 * time.Millisecond

// Coalescer limits how often fn runs. Requests that arrive while a run is
// already scheduled collapse into it; nothing is dropped or cancelled, the
// trailing request always runs.
type Coalescer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	fn      func()
	timer   *time.Timer
	pending bool
	closed  bool
}

func NewCoalescer(every time.Duration, fn func()) *Coalescer {
	if every <= 0 {
		every = DefaultRedrawInterval
	}
	return &Coalescer{
		limiter: rate.NewLimiter(rate.Every(every), 1),
		fn:      fn,
	}
}

// Request runs fn now if the limiter allows it, otherwise schedules one
// trailing run. fn may run on a timer goroutine.
func (c *Coalescer) Request() {
	c.mu.Lock()
	if c.closed || c.pending {
		c.mu.Unlock()
		return
	}
	r := c.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		c.mu.Unlock()
		c.fn()
		return
	}
	c.pending = true
	c.timer = time.AfterFunc(delay, c.fire)
	c.mu.Unlock()
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	c.pending = false
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.fn()
	}
}

// Close stops any scheduled run.
func (c *Coalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
