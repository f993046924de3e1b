package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a process-local Counter. Each key has its own lock, so
// attempts from different addresses never contend. A background sweeper
// evicts windows that have expired.
type MemoryCounter struct {
	opts    Options
	windows sync.Map // string -> *window
	now     func() time.Time

	sweep *time.Ticker
	done  chan struct{}
	once  sync.Once
}

type window struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	dead    bool // evicted by the sweeper; callers must reload
}

// NewMemoryCounter starts a counter whose sweeper runs every sweepEvery.
// A non-positive sweepEvery falls back to the window length.
func NewMemoryCounter(opts Options, sweepEvery time.Duration) (*MemoryCounter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if sweepEvery <= 0 {
		sweepEvery = opts.Window
	}
	c := &MemoryCounter{
		opts:  opts,
		now:   time.Now,
		sweep: time.NewTicker(sweepEvery),
		done:  make(chan struct{}),
	}
	go c.sweeper()
	return c, nil
}

// Allow implements Counter. It never returns an error.
func (c *MemoryCounter) Allow(_ context.Context, key string) (Decision, error) {
	for {
		v, _ := c.windows.LoadOrStore(key, &window{})
		w := v.(*window)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		d := w.hit(c.now(), c.opts)
		w.mu.Unlock()
		return d, nil
	}
}

// hit applies one attempt. Caller holds w.mu.
func (w *window) hit(now time.Time, opts Options) Decision {
	if w.count == 0 || now.After(w.resetAt) {
		w.count = 1
		w.resetAt = now.Add(opts.Window)
		return Decision{Allowed: true, Count: 1, Remaining: remaining(opts.Max, 1), ResetAt: w.resetAt}
	}
	if w.count >= opts.Max {
		return Decision{Allowed: false, Count: w.count, Remaining: 0, ResetAt: w.resetAt}
	}
	w.count++
	return Decision{Allowed: true, Count: w.count, Remaining: remaining(opts.Max, w.count), ResetAt: w.resetAt}
}

// Len reports how many windows are currently tracked.
func (c *MemoryCounter) Len() int {
	n := 0
	c.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *MemoryCounter) sweeper() {
	for {
		select {
		case <-c.sweep.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCounter) evictExpired() {
	now := c.now()
	c.windows.Range(func(k, v any) bool {
		w := v.(*window)
		w.mu.Lock()
		if now.After(w.resetAt) {
			w.dead = true
			c.windows.Delete(k)
		}
		w.mu.Unlock()
		return true
	})
}

// Close stops the sweeper. Safe to call more than once.
func (c *MemoryCounter) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.sweep.Stop()
	})
	return nil
}
