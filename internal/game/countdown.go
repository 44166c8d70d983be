package game

import (
	"math"
	"sync"
	"time"
)

// DefaultTickInterval is the real-time granularity of the countdown.
const DefaultTickInterval = 100 * time.Millisecond

// urgencyThreshold is the remaining time at which the display flips to
// urgent. One-way: once urgent, the flag never resets while counting.
const urgencyThreshold = 5 * time.Second

// CountdownUpdate is one countdown observation pushed to the display.
type CountdownUpdate struct {
	// Remaining is the whole-second value to show, rounded up.
	Remaining int  `json:"remaining"`
	Urgent    bool `json:"urgent"`
	Done      bool `json:"done"`
}

// Countdown ticks a question's time limit down in real time. It is
// independent of the phase machine: reaching zero freezes the display at
// zero and reports Done, it never advances the phase.
type Countdown struct {
	mu        sync.Mutex
	remaining time.Duration
	urgent    bool
	done      bool

	stop     chan struct{}
	stopOnce sync.Once
}

func NewCountdown(seconds int) *Countdown {
	return &Countdown{
		remaining: time.Duration(seconds) * time.Second,
		stop:      make(chan struct{}),
	}
}

// Run drives the countdown until it hits zero or Stop is called,
// invoking onUpdate after every tick. Blocking; callers run it in a
// goroutine.
func (c *Countdown) Run(interval time.Duration, onUpdate func(CountdownUpdate)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			update, finished := c.tick(interval)
			if onUpdate != nil {
				onUpdate(update)
			}
			if finished {
				return
			}
		}
	}
}

func (c *Countdown) tick(elapsed time.Duration) (CountdownUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return c.snapshot(), true
	}
	c.remaining -= elapsed
	if c.remaining <= urgencyThreshold {
		c.urgent = true
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.done = true
	}
	return c.snapshot(), c.done
}

func (c *Countdown) snapshot() CountdownUpdate {
	return CountdownUpdate{
		Remaining: int(math.Ceil(c.remaining.Seconds())),
		Urgent:    c.urgent,
		Done:      c.done,
	}
}

// Stop ends the countdown early. Safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Remaining returns the current display value and flags.
func (c *Countdown) Remaining() CountdownUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}
