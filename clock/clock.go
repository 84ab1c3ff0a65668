// Package clock defines the monotonic cycle counter shared by the CPU and
// the memory mapper. It is the only synchronization primitive in the
// simulation: every bus access ticks it exactly once.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic counter of elapsed cycles. The zero value is a
// usable free-running clock (no real-time pacing).
type Clock struct {
	mu      sync.Mutex
	cycles  uint64
	perTick time.Duration
}

// Option configures a Clock at construction time.
type Option func(*Clock)

// WithPacing makes Tick block for approximately perTick after advancing the
// counter, so the simulation runs no faster than real hardware would. A
// zero duration (the default) means free-running: Tick never blocks.
func WithPacing(perTick time.Duration) Option {
	return func(c *Clock) {
		c.perTick = perTick
	}
}

// New creates a Clock at cycle 0.
func New(opts ...Option) *Clock {
	c := &Clock{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CurrentCycle returns the number of cycles elapsed so far.
func (c *Clock) CurrentCycle() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Tick advances the counter by one and blocks for the configured pacing
// duration, if any. Free-running clocks (the default) never block.
func (c *Clock) Tick() {
	c.mu.Lock()
	c.cycles++
	d := c.perTick
	c.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

// Reset zeroes the cycle counter. Used by harnesses that rerun a program
// from a fresh power-on state without reallocating a Clock.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles = 0
}
