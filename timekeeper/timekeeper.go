// Package timekeeper accumulates wall-clock time under named clocks.
package timekeeper

import (
	"sync"
	"time"
)

// Option configures a TimeKeeper.
type Option func(*TimeKeeper)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(tk *TimeKeeper) {
		if now != nil {
			tk.now = now
		}
	}
}

type clock struct {
	total   time.Duration
	started time.Time
	running bool
}

// TimeKeeper keeps a set of named clocks.
//
// A clock accumulates the time between each Start and the following Stop.
// Clocks are created on first use and reported in that order. All methods
// are safe for concurrent use.
type TimeKeeper struct {
	mu     sync.Mutex
	now    func() time.Time
	clocks map[string]*clock
	order  []string
}

// Timing is one clock's accumulated time.
type Timing struct {
	Name    string
	Elapsed time.Duration
}

// New creates an empty TimeKeeper.
func New(opts ...Option) *TimeKeeper {
	tk := &TimeKeeper{
		now:    time.Now,
		clocks: make(map[string]*clock),
	}
	for _, opt := range opts {
		opt(tk)
	}

	return tk
}

// must be called with mu held
func (tk *TimeKeeper) get(name string) *clock {
	c, ok := tk.clocks[name]
	if !ok {
		c = &clock{}
		tk.clocks[name] = c
		tk.order = append(tk.order, name)
	}

	return c
}

// Start starts (or restarts the current interval of) the named clock.
func (tk *TimeKeeper) Start(name string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	c := tk.get(name)
	c.started = tk.now()
	c.running = true
}

// Stop adds the time since the matching Start to the named clock.
//
// Stopping a clock that is not running does nothing.
func (tk *TimeKeeper) Stop(name string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	c := tk.get(name)
	if !c.running {
		return
	}
	c.total += tk.now().Sub(c.started)
	c.running = false
}

// Reset zeroes the named clock. A running clock keeps running from now.
func (tk *TimeKeeper) Reset(name string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	c := tk.get(name)
	c.total = 0
	if c.running {
		c.started = tk.now()
	}
}

// Time returns the accumulated time of the named clock.
//
// Only completed intervals count; unknown clocks report zero.
func (tk *TimeKeeper) Time(name string) time.Duration {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	if c, ok := tk.clocks[name]; ok {
		return c.total
	}

	return 0
}

// AllTimes returns every clock in order of first use.
func (tk *TimeKeeper) AllTimes() []Timing {
	tk.mu.Lock()
	defer tk.mu.Unlock()

	out := make([]Timing, len(tk.order))
	for i, name := range tk.order {
		out[i] = Timing{Name: name, Elapsed: tk.clocks[name].total}
	}

	return out
}

// Measure runs fn under the named clock.
func (tk *TimeKeeper) Measure(name string, fn func() error) error {
	tk.Start(name)
	defer tk.Stop(name)

	return fn()
}
