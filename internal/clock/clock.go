package clock

import (
	"time"
)

// Timer is the cancel handle returned by Scheduler.After.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay on a single logical timeline.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Timer
}

// Real schedules callbacks with wall-clock timers. Callbacks run on their own
// goroutine, so callers must serialize any state they touch.
type Real struct{}

// NewReal returns the production scheduler.
func NewReal() Real {
	return Real{}
}

// Now returns the current wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// After runs fn once d has elapsed.
func (Real) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, fn)
}

// Scaled stretches or compresses every delay by a factor. The CLI uses it to
// replay the pipeline faster than real time.
type Scaled struct {
	Base   Scheduler
	Factor float64
}

// Now delegates to the wrapped scheduler.
func (s Scaled) Now() time.Time {
	return s.Base.Now()
}

// After schedules fn after d multiplied by the factor.
func (s Scaled) After(d time.Duration, fn func()) Timer {
	factor := s.Factor
	if factor <= 0 {
		factor = 1
	}
	return s.Base.After(time.Duration(float64(d)*factor), fn)
}
