package clock

import "time"

// Timer is a pending call that can be stopped
type Timer interface {
	// Stop prevents the call from happening, it reports false if the call already happened or was stopped
	Stop() bool
}

// Clock is the source of time for everything that schedules work
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine once d has elapsed
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// New returns a Clock backed by the system clock
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
