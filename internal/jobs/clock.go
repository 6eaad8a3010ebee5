package jobs

import "time"

// Clock is the time source of the poll loop. Tests inject a manual clock so
// intervals and deadlines elapse without real waiting.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
