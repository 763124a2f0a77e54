package livefs

import "time"

// Clock is the time source used to decide when a file's content is stale.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by the system wall clock.
func RealClock() Clock {
	return realClock{}
}
