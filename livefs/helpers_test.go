package livefs_test

import (
	"time"

	"github.com/404wolf/livefs/livefs"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func staticFile(content string) livefs.GenerateFunc {
	return func(*livefs.FileEntry) []byte { return []byte(content) }
}

// countingFile returns content that grows by one byte on every generation.
func countingFile(calls *int) livefs.GenerateFunc {
	return func(*livefs.FileEntry) []byte {
		*calls++
		out := make([]byte, *calls)
		for i := range out {
			out[i] = 'x'
		}
		return out
	}
}
