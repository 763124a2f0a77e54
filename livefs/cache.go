package livefs

import "time"

// DefaultCoalesceWindow is how long generated content is reused before the
// generator is called again.
const DefaultCoalesceWindow = 100 * time.Millisecond

// ContentCache decides when a file's generator is re-run. Content produced
// within the coalescing window is reused, so the size reported by a lookup
// or getattr matches the bytes returned by the read that follows it.
type ContentCache struct {
	window  time.Duration
	clock   Clock
	metrics *Metrics
}

func NewContentCache(window time.Duration, clock Clock, metrics *Metrics) *ContentCache {
	if clock == nil {
		clock = RealClock()
	}
	if window < 0 {
		window = 0
	}
	return &ContentCache{window: window, clock: clock, metrics: metrics}
}

func (c *ContentCache) Window() time.Duration { return c.window }

// Fetch returns the entry's content as of the cache clock.
func (c *ContentCache) Fetch(entry *FileEntry) []byte {
	return c.FetchAt(entry, c.clock.Now())
}

// FetchAt regenerates the entry's content if it was never generated or more
// than the window has passed since the last regeneration, then returns the
// current content.
func (c *ContentCache) FetchAt(entry *FileEntry, now time.Time) []byte {
	if entry.lastRegenerated.IsZero() || now.Sub(entry.lastRegenerated) > c.window {
		entry.content = entry.generate(entry)
		entry.lastRegenerated = now
		if c.metrics != nil {
			c.metrics.regenerated(entry.name)
		}
	}
	return entry.content
}
