package services

import (
	"sync"
	"time"
)

// Clock hands out server timestamps that strictly increase within the
// process, so records created in quick succession keep their write order.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock creates a Clock backed by the wall clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the next timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
