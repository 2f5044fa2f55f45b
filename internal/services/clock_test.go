package services

import (
	"testing"
	"time"
)

func TestClockIsStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &Clock{now: func() time.Time { return frozen }}

	prev := c.Now()
	for i := 0; i < 100; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("timestamp %d did not advance: %v <= %v", i, next, prev)
		}
		prev = next
	}

	// A clock that steps backwards must not reorder.
	c.now = func() time.Time { return frozen.Add(-time.Hour) }
	if back := c.Now(); !back.After(prev) {
		t.Errorf("clock went backwards: %v <= %v", back, prev)
	}
}
