package clock

import (
	"testing"
	"time"
)

func TestManualClock_Advance(t *testing.T) {
	t.Parallel()

	start := time.Date(2021, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("Now()=%v, want %v", c.Now(), start)
	}
	c.Advance(90 * time.Minute)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("Now()=%v after Advance", got)
	}
}

func TestSystemClock_UTC(t *testing.T) {
	t.Parallel()

	if loc := NewSystemClock().Now().Location(); loc != time.UTC {
		t.Fatalf("location=%v, want UTC", loc)
	}
}
