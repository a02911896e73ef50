package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}
	c.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, c.Now())
	}
}

func TestFakeClockSetNormalizesToUTC(t *testing.T) {
	c := NewFakeClock(time.Time{})
	local := time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("WEST", 3600))
	c.Set(local)
	if got := c.Now(); got.Location() != time.UTC || !got.Equal(local) {
		t.Fatalf("expected %v in UTC, got %v", local, got)
	}
}
