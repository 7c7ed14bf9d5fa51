package timectrl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStep(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Minute)

	var seen time.Time
	tc.AddListener(func(now time.Time) { seen = now })

	got := tc.Step()
	want := start.Add(time.Minute)
	if !got.Equal(want) || !seen.Equal(want) {
		t.Fatalf("Step() = %v, listener saw %v, want %v", got, seen, want)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond)

	var ticks atomic.Int32
	tc.AddListener(func(time.Time) { ticks.Add(1) })

	done := tc.Start(context.Background(), 15*time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if ticks.Load() != 3 {
		t.Fatalf("listener ran %d times, want 3", ticks.Load())
	}
}

func TestTimeControllerStopsOnCancel(t *testing.T) {
	tc := NewTimeController(time.Time{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := tc.Start(ctx, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
}
