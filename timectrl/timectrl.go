// Package timectrl drives periodic work such as report reloads.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// TimeController advances a logical clock by Tick on every wall-clock tick
// and notifies registered listeners with the new time.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration

	currentTime time.Time
	listeners   []func(time.Time)
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		currentTime: start,
	}
}

// Now returns the controller time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the controller to t without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Step advances the clock by one tick and runs the listeners synchronously.
func (tc *TimeController) Step() time.Time {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(tc.Tick)
	now := tc.currentTime
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
	return now
}

// Start runs the controller in a separate goroutine until ctx is cancelled
// or, when duration is positive, until duration has elapsed. It returns a
// channel that is closed when the controller stops.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.SetTime(tc.StartTime)
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			tc.Step()
			elapsed += tc.Tick
		}
	}()
	return done
}
