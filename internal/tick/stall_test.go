package tick

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestStallWatchdogDetectsLaggingProgress(t *testing.T) {
	w := NewStallWatchdog()
	w.interval = 20 * time.Millisecond

	var mu sync.Mutex
	currentTime := 0.0
	playing := true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waitingSeen []bool
	var waitingMu sync.Mutex
	go w.Run(ctx, Params{
		IsPlaying:    func() bool { return playing },
		CurrentTime:  func() float64 { mu.Lock(); defer mu.Unlock(); return currentTime },
		PlaybackRate: func() float64 { return 1.0 },
	}, func(waiting bool) {
		waitingMu.Lock()
		waitingSeen = append(waitingSeen, waiting)
		waitingMu.Unlock()
	})

	// Never advance currentTime: progress should be detected as stalled.
	time.Sleep(120 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	waitingMu.Lock()
	defer waitingMu.Unlock()
	if len(waitingSeen) == 0 || !waitingSeen[0] {
		t.Fatalf("expected at least one waiting=true transition, got %v", waitingSeen)
	}
}

// TestStallWatchdogDetectsStuckPausedSeek covers the other branch of
// sample(): a paused element with a seek that has been in flight longer
// than DefaultSeekStallThreshold must report waiting=true, even though
// IsPlaying is false throughout.
func TestStallWatchdogDetectsStuckPausedSeek(t *testing.T) {
	w := NewStallWatchdog()
	w.interval = 20 * time.Millisecond

	seekStartedAt := time.Now().Add(-DefaultSeekStallThreshold - 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waitingSeen []bool
	var waitingMu sync.Mutex
	go w.Run(ctx, Params{
		IsPlaying:   func() bool { return false },
		IsPaused:    func() bool { return true },
		CurrentTime: func() float64 { return 1.0 },
		SeekInFlightSince: func() (time.Time, bool) {
			return seekStartedAt, true
		},
	}, func(waiting bool) {
		waitingMu.Lock()
		waitingSeen = append(waitingSeen, waiting)
		waitingMu.Unlock()
	})

	time.Sleep(60 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	waitingMu.Lock()
	defer waitingMu.Unlock()
	if len(waitingSeen) == 0 || !waitingSeen[0] {
		t.Fatalf("expected a waiting=true transition for a stuck paused seek, got %v", waitingSeen)
	}
}

// TestStallWatchdogIgnoresFreshPausedSeek confirms the threshold guard:
// a paused, in-flight seek younger than DefaultSeekStallThreshold must
// not be reported as stalled.
func TestStallWatchdogIgnoresFreshPausedSeek(t *testing.T) {
	w := NewStallWatchdog()
	w.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waitingSeen []bool
	var waitingMu sync.Mutex
	go w.Run(ctx, Params{
		IsPlaying:   func() bool { return false },
		IsPaused:    func() bool { return true },
		CurrentTime: func() float64 { return 1.0 },
		SeekInFlightSince: func() (time.Time, bool) {
			return time.Now(), true
		},
	}, func(waiting bool) {
		waitingMu.Lock()
		waitingSeen = append(waitingSeen, waiting)
		waitingMu.Unlock()
	})

	time.Sleep(60 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	waitingMu.Lock()
	defer waitingMu.Unlock()
	if len(waitingSeen) != 0 {
		t.Fatalf("expected no waiting transition for a fresh in-flight seek, got %v", waitingSeen)
	}
}
