package tick

import (
	"context"
	"sync"
	"time"
)

// DefaultStallInterval is the coarse stall-detection sampling period
// (spec §4.2 "every ~700 ms the controller samples currentTime").
const DefaultStallInterval = 700 * time.Millisecond

// DefaultProgressFactor is the fraction of (interval * playbackRate)
// below which progress is considered stalled (spec: "if Δt < 0.8 ×
// tick × playback_rate, waiting=true").
const DefaultProgressFactor = 0.8

// DefaultSeekStallThreshold is how long a paused, in-flight seek may run
// before it is considered stalled (spec: "500 ms").
const DefaultSeekStallThreshold = 500 * time.Millisecond

// StallWatchdog samples currentTime on a coarse timer and reports
// waiting=true when progress lags expectations, independent of the
// frame-callback/worklet tick source (spec §4.2, §4.5).
type StallWatchdog struct {
	interval       time.Duration
	progressFactor float64

	mu            sync.Mutex
	lastTime      float64
	lastSampledAt time.Time
}

// NewStallWatchdog constructs a watchdog with the spec defaults.
func NewStallWatchdog() *StallWatchdog {
	return &StallWatchdog{
		interval:       DefaultStallInterval,
		progressFactor: DefaultProgressFactor,
	}
}

// Params bundle the live signals the watchdog needs each sample.
type Params struct {
	IsPlaying        func() bool
	IsPaused         func() bool
	CurrentTime      func() float64
	PlaybackRate     func() float64
	SeekInFlightSince func() (time.Time, bool)
}

// Run samples on the configured interval until ctx is done, invoking
// onWaitingChanged whenever the computed waiting value flips.
func (w *StallWatchdog) Run(ctx context.Context, p Params, onWaitingChanged func(bool)) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.mu.Lock()
	w.lastTime = p.CurrentTime()
	w.lastSampledAt = time.Now()
	w.mu.Unlock()

	waiting := false
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			next := w.sample(now, p)
			if next != waiting {
				waiting = next
				onWaitingChanged(waiting)
			}
		}
	}
}

func (w *StallWatchdog) sample(now time.Time, p Params) bool {
	w.mu.Lock()
	prevTime, prevAt := w.lastTime, w.lastSampledAt
	currentTime := p.CurrentTime()
	w.lastTime = currentTime
	w.lastSampledAt = now
	w.mu.Unlock()

	elapsed := now.Sub(prevAt)
	if elapsed <= 0 {
		return false
	}

	if p.IsPlaying != nil && p.IsPlaying() {
		rate := 1.0
		if p.PlaybackRate != nil {
			rate = p.PlaybackRate()
		}
		delta := currentTime - prevTime
		threshold := w.progressFactor * elapsed.Seconds() * rate
		return delta < threshold
	}

	if p.IsPaused != nil && p.IsPaused() && p.SeekInFlightSince != nil {
		if since, inFlight := p.SeekInFlightSince(); inFlight {
			return now.Sub(since) > DefaultSeekStallThreshold
		}
	}

	return false
}
