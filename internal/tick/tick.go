// Package tick implements the platform-independent Synchronization Tick
// Source (spec §4.3 "Time synchronization tick", §4.5) and the stall
// watchdog that rides on it. Two physically different sources -- the
// platform's per-rendered-frame callback, and a synthetic worklet-style
// ticker for audio-only/DRM streams where no video callback exists --
// are unified into one downstream channel; callers never distinguish
// them (spec §4.3: "Both sources flow into a single sync_tick stream").
package tick

import (
	"context"
	"sync"
	"time"
)

// Event is one tick delivered to downstream consumers (the stall
// watchdog and whichever component dispatches time_changed during
// playback).
type Event struct {
	Now       time.Time
	MediaTime float64
	HasMedia  bool
}

// WorkletRenderQuantumRate approximates the ~50Hz cadence spec §4.3
// describes for the audio-worklet substitute ticker ("posts a message
// every audio render quantum").
const WorkletRenderQuantumRate = time.Duration(float64(50*time.Millisecond) / 2.5) // ~20ms/tick -> ~50Hz

// Source produces sync_tick events until its context is cancelled.
// Grounded directly on the teacher's controller_stream.go scheduleLoop/
// decodeLoop goroutine pair: a dedicated goroutine, a stopCh equivalent
// (here ctx.Done()), and a buffered output channel; once its buffer is
// full, the producer waits for the consumer or for cancellation.
type Source struct {
	out chan Event
	wg  sync.WaitGroup
}

// NewFrameCallbackSource wraps a platform per-frame callback channel.
// Every value received on frames is forwarded as a sync_tick Event.
func NewFrameCallbackSource(ctx context.Context, frames <-chan FrameTickLike) *Source {
	s := &Source{out: make(chan Event, 8)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-frames:
				if !ok {
					return
				}
				ev := Event{Now: f.Time(), MediaTime: f.Media(), HasMedia: true}
				select {
				case s.out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return s
}

// NewWorkletSource synthesizes a ~50Hz ticker for audio-only/DRM
// streams where the platform has no per-frame callback (spec §4.3's
// worklet substitute: "a silent audio source routed through a processor
// that posts a message every audio render quantum"). currentTime is
// polled once per tick to stand in for the worklet's lack of a true
// mediaTime signal.
func NewWorkletSource(ctx context.Context, currentTime func() float64) *Source {
	s := &Source{out: make(chan Event, 8)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.out)
		ticker := time.NewTicker(WorkletRenderQuantumRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				ev := Event{Now: now, MediaTime: currentTime(), HasMedia: true}
				select {
				case s.out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return s
}

// Events returns the channel downstream consumers read from.
func (s *Source) Events() <-chan Event { return s.out }

// Wait blocks until the producing goroutine has exited, mirroring the
// teacher's c.wg.Wait() drain-before-reuse idiom.
func (s *Source) Wait() { s.wg.Wait() }

// FrameTickLike is the minimal shape a platform frame-callback payload
// must expose; playercore.FrameTick satisfies it via the adapter in
// this module's root package.
type FrameTickLike interface {
	Time() time.Time
	Media() float64
}
