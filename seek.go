package playercore

import (
	"context"
	"math/big"

	"github.com/framereview/playercore/internal/framesync"
	"github.com/framereview/playercore/internal/tick"
	"github.com/framereview/playercore/internal/timecode"
)

// seekOrchestrator implements every public seek operation (spec §4.4),
// owning the seek-breaker rotation and driving the Frame Synchronization
// Engine after the platform reports SEEKED. Grounded on the teacher's
// videoOnlyController.Seek/noLockPosition clock math
// (controller_no_audio.go), generalized from a direct reisen.Stream
// Rewind call to an arbitrary MediaElement plus a convergence loop.
type seekOrchestrator struct {
	c *VideoController
}

// noSync skips the Frame Sync Engine convergence pass, used internally
// by the end-of-stream three-stage dance (spec §4.4 "unless the seek was
// explicitly no-sync"). targetFrame, when non-nil, pins the convergence
// loop to the frame the caller actually asked for, so a platform that
// lands SEEKED on a neighboring frame (the exact problem §4.3 exists to
// solve) gets pulled back to it instead of convergence merely checking
// whatever frame the platform happened to settle on.
type seekParams struct {
	noSync      bool
	targetFrame *uint64
}

func (so *seekOrchestrator) element() MediaElement { return so.c.element }

// seekToTime is the common path every public seek operation funnels
// through (spec §4.4 "Every public seek: 1..5").
func (so *seekOrchestrator) seekToTime(ctx context.Context, target *big.Rat, params seekParams) error {
	c := so.c

	seekCtx := c.breakers.rotateSeek()
	fromTime := c.element.CurrentTime()
	toTimeF, _ := target.Float64()

	c.events.seeking.Publish(SeekEvent{FromTime: fromTime, ToTime: toTimeF})
	c.stateMachine.dispatch(cmdSeekStarted{})

	c.markSeekInFlight()
	defer c.clearSeekInFlight()

	seekedCh, unsubSeeked := c.element.OnSeeked().Subscribe(seekCtx)
	defer unsubSeeked()

	c.element.SetCurrentTime(toTimeF)

	select {
	case <-seekCtx.Done():
		return seekCtx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-seekedCh:
		if !ok {
			return seekCtx.Err()
		}
	}

	c.stateMachine.dispatch(cmdElementSeeked{})

	if !params.noSync {
		target := framesync.Target{}
		if params.targetFrame != nil {
			target = framesync.Target{Frame: params.targetFrame, HasFrame: true}
		}
		if err := so.converge(seekCtx, target); err != nil && seekCtx.Err() == nil {
			return err
		}
	}

	c.events.seeked.Publish(SeekEvent{FromTime: fromTime, ToTime: toTimeF})
	so.publishTimeChanged()
	return nil
}

// converge runs the Frame Synchronization Engine against the live tick
// source, targeting either a specific frame or "whatever currentTime
// now is" (spec §4.3).
func (so *seekOrchestrator) converge(ctx context.Context, target framesync.Target) error {
	c := so.c
	ticks := make(chan framesync.Tick, 1)

	frameStream, hasFrameCallback := c.element.OnFrameTick()
	if hasFrameCallback {
		ch, unsub := frameStream.Subscribe(ctx)
		defer unsub()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ft, ok := <-ch:
					if !ok {
						return
					}
					mt := new(big.Rat).SetFloat64(ft.MediaTime)
					select {
					case ticks <- framesync.Tick{Now: ft.Now, MediaTime: mt}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	} else {
		// Worklet-substitute: no true mediaTime signal, so every tick
		// reports the element's own currentTime as its mediaTime (spec
		// §4.3 "a silent audio source... giving ~50 Hz ticks").
		worklet := tick.NewWorkletSource(ctx, c.element.CurrentTime)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-worklet.Events():
					if !ok {
						return
					}
					mt := new(big.Rat).SetFloat64(ev.MediaTime)
					select {
					case ticks <- framesync.Tick{Now: ev.Now, MediaTime: mt}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	params := framesync.Params{
		FrameRate:   c.video.FrameRate,
		DropFrame:   c.video.DropFrame,
		IsPlaying:   c.stateMachine.isPlaying,
		CurrentTime: c.element.CurrentTime,
	}
	seekFn := func(ctx context.Context, t *big.Rat) error {
		tf, _ := t.Float64()
		c.element.SetCurrentTime(tf)
		return nil
	}
	_, err := framesync.Converge(ctx, ticks, target, params, seekFn, pkgLogger)
	return err
}

func (so *seekOrchestrator) publishTimeChanged() {
	c := so.c
	now := c.element.CurrentTime()
	t := new(big.Rat).SetFloat64(now)
	frame, err := timecode.TimeToFrame(t, c.video.FrameRate, nil)
	if err != nil {
		return
	}
	c.events.timeChanged.Publish(TimeChangeEvent{Time: now, Frame: frame, Playing: c.stateMachine.isPlaying()})
	c.notifySidecarsMainTimeChanged(now)
}

// SeekToFrame lands the displayed frame on clamp(n, 0, total_frames)
// (spec §4.4 seek_to_frame).
func (c *VideoController) SeekToFrame(ctx context.Context, n int64) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	clamped := clampFrame(n, c.video.TotalFrames)
	if clamped >= c.video.TotalFrames {
		return c.SeekToEnd(ctx)
	}
	t, err := timecode.FrameToTime(clamped, c.video.FrameRate)
	if err != nil {
		return err
	}
	return c.seek.seekToTime(ctx, t, seekParams{targetFrame: &clamped})
}

func clampFrame(n int64, total uint64) uint64 {
	if n < 0 {
		return 0
	}
	if uint64(n) > total {
		return total
	}
	return uint64(n)
}

// SeekToTime lands on the frame containing t (spec §4.4 seek_to_time).
func (c *VideoController) SeekToTime(ctx context.Context, seconds float64) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	t := new(big.Rat).SetFloat64(seconds)
	frame, err := timecode.TimeToFrame(t, c.video.FrameRate, nil)
	if err != nil {
		return err
	}
	return c.SeekToFrame(ctx, int64(frame))
}

// SeekToTimecode parses tc via C1 and fails with ErrInvalidTimecode if
// incompatible with the loaded video (spec §4.4 seek_to_timecode).
func (c *VideoController) SeekToTimecode(ctx context.Context, tc timecode.Timecode) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	frame, err := timecode.TimecodeToFrame(tc, c.video.FrameRate, c.video.DropFrame, c.video.FFOMFrames())
	if err != nil {
		return ErrInvalidTimecode
	}
	return c.SeekToFrame(ctx, int64(frame))
}

// SeekToPercent maps p in [0,100] to a time; endpoints go to 0 and
// seek_to_end (spec §4.4 seek_to_percent).
func (c *VideoController) SeekToPercent(ctx context.Context, p float64) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	if p <= 0 {
		return c.SeekToFrame(ctx, 0)
	}
	if p >= 100 {
		return c.SeekToEnd(ctx)
	}
	duration := c.video.EffectiveDuration()
	durF, _ := duration.Float64()
	return c.SeekToTime(ctx, durF*p/100)
}

// SeekFromCurrentFrame moves relative by delta frames, clamped to
// [0, total_frames] (spec §4.4 seek_from_current_frame).
func (c *VideoController) SeekFromCurrentFrame(ctx context.Context, delta int64) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	cur, err := c.GetCurrentFrame()
	if err != nil {
		return err
	}
	return c.SeekToFrame(ctx, int64(cur)+delta)
}

// SeekNextFrame and SeekPreviousFrame are syntactic sugar for ±1 (spec
// §4.4).
func (c *VideoController) SeekNextFrame(ctx context.Context) error     { return c.SeekFromCurrentFrame(ctx, 1) }
func (c *VideoController) SeekPreviousFrame(ctx context.Context) error { return c.SeekFromCurrentFrame(ctx, -1) }

// SeekToEnd performs the three-stage end-of-stream dance (spec §4.4
// seek_to_end): (a) seek to best-known duration, (b) seek to
// duration − 0.1·frameDuration, (c) seek back to duration; emits `ended`
// after the third seeked, per spec §9's preserved source ordering.
func (c *VideoController) SeekToEnd(ctx context.Context) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	duration := c.video.EffectiveDuration()

	if err := c.seek.seekToTime(ctx, duration, seekParams{noSync: true}); err != nil {
		return err
	}

	nudge := new(big.Rat).Mul(big.NewRat(1, 10), c.video.FrameRate.FrameDuration())
	almostEnd := new(big.Rat).Sub(duration, nudge)
	if err := c.seek.seekToTime(ctx, almostEnd, seekParams{noSync: true}); err != nil {
		return err
	}

	if err := c.seek.seekToTime(ctx, duration, seekParams{noSync: true}); err != nil {
		return err
	}

	c.stateMachine.dispatch(cmdElementEnded{})
	c.events.ended.Publish(struct{}{})
	return nil
}
