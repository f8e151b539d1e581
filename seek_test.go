package playercore

import (
	"context"
	"testing"
)

func TestSeekToFrameLandsExactly(t *testing.T) {
	c, elem, _ := newTestController(t)
	if err := c.SeekToFrame(context.Background(), 10); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	frame, err := c.GetCurrentFrame()
	if err != nil {
		t.Fatalf("GetCurrentFrame: %v", err)
	}
	if frame != 10 {
		t.Fatalf("expected frame 10, got %d", frame)
	}
	_ = elem
}

// TestSeekInFlightSinceClearsAfterSeekCompletes covers spec §4.2's
// paused-stuck-seek watchdog branch having a live signal to read: the
// flag must be set while seekToTime is waiting on SEEKED and cleared
// once the seek (and any convergence pass) has finished, matching what
// internal/tick.StallWatchdog.Params.SeekInFlightSince expects.
func TestSeekInFlightSinceClearsAfterSeekCompletes(t *testing.T) {
	c, _, _ := newTestController(t)

	if _, inFlight := c.seekInFlightSinceFunc(); inFlight {
		t.Fatal("expected no seek in flight before any seek has run")
	}

	if err := c.SeekToFrame(context.Background(), 10); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}

	if _, inFlight := c.seekInFlightSinceFunc(); inFlight {
		t.Fatal("expected seek-in-flight flag cleared once SeekToFrame returns")
	}
}

func TestSeekToFrameClampsNegative(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SeekToFrame(context.Background(), -5); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	frame, err := c.GetCurrentFrame()
	if err != nil {
		t.Fatalf("GetCurrentFrame: %v", err)
	}
	if frame != 0 {
		t.Fatalf("expected clamp to frame 0, got %d", frame)
	}
}

func TestSeekToFrameBeyondTotalGoesToEnd(t *testing.T) {
	c, _, _ := newTestController(t)
	ch, unsub := c.OnEnded().Subscribe(context.Background())
	defer unsub()

	if err := c.SeekToFrame(context.Background(), 1_000_000); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	select {
	case <-ch:
	default:
		t.Fatal("expected ended to have been published by the seek-to-end dance")
	}
	if !c.GetPlaybackState().Ended {
		t.Fatal("expected Ended=true after seeking past total frames")
	}
}

func TestSeekFromCurrentFrameRelative(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SeekToFrame(context.Background(), 5); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	if err := c.SeekFromCurrentFrame(context.Background(), 3); err != nil {
		t.Fatalf("SeekFromCurrentFrame: %v", err)
	}
	frame, _ := c.GetCurrentFrame()
	if frame != 8 {
		t.Fatalf("expected frame 8, got %d", frame)
	}
	if err := c.SeekFromCurrentFrame(context.Background(), -20); err != nil {
		t.Fatalf("SeekFromCurrentFrame: %v", err)
	}
	frame, _ = c.GetCurrentFrame()
	if frame != 0 {
		t.Fatalf("expected clamp to 0, got %d", frame)
	}
}

func TestSeekNextPreviousFrame(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SeekToFrame(context.Background(), 5); err != nil {
		t.Fatalf("SeekToFrame: %v", err)
	}
	if err := c.SeekNextFrame(context.Background()); err != nil {
		t.Fatalf("SeekNextFrame: %v", err)
	}
	if frame, _ := c.GetCurrentFrame(); frame != 6 {
		t.Fatalf("expected frame 6, got %d", frame)
	}
	if err := c.SeekPreviousFrame(context.Background()); err != nil {
		t.Fatalf("SeekPreviousFrame: %v", err)
	}
	if frame, _ := c.GetCurrentFrame(); frame != 5 {
		t.Fatalf("expected frame 5, got %d", frame)
	}
}

func TestSeekToPercentEndpoints(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SeekToPercent(context.Background(), 0); err != nil {
		t.Fatalf("SeekToPercent(0): %v", err)
	}
	if frame, _ := c.GetCurrentFrame(); frame != 0 {
		t.Fatalf("expected frame 0, got %d", frame)
	}
	if err := c.SeekToPercent(context.Background(), 100); err != nil {
		t.Fatalf("SeekToPercent(100): %v", err)
	}
	if !c.GetPlaybackState().Ended {
		t.Fatal("expected Ended=true after SeekToPercent(100)")
	}
}

func TestSeekRequiresLoadedVideo(t *testing.T) {
	elem := newFakeElement(10)
	c := NewVideoController(elem, nil, newFakeLoader(testVideo(10, 25)))
	if err := c.SeekToFrame(context.Background(), 1); err == nil {
		t.Fatal("expected error seeking with no video loaded")
	}
}
