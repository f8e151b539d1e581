package playercore

import (
	"context"
	"testing"
	"time"
)

// roundingElement simulates a platform whose very first SetCurrentTime
// call after a seek lands one frame short of what was requested (the
// rounding behavior spec §4.3 exists to correct), then behaves exactly
// on every call after that. Its frame-callback stream is driven
// directly by the test so the tick sequence the Frame Sync Engine sees
// is fully deterministic.
type roundingElement struct {
	*fakeElement
	frameTicks    *EventStream[FrameTick]
	seekCalls     chan float64
	frameDuration float64
	rounded       bool
}

func newRoundingElement(duration, frameDuration float64) *roundingElement {
	return &roundingElement{
		fakeElement:   newFakeElement(duration),
		frameTicks:    NewEventStream[FrameTick](),
		seekCalls:     make(chan float64, 8),
		frameDuration: frameDuration,
	}
}

func (r *roundingElement) SetCurrentTime(seconds float64) {
	actual := seconds
	if !r.rounded {
		actual = seconds - r.frameDuration
		r.rounded = true
	}
	r.fakeElement.SetCurrentTime(actual)
	select {
	case r.seekCalls <- actual:
	default:
	}
}

func (r *roundingElement) OnFrameTick() (*EventStream[FrameTick], bool) { return r.frameTicks, true }

// TestSeekToFrameCorrectsPlatformRoundingViaFrameCallback proves that
// SeekToFrame threads its requested frame into the Frame Sync Engine's
// convergence pass: when the platform's first SetCurrentTime lands one
// frame short, convergence issues a corrective re-seek that lands
// exactly on the frame the caller asked for, rather than merely
// accepting whatever frame the platform settled on.
func TestSeekToFrameCorrectsPlatformRoundingViaFrameCallback(t *testing.T) {
	const fps = 25
	frameDuration := 1.0 / fps
	elem := newRoundingElement(10, frameDuration)
	loader := newFakeLoader(testVideo(10, fps))
	c := NewVideoController(elem, nil, loader)
	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.SeekToFrame(context.Background(), 10) }()

	var landed float64
	select {
	case landed = <-elem.seekCalls:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the initial (rounded) seek")
	}
	if frame, _ := c.GetCurrentFrame(); frame != 9 {
		t.Fatalf("expected the simulated rounding to land on frame 9, got %d", frame)
	}

	for elem.frameTicks.SubscriberCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	elem.frameTicks.Publish(FrameTick{Now: time.Now(), MediaTime: landed})

	var corrected float64
	select {
	case corrected = <-elem.seekCalls:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the corrective re-seek")
	}

	elem.frameTicks.Publish(FrameTick{Now: time.Now(), MediaTime: corrected})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("SeekToFrame: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SeekToFrame to finish")
	}

	frame, err := c.GetCurrentFrame()
	if err != nil {
		t.Fatalf("GetCurrentFrame: %v", err)
	}
	if frame != 10 {
		t.Fatalf("expected convergence to pull the display back to frame 10, got %d", frame)
	}
}
