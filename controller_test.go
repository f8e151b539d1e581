package playercore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/framereview/playercore/internal/audiorouter"
)

func newTestController(t *testing.T) (*VideoController, *fakeElement, *fakeLoader) {
	t.Helper()
	elem := newFakeElement(10)
	loader := newFakeLoader(testVideo(10, 25))
	c := NewVideoController(elem, nil, loader)
	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}
	return c, elem, loader
}

func TestPlayRequiresLoadedVideo(t *testing.T) {
	elem := newFakeElement(10)
	c := NewVideoController(elem, nil, newFakeLoader(testVideo(10, 25)))
	if err := c.Play(); !errors.Is(err, ErrVideoNotLoaded) {
		t.Fatalf("expected ErrVideoNotLoaded, got %v", err)
	}
}

func TestPlayFiresPlayEventAndState(t *testing.T) {
	c, _, _ := newTestController(t)
	ch, unsub := c.OnPlay().Subscribe(context.Background())
	defer unsub()

	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for play event")
	}
	if !c.GetPlaybackState().Playing {
		t.Fatal("expected Playing=true after Play")
	}
}

func TestPauseEndsInPausedState(t *testing.T) {
	c, elem, _ := newTestController(t)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	elem.SetCurrentTime(1.0) // exactly frame 25 at 25fps

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	state := c.GetPlaybackState()
	if !state.Paused || state.Playing {
		t.Fatalf("expected Paused after Pause, got %+v", state)
	}
}

func TestToggleMuteUnmute(t *testing.T) {
	c, elem, _ := newTestController(t)
	if c.IsMuted() {
		t.Fatal("should start unmuted")
	}
	if err := c.ToggleMuteUnmute(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !elem.Muted() {
		t.Fatal("element should be muted after toggle")
	}
	if err := c.ToggleMuteUnmute(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if elem.Muted() {
		t.Fatal("element should be unmuted after second toggle")
	}
}

func TestSetVolumeRejectsOutOfRange(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SetVolume(-0.1); !errors.Is(err, ErrInvalidVolume) {
		t.Fatalf("expected ErrInvalidVolume, got %v", err)
	}
	if err := c.SetVolume(1.1); !errors.Is(err, ErrInvalidVolume) {
		t.Fatalf("expected ErrInvalidVolume, got %v", err)
	}
	if err := c.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume(0.5): %v", err)
	}
	if c.GetVolume() != 0.5 {
		t.Fatalf("expected volume 0.5, got %v", c.GetVolume())
	}
}

func TestSetPlaybackRateClampsToBounds(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.SetPlaybackRate(0.05); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if got := c.GetPlaybackRate(); got != minPlaybackRate {
		t.Fatalf("expected clamp to %v, got %v", minPlaybackRate, got)
	}
	if err := c.SetPlaybackRate(20); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if got := c.GetPlaybackRate(); got != maxPlaybackRate {
		t.Fatalf("expected clamp to %v, got %v", maxPlaybackRate, got)
	}
}

func TestSubtitlesCreateShowHide(t *testing.T) {
	c, _, _ := newTestController(t)
	c.CreateSubtitlesVttTrack(SubtitlesVttTrack{ID: "en", Label: "English", Default: true})
	c.CreateSubtitlesVttTrack(SubtitlesVttTrack{ID: "fr", Label: "French"})

	active, ok := c.GetActiveSubtitlesTrack()
	if !ok || active.ID != "en" {
		t.Fatalf("expected en active by default, got %+v ok=%v", active, ok)
	}

	c.ShowSubtitlesTrack("fr")
	active, ok = c.GetActiveSubtitlesTrack()
	if !ok || active.ID != "fr" {
		t.Fatalf("expected fr active after Show, got %+v", active)
	}

	c.HideSubtitlesTrack("fr")
	if _, ok := c.GetActiveSubtitlesTrack(); ok {
		t.Fatal("expected no active subtitle track after Hide")
	}
}

func TestSafeZoneAndHelpMenuGroupsAccumulate(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	zoneCh, unsub := c.OnSafeZoneChanged().Subscribe(ctx)
	defer unsub()

	c.AddSafeZone([]string{"left"})
	if got := <-zoneCh; len(got) != 1 || got[0] != "left" {
		t.Fatalf("expected [left], got %v", got)
	}
	c.AddSafeZone([]string{"right"})
	if got := <-zoneCh; len(got) != 2 || got[1] != "right" {
		t.Fatalf("expected [left right], got %v", got)
	}
	c.RemoveSafeZone([]string{"left"})
	if got := <-zoneCh; len(got) != 1 || got[0] != "right" {
		t.Fatalf("expected [right] after remove, got %v", got)
	}
	c.ClearSafeZone()
	if got := <-zoneCh; len(got) != 0 {
		t.Fatalf("expected empty after clear, got %v", got)
	}

	menuCh, unsub2 := c.OnHelpMenuChanged().Subscribe(ctx)
	defer unsub2()

	c.AppendHelpMenuGroup([]string{"b"})
	if got := <-menuCh; len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected [b], got %v", got)
	}
	c.PrependHelpMenuGroup([]string{"a"})
	if got := <-menuCh; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
	c.ClearHelpMenuGroups()
	if got := <-menuCh; len(got) != 0 {
		t.Fatalf("expected empty after clear, got %v", got)
	}
}

func TestMainAudioEffectsGraphBuildsAgainstRealAudioContext(t *testing.T) {
	elem := newFakeElement(10)
	c := NewVideoController(elem, fakeAudioGraph{}, newFakeLoader(testVideo(10, 25)))
	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}

	c.CreateMainAudioRouter(6, 2)
	if err := c.SetMainAudioEffectsGraph(audiorouter.SlotRouter, []float64{0.5, 0.8}); err != nil {
		t.Fatalf("SetMainAudioEffectsGraph: %v", err)
	}
	if err := c.SetMainAudioEffectsParams(audiorouter.SlotRouter, "1", 0.2); err != nil {
		t.Fatalf("SetMainAudioEffectsParams: %v", err)
	}
	if err := c.RemoveMainAudioEffectsGraph(audiorouter.SlotRouter); err != nil {
		t.Fatalf("RemoveMainAudioEffectsGraph: %v", err)
	}
}

func TestSidecarRouterEffectsGraphBuildsAgainstRealAudioContext(t *testing.T) {
	elem := newFakeElement(10)
	c := NewVideoController(elem, fakeAudioGraph{}, newFakeLoader(testVideo(10, 25)))
	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}

	c.CreateSidecarAudioTrack("commentary", OmpAudioTrack{ID: "commentary"}, newTestSidecarElement())
	sc, err := c.sidecars.Get("commentary")
	if err != nil {
		t.Fatalf("expected sidecar to be created: %v", err)
	}
	if err := sc.Router.SetEffectsGraph(audiorouter.SlotRouter, []float64{1}); err != nil {
		t.Fatalf("sidecar router SetEffectsGraph: %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !c.IsDestroyed() {
		t.Fatal("expected IsDestroyed() true")
	}
	if err := c.Destroy(); err != nil {
		t.Fatalf("second Destroy should be a no-op, got %v", err)
	}
}
