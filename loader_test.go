package playercore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestResolveProtocolByExtension(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"file://clip.mp4", "native"},
		{"https://cdn.example.com/clip.mov", "native"},
		{"https://cdn.example.com/master.m3u8", "segmented"},
	}
	for _, tc := range cases {
		got, err := resolveProtocol(tc.url, LoadOptions{})
		if err != nil {
			t.Fatalf("resolveProtocol(%q): %v", tc.url, err)
		}
		if got != tc.want {
			t.Fatalf("resolveProtocol(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestResolveProtocolExplicitOverridesExtension(t *testing.T) {
	got, err := resolveProtocol("https://cdn.example.com/clip.unknown", LoadOptions{Protocol: "native"})
	if err != nil {
		t.Fatalf("resolveProtocol: %v", err)
	}
	if got != "native" {
		t.Fatalf("expected explicit protocol to win, got %q", got)
	}
}

func TestResolveProtocolUnrecognizedExtensionFails(t *testing.T) {
	_, err := resolveProtocol("https://cdn.example.com/clip.xyz", LoadOptions{})
	if !errors.Is(err, ErrUnrecognizedProtocol) {
		t.Fatalf("expected ErrUnrecognizedProtocol, got %v", err)
	}
}

func TestLoadVideoPublishesLoadedEvent(t *testing.T) {
	c, _, _ := newTestControllerUnloaded(t)
	ch, unsub := c.OnVideoLoaded().Subscribe(context.Background())
	defer unsub()

	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}
	select {
	case v := <-ch:
		if v == nil || v.SourceURL != "file://clip.mp4" {
			t.Fatalf("unexpected loaded video: %+v", v)
		}
	default:
		t.Fatal("expected video_loaded to have been published (latest-value stream replays immediately)")
	}
}

func TestLoadVideoUnrecognizedProtocolPublishesError(t *testing.T) {
	c, _, _ := newTestControllerUnloaded(t)
	ch, unsub := c.OnVideoError().Subscribe(context.Background())
	defer unsub()

	err := c.LoadVideo(context.Background(), "file://clip.xyz", LoadOptions{})
	if !errors.Is(err, ErrUnrecognizedProtocol) {
		t.Fatalf("expected ErrUnrecognizedProtocol, got %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Code != "UNRECOGNIZED_PROTOCOL" {
			t.Fatalf("unexpected error code %q", ev.Code)
		}
	default:
		t.Fatal("expected video_error to be published")
	}
}

// concurrentLoader counts concurrent entries into Load to prove
// loaderDispatch.load's singleflight dedup collapses simultaneous
// identical requests into one call.
type concurrentLoader struct {
	*fakeLoader
	entered chan struct{}
	release chan struct{}
	callsN  int
	mu      sync.Mutex
}

func (l *concurrentLoader) Load(url string, options LoadOptions) (*Video, []OmpAudioTrack, []SubtitlesVttTrack, error) {
	l.mu.Lock()
	l.callsN++
	l.mu.Unlock()
	l.entered <- struct{}{}
	<-l.release
	return l.fakeLoader.Load(url, options)
}

func TestLoaderDispatchDedupesConcurrentLoads(t *testing.T) {
	inner := &concurrentLoader{
		fakeLoader: newFakeLoader(testVideo(10, 25)),
		entered:    make(chan struct{}, 2),
		release:    make(chan struct{}),
	}
	ld := newLoaderDispatch(inner)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, err := ld.load("file://same.mp4", LoadOptions{})
			results[i] = err
		}(i)
	}

	<-inner.entered
	close(inner.release)
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.callsN != 1 {
		t.Fatalf("expected singleflight to collapse to 1 inner call, got %d", inner.callsN)
	}
}

func newTestControllerUnloaded(t *testing.T) (*VideoController, *fakeElement, *fakeLoader) {
	t.Helper()
	elem := newFakeElement(10)
	loader := newFakeLoader(testVideo(10, 25))
	c := NewVideoController(elem, nil, loader)
	return c, elem, loader
}

// TestReloadVideoClearsStaleLatestValues proves LoadVideo's step 1 empties
// the video-scoped latest-value subjects: a reload that loads a video
// with no audio tracks at all must not leave GetActiveAudioTrack/
// GetAudioTracks still reporting the previous video's values. Subtitle
// state after the reload is not checked here.
func TestReloadVideoClearsStaleLatestValues(t *testing.T) {
	elem := newFakeElement(10)
	loader := newFakeLoader(testVideo(10, 25))
	loader.audio = []OmpAudioTrack{{ID: "a", Active: true}}
	loader.subtitles = []SubtitlesVttTrack{{ID: "s1"}}
	c := NewVideoController(elem, nil, loader)
	if err := c.LoadVideo(context.Background(), "file://clip.mp4", LoadOptions{}); err != nil {
		t.Fatalf("LoadVideo: %v", err)
	}
	if _, ok := c.GetActiveAudioTrack(); !ok {
		t.Fatal("expected an active audio track after the first load")
	}

	loader.audio = nil
	loader.subtitles = nil
	if err := c.ReloadVideo(context.Background()); err != nil {
		t.Fatalf("ReloadVideo: %v", err)
	}

	if track, ok := c.GetActiveAudioTrack(); ok {
		t.Fatalf("expected no active audio track after reloading a video with none, got stale %+v", track)
	}
	if tracks := c.GetAudioTracks(); len(tracks) != 0 {
		t.Fatalf("expected no audio tracks after reload, got %v", tracks)
	}

	ch, unsub := c.OnVideoLoaded().Subscribe(context.Background())
	defer unsub()
	select {
	case v := <-ch:
		if v == nil || v.SourceURL == "" {
			t.Fatal("expected the replayed video_loaded value to be the reloaded video")
		}
	default:
		t.Fatal("expected video_loaded to replay the reloaded video to a new subscriber")
	}
}
