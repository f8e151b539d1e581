package playercore

import (
	"context"
	"sync"

	"github.com/framereview/playercore/internal/audiorouter"
	"github.com/framereview/playercore/internal/sidecar"
	"github.com/framereview/playercore/internal/timecode"
)

// ControllerAPI is every operation VideoController exposes (spec §6
// "Public API surface"), excluding the event-stream accessors: those are
// handled specially by SwitchableController so it can rebind subscriptions
// on swap instead of merely forwarding the call (spec §4.9). Embedding
// this interface in SwitchableController promotes every method here for
// free, which is the Go-idiomatic replacement for hand-writing the
// "600-line switchable-controller forwarding block" spec §9 calls out as
// a re-architecture target: one interface, one embed, zero boilerplate
// per operation.
type ControllerAPI interface {
	Play() error
	Pause() error
	TogglePlayPause() error
	SetPlaybackRate(rate float64) error
	GetPlaybackRate() float64
	GetPlaybackState() PlaybackState

	SeekToFrame(ctx context.Context, n int64) error
	SeekToTime(ctx context.Context, seconds float64) error
	SeekToTimecode(ctx context.Context, tc timecode.Timecode) error
	SeekToPercent(ctx context.Context, p float64) error
	SeekFromCurrentFrame(ctx context.Context, delta int64) error
	SeekNextFrame(ctx context.Context) error
	SeekPreviousFrame(ctx context.Context) error
	SeekToEnd(ctx context.Context) error

	GetCurrentTime() (float64, error)
	GetCurrentFrame() (uint64, error)
	GetCurrentTimecode() (timecode.Timecode, error)
	GetDuration() (float64, error)
	GetTotalFrames() (uint64, error)
	GetFrameRate() (timecode.FrameRate, error)

	SetVolume(v float64) error
	GetVolume() float64
	Mute() error
	Unmute() error
	ToggleMuteUnmute() error
	IsMuted() bool

	SetAudioOutputVolume(v float64) error
	MuteAudioOutput() error
	UnmuteAudioOutput() error
	ToggleAudioOutputMuteUnmute() error
	SetAudioOutputMuted(muted bool) error

	GetAudioTracks() []OmpAudioTrack
	GetActiveAudioTrack() (OmpAudioTrack, bool)
	SetActiveAudioTrack(id string) error

	CreateSubtitlesVttTrack(t SubtitlesVttTrack)
	RemoveSubtitlesTrack(id string)
	RemoveAllSubtitlesTracks()
	ShowSubtitlesTrack(id string)
	HideSubtitlesTrack(id string)
	GetSubtitlesTracks() []SubtitlesVttTrack
	GetActiveSubtitlesTrack() (SubtitlesVttTrack, bool)

	CreateMainAudioRouter(inputs, outputs int)
	UpdateMainAudioRouterConnections(conns []audiorouter.Connection) error
	SetMainAudioEffectsGraph(slot audiorouter.Slot, def audiorouter.EffectsGraphDef) error
	RemoveMainAudioEffectsGraph(slot audiorouter.Slot) error
	SetMainAudioEffectsParams(slot audiorouter.Slot, param string, filter any) error
	ToggleMainAudioRouterSolo(input int) error
	ToggleMainAudioRouterMute(input int) error
	CreateMainAudioPeakProcessor(standard audiorouter.PeakStandard, source audiorouter.Source) error

	CreateSidecarAudioTrack(id string, track OmpAudioTrack, element sidecar.Element)
	SetSidecarAudioPlayMode(mode sidecar.PlayMode)
	RemoveSidecarAudioTrack(id string)
	ActivateSidecarAudioTracks(ids []string) error
	DeactivateSidecarAudioTracks(ids []string)
	SetSidecarVolume(id string, v float64) error
	SetSidecarMuted(id string, muted bool) error
	MuteSidecar(id string) error
	UnmuteSidecar(id string) error
	ExportMainAudioTrackToSidecar(trackID string, element sidecar.Element) error

	LoadVideo(ctx context.Context, url string, options LoadOptions) error
	ReloadVideo(ctx context.Context) error
	LoadBlackVideo()
	LoadThumbnailVttURL(url string)
	EnablePiP() error
	DisablePiP() error
	ToggleFullscreen(enabled bool)
	AddSafeZone(zones []string)
	RemoveSafeZone(zones []string)
	ClearSafeZone()
	AppendHelpMenuGroup(groups []string)
	PrependHelpMenuGroup(groups []string)
	ClearHelpMenuGroups()
	UpdateActiveNamedEventStreams(names []string)

	Destroy() error
	IsDestroyed() bool
}

var _ ControllerAPI = (*VideoController)(nil)

// SwitchableController is the transparent façade of spec §4.9: it
// implements the same API over a swappable inner controller (used when
// playback moves to a detached window). Switching cancels all forwarding
// subscriptions via an event_breaker token, then re-subscribes, replaying
// latest-value streams once. The persistent peak-processor stream is
// special-cased: callers who captured it before a swap keep receiving
// data after the swap, because this façade never hands out the inner's
// stream directly.
type SwitchableController struct {
	ControllerAPI

	mu          sync.Mutex
	eventBreaker *breaker

	events *controllerEvents
}

// NewSwitchableController wraps inner, immediately binding the
// forwarding subscriptions.
func NewSwitchableController(inner *VideoController) *SwitchableController {
	s := &SwitchableController{
		ControllerAPI: inner,
		eventBreaker:  newBreaker(),
		events:        newControllerEvents(),
	}
	s.bind(inner)
	return s
}

// Switch replaces the inner controller: every forwarding subscription is
// cancelled via the event_breaker, a fresh one is allocated, and
// subscriptions are rebuilt against next. Latest-value streams replay
// their current value to existing SwitchableController subscribers
// immediately, since LatestValueStream.Publish always does so.
func (s *SwitchableController) Switch(next *VideoController) {
	s.mu.Lock()
	s.eventBreaker.Fire()
	s.eventBreaker = newBreaker()
	s.ControllerAPI = next
	s.mu.Unlock()

	s.bind(next)
}

// bind (re)establishes every forwarding goroutine against inner, scoped
// to the current event_breaker token.
func (s *SwitchableController) bind(inner *VideoController) {
	s.mu.Lock()
	ctx := s.eventBreaker.Context()
	s.mu.Unlock()

	forward(ctx, inner.OnVideoLoading(), s.events.videoLoading)
	forwardLatest(ctx, inner.OnVideoLoaded(), s.events.videoLoaded)
	forward(ctx, inner.OnVideoError(), s.events.videoError)

	forward(ctx, inner.OnPlay(), s.events.play)
	forward(ctx, inner.OnPause(), s.events.pause)
	forward(ctx, inner.OnEnded(), s.events.ended)
	forward(ctx, inner.OnPlaybackRateChanged(), s.events.playbackRateChanged)
	forwardLatest(ctx, inner.OnPlaybackStateChanged(), s.events.playbackState)

	forward(ctx, inner.OnTimeChanged(), s.events.timeChanged)
	forward(ctx, inner.OnSeeking(), s.events.seeking)
	forward(ctx, inner.OnSeeked(), s.events.seeked)
	forward(ctx, inner.OnBuffering(), s.events.buffering)

	forward(ctx, inner.OnVolumeChanged(), s.events.volumeChanged)
	forward(ctx, inner.OnMutedChanged(), s.events.mutedChanged)
	forward(ctx, inner.OnAudioOutputVolumeChanged(), s.events.audioOutputVolumeChanged)
	forward(ctx, inner.OnAudioOutputMutedChanged(), s.events.audioOutputMutedChanged)

	forwardLatest(ctx, inner.OnAudioLoaded(), s.events.audioLoaded)
	forward(ctx, inner.OnAudioSwitched(), s.events.audioSwitched)
	forwardLatest(ctx, inner.OnActiveAudioTrackChanged(), s.events.activeAudioTrack)

	forwardLatest(ctx, inner.OnSubtitlesLoaded(), s.events.subtitlesLoaded)
	forward(ctx, inner.OnSubtitlesChanged(), s.events.subtitlesChanged)

	forwardLatest(ctx, inner.OnMainAudioChange(), s.events.mainAudioChange)
	forwardLatest(ctx, inner.OnMainAudioSoloMute(), s.events.mainAudioSoloMute)
	// Peak processor special case (spec §4.9): the façade's own
	// mainAudioPeak stream is persistent across swaps, so it is never
	// replaced -- only re-fed from whichever inner is current.
	forward(ctx, inner.OnMainAudioPeak(), s.events.mainAudioPeak)

	forward(ctx, inner.OnSidecarAudioCreate(), s.events.sidecarAudioCreate)
	forward(ctx, inner.OnSidecarAudioRemove(), s.events.sidecarAudioRemove)
	forward(ctx, inner.OnSidecarAudioChange(), s.events.sidecarAudioChange)
	forward(ctx, inner.OnSidecarAudioVolumeChange(), s.events.sidecarAudioVolumeChange)

	forward(ctx, inner.OnFullscreenChanged(), s.events.fullscreenChanged)
	forward(ctx, inner.OnSafeZoneChanged(), s.events.safeZoneChanged)
	forward(ctx, inner.OnHelpMenuChanged(), s.events.helpMenuChanged)
	forward(ctx, inner.OnThumbnailVttURLChanged(), s.events.thumbnailVttURLChanged)

	forward(ctx, inner.OnWindowPlaybackStateChanged(), s.events.windowPlaybackStateChanged)
	forward(ctx, inner.OnActiveNamedEventStreamsChanged(), s.events.activeNamedEventStreamsChanged)
	forward(ctx, inner.OnNamedEvent(), s.events.namedEvent)
}

// forward pipes every value from src into dst until ctx is cancelled.
func forward[T any](ctx context.Context, src *EventStream[T], dst *EventStream[T]) {
	ch, unsub := src.Subscribe(ctx)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				dst.Publish(v)
			}
		}
	}()
}

// forwardLatest is forward's LatestValueStream counterpart.
func forwardLatest[T any](ctx context.Context, src *LatestValueStream[T], dst *LatestValueStream[T]) {
	ch, unsub := src.Subscribe(ctx)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				dst.Publish(v)
			}
		}
	}()
}

// Facade event accessors mirror VideoController's, but return this
// façade's own persistent streams rather than delegating to the
// embedded ControllerAPI (which has no event accessors of its own).
func (s *SwitchableController) OnVideoLoading() *EventStream[struct{}]      { return s.events.videoLoading }
func (s *SwitchableController) OnVideoLoaded() *LatestValueStream[*Video]  { return s.events.videoLoaded }
func (s *SwitchableController) OnVideoError() *EventStream[VideoErrorEvent] { return s.events.videoError }
func (s *SwitchableController) OnPlay() *EventStream[struct{}]             { return s.events.play }
func (s *SwitchableController) OnPause() *EventStream[struct{}]            { return s.events.pause }
func (s *SwitchableController) OnEnded() *EventStream[struct{}]            { return s.events.ended }
func (s *SwitchableController) OnTimeChanged() *EventStream[TimeChangeEvent] {
	return s.events.timeChanged
}
func (s *SwitchableController) OnSeeking() *EventStream[SeekEvent] { return s.events.seeking }
func (s *SwitchableController) OnSeeked() *EventStream[SeekEvent]  { return s.events.seeked }
func (s *SwitchableController) OnMainAudioPeak() *EventStream[audiorouter.PeakSampleValue] {
	return s.events.mainAudioPeak
}
func (s *SwitchableController) OnPlaybackStateChanged() *LatestValueStream[PlaybackState] {
	return s.events.playbackState
}
