package playercore

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/framereview/playercore/internal/audiorouter"
	"github.com/framereview/playercore/internal/sidecar"
	"github.com/framereview/playercore/internal/subtitles"
	"github.com/framereview/playercore/internal/tick"
	"github.com/framereview/playercore/internal/timecode"
)

// minPlaybackRate and maxPlaybackRate bound set_playback_rate (spec §8
// "set_playback_rate(0.05) clamps to 0.1; set_playback_rate(20) clamps
// to 16").
const (
	minPlaybackRate = 0.1
	maxPlaybackRate = 16.0
)

// platformEchoTimeout bounds how long set_playback_rate/set_volume wait
// for the platform to echo the change before completing anyway (spec
// §5 "Timeouts").
const platformEchoTimeout = 60 * time.Second

// VideoController is the core of the playback system (spec §2, §6): it
// owns the Video descriptor, the media element, the audio context and
// router, the sidecar map, and the full event surface. Grounded on the
// teacher's Player (player.go) as the public facade shape, generalized
// from a concrete reisen/ebiten decoder pair to the abstract MediaElement
// contract, and on videoOnlyController/videoWithAudioController
// (controller_no_audio.go, controller_yes_audio.go) generalized to the
// single-logical-executor scheduling model of spec §5: the public API is
// not safe for concurrent access from multiple goroutines by design,
// matching the host platform's single-threaded UI-thread model: only the
// platform event callbacks and the tick/stall goroutines touch
// controller state asynchronously, and they do so only through the
// stateMachine and EventStream types, which own their own locking.
type VideoController struct {
	element    MediaElement
	loader     *loaderDispatch
	audioGraph AudioGraphFactory
	audioCtx   AudioContext

	video         *Video
	audioTracks   []OmpAudioTrack
	activeAudioID string

	breakers     *breakerSet
	stateMachine *stateMachine
	events       *controllerEvents
	seek         *seekOrchestrator

	router          *audiorouter.Router
	sidecars        *sidecar.Manager
	sidecarPlayMode sidecar.PlayMode
	subtitles       *subtitles.Registry

	tickSource   *tick.Source
	stallWatch   *tick.StallWatchdog
	tickCancel   context.CancelFunc

	audioOutputVolume float64
	audioOutputMuted  bool

	safeZones      []string
	helpMenuGroups []string

	resumeAfterSync bool

	// seekInFlightMu guards the fields below, which the stall watchdog
	// (internal/tick.StallWatchdog, run on its own goroutine) reads
	// concurrently with seekOrchestrator.seekToTime setting them (spec
	// §4.2 "paused with an in-flight seek older than 500ms ⇒ waiting").
	seekInFlightMu    sync.Mutex
	seekInFlightSince time.Time
	seekInFlight      bool

	destroyed bool
}

// markSeekInFlight and clearSeekInFlight bracket seekOrchestrator's
// wait for the platform's SEEKED event, giving the stall watchdog a
// timestamp to judge a stuck, paused seek against.
func (c *VideoController) markSeekInFlight() {
	c.seekInFlightMu.Lock()
	c.seekInFlightSince = time.Now()
	c.seekInFlight = true
	c.seekInFlightMu.Unlock()
}

func (c *VideoController) clearSeekInFlight() {
	c.seekInFlightMu.Lock()
	c.seekInFlight = false
	c.seekInFlightMu.Unlock()
}

// seekInFlightSinceFunc adapts the guarded fields above into the
// closure shape tick.Params.SeekInFlightSince expects.
func (c *VideoController) seekInFlightSinceFunc() (time.Time, bool) {
	c.seekInFlightMu.Lock()
	defer c.seekInFlightMu.Unlock()
	return c.seekInFlightSince, c.seekInFlight
}

// domHandleAdapter is the internal/subtitles.DOMHandle the controller
// installs in its registry. It holds no platform track-list collaborator:
// each Add/Remove/SetHidden call republishes the full track list, read
// back through the registry's List, on the subtitles-changed stream.
type domHandleAdapter struct {
	controller *VideoController
}

func (d domHandleAdapter) Add(t subtitles.Track) {
	d.controller.events.subtitlesChanged.Publish(d.controller.getSubtitlesTracksLocked())
}
func (d domHandleAdapter) Remove(id string) {
	d.controller.events.subtitlesChanged.Publish(d.controller.getSubtitlesTracksLocked())
}
func (d domHandleAdapter) SetHidden(id string, hidden bool) {
	d.controller.events.subtitlesChanged.Publish(d.controller.getSubtitlesTracksLocked())
}

// NewVideoController constructs a controller around element, eagerly
// constructing the audio context in line with spec §9's Open Question
// resolution ("The spec chooses eager construction in the constructor").
func NewVideoController(element MediaElement, audioGraph AudioGraphFactory, loader VideoLoader) *VideoController {
	c := &VideoController{
		element:           element,
		audioGraph:        audioGraph,
		breakers:          newBreakerSet(),
		stateMachine:      newStateMachine(),
		events:            newControllerEvents(),
		audioOutputVolume: 1.0,
		sidecarPlayMode:   sidecar.Multiple,
	}
	c.seek = &seekOrchestrator{c: c}
	c.loader = newLoaderDispatch(loader)
	c.subtitles = subtitles.New(domHandleAdapter{controller: c})
	c.stallWatch = tick.NewStallWatchdog()

	if audioGraph != nil {
		c.audioCtx = audioGraph.NewContext(48000)
	}

	go c.forwardStateChanges()
	return c
}

func (c *VideoController) forwardStateChanges() {
	ch, _ := c.stateMachine.changed.Subscribe(c.breakers.controllerDestroyed.Context())
	for state := range ch {
		c.events.playbackState.Publish(state)
	}
}

func (c *VideoController) getSubtitlesTracksLocked() []SubtitlesVttTrack {
	tracks := c.subtitles.List()
	out := make([]SubtitlesVttTrack, len(tracks))
	for i, t := range tracks {
		out[i] = SubtitlesVttTrack{ID: t.ID, Label: t.Label, Language: t.Language, URL: t.URL, Default: t.Default, Hidden: t.Hidden}
	}
	return out
}

// --- Playback (spec §6 "Playback") ---

// Play starts or resumes playback (spec §4.2 "play() → element PLAYING").
func (c *VideoController) Play() error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	c.breakers.rotatePausing()
	if err := c.element.Play(); err != nil {
		return err
	}
	c.stateMachine.dispatch(cmdElementPlaying{})
	c.events.play.Publish(struct{}{})
	c.notifySidecarsMainPlay()
	return nil
}

// halfFrameSeconds returns half of one frame's duration in seconds, the
// drift tolerance spec §4.7 step 4 uses for sidecar corrective seeks.
func (c *VideoController) halfFrameSeconds() float64 {
	half := new(big.Rat).Quo(c.video.FrameRate.FrameDuration(), big.NewRat(2, 1))
	f, _ := half.Float64()
	return f
}

// notifySidecarsMainPlay and its siblings drive spec §4.7 steps 3-4: every
// active sidecar follows the main clock on play/pause/time-changed,
// which is the behavior that actually makes a sidecar a "sidecar"
// instead of an independently-scheduled audio element.
func (c *VideoController) notifySidecarsMainPlay() {
	if c.sidecars == nil || c.video == nil {
		return
	}
	c.sidecars.OnMainPlay(c.element.CurrentTime(), c.halfFrameSeconds())
}

func (c *VideoController) notifySidecarsMainPause() {
	if c.sidecars == nil {
		return
	}
	c.sidecars.OnMainPause()
}

func (c *VideoController) notifySidecarsMainTimeChanged(mainTime float64) {
	if c.sidecars == nil || c.video == nil {
		return
	}
	c.sidecars.OnMainTimeChanged(mainTime, c.halfFrameSeconds())
}

// Pause implements the pause-sync protocol (spec §4.2, §4.4): the
// engine must land on a whole frame boundary before the public `paused`
// event fires. A second Pause or any Play/seek cancels the in-flight
// sync via the pausing-breaker.
func (c *VideoController) Pause() error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	pausingCtx := c.breakers.rotatePausing()
	c.stateMachine.dispatch(cmdPauseRequested{})

	pauseCh, unsub := c.element.OnPause().Subscribe(pausingCtx)
	defer unsub()
	c.element.Pause()

	select {
	case <-pausingCtx.Done():
		return nil
	case _, ok := <-pauseCh:
		if !ok {
			return nil
		}
	}

	c.stateMachine.dispatch(cmdElementPaused{})

	// Forward-step exactly one frame so the pause lands on a whole
	// boundary (spec §4.2 Pause-sync protocol; §9 Open Question notes
	// this intentionally overshoots by one frame).
	frame, err := c.GetCurrentFrame()
	if err == nil {
		target := frame + 1
		t, terr := timecode.FrameToTime(target, c.video.FrameRate)
		if terr == nil {
			_ = c.seek.seekToTime(pausingCtx, t, seekParams{targetFrame: &target})
		}
	}

	select {
	case <-pausingCtx.Done():
		c.stateMachine.dispatch(cmdPauseCancelled{})
		return nil
	default:
	}

	c.stateMachine.dispatch(cmdPauseSyncComplete{})
	c.events.pause.Publish(struct{}{})
	c.notifySidecarsMainPause()
	return nil
}

// TogglePlayPause flips between Play and Pause based on the current
// state.
func (c *VideoController) TogglePlayPause() error {
	if c.stateMachine.isPlaying() {
		return c.Pause()
	}
	return c.Play()
}

// SetPlaybackRate clamps to [0.1, 16] and waits up to 60s for the
// platform to echo the change (spec §5 "Timeouts", §8 boundary
// behaviors).
func (c *VideoController) SetPlaybackRate(rate float64) error {
	if c.video == nil {
		return ErrVideoNotLoaded
	}
	clamped := rate
	if clamped < minPlaybackRate {
		clamped = minPlaybackRate
	}
	if clamped > maxPlaybackRate {
		clamped = maxPlaybackRate
	}

	ch, unsub := c.element.OnRateChange().Subscribe(context.Background())
	defer unsub()
	c.element.SetPlaybackRate(clamped)

	select {
	case <-ch:
	case <-time.After(platformEchoTimeout):
		pkgLogger.Printf("playercore: set_playback_rate echo timed out after %s", platformEchoTimeout)
	}
	c.events.playbackRateChanged.Publish(c.element.PlaybackRate())
	return nil
}

// GetPlaybackRate is a synchronous getter (spec §6).
func (c *VideoController) GetPlaybackRate() float64 {
	if c.element == nil {
		return 1.0
	}
	return c.element.PlaybackRate()
}

// GetPlaybackState is a synchronous getter (spec §6).
func (c *VideoController) GetPlaybackState() PlaybackState {
	return c.stateMachine.snapshot()
}

// --- Time (spec §6 "Time") ---

func (c *VideoController) GetCurrentTime() (float64, error) {
	if c.video == nil {
		return 0, ErrVideoNotLoaded
	}
	return c.element.CurrentTime(), nil
}

func (c *VideoController) GetCurrentFrame() (uint64, error) {
	if c.video == nil {
		return 0, ErrVideoNotLoaded
	}
	t := new(big.Rat).SetFloat64(c.element.CurrentTime())
	return timecode.TimeToFrame(t, c.video.FrameRate, nil)
}

func (c *VideoController) GetCurrentTimecode() (timecode.Timecode, error) {
	if c.video == nil {
		return timecode.Timecode{}, ErrVideoNotLoaded
	}
	t := new(big.Rat).SetFloat64(c.element.CurrentTime())
	return timecode.TimeToTimecode(t, c.video.FrameRate, c.video.DropFrame, c.video.FFOMFrames())
}

func (c *VideoController) GetDuration() (float64, error) {
	if c.video == nil {
		return 0, ErrVideoNotLoaded
	}
	d, _ := c.video.EffectiveDuration().Float64()
	return d, nil
}

func (c *VideoController) GetTotalFrames() (uint64, error) {
	if c.video == nil {
		return 0, ErrVideoNotLoaded
	}
	return c.video.TotalFrames, nil
}

func (c *VideoController) GetFrameRate() (timecode.FrameRate, error) {
	if c.video == nil {
		return timecode.FrameRate{}, ErrVideoNotLoaded
	}
	return c.video.FrameRate, nil
}

// --- Volume (spec §6 "Volume") ---

func (c *VideoController) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidVolume
	}
	ch, unsub := c.element.OnVolumeChange().Subscribe(context.Background())
	defer unsub()
	c.element.SetVolume(v)
	select {
	case <-ch:
	case <-time.After(platformEchoTimeout):
	}
	c.events.volumeChanged.Publish(c.element.Volume())
	return nil
}

func (c *VideoController) GetVolume() float64 { return c.element.Volume() }

func (c *VideoController) Mute() error   { return c.setMuted(true) }
func (c *VideoController) Unmute() error { return c.setMuted(false) }
func (c *VideoController) ToggleMuteUnmute() error {
	return c.setMuted(!c.element.Muted())
}
func (c *VideoController) IsMuted() bool { return c.element.Muted() }

func (c *VideoController) setMuted(muted bool) error {
	c.element.SetMuted(muted)
	c.events.mutedChanged.Publish(muted)
	return nil
}

// --- Audio output (spec §6 "Audio output") ---

func (c *VideoController) SetAudioOutputVolume(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidVolume
	}
	c.audioOutputVolume = v
	c.events.audioOutputVolumeChanged.Publish(v)
	return nil
}

func (c *VideoController) MuteAudioOutput() error   { return c.setAudioOutputMuted(true) }
func (c *VideoController) UnmuteAudioOutput() error  { return c.setAudioOutputMuted(false) }
func (c *VideoController) ToggleAudioOutputMuteUnmute() error {
	return c.setAudioOutputMuted(!c.audioOutputMuted)
}
func (c *VideoController) SetAudioOutputMuted(muted bool) error { return c.setAudioOutputMuted(muted) }

func (c *VideoController) setAudioOutputMuted(muted bool) error {
	c.audioOutputMuted = muted
	c.events.audioOutputMutedChanged.Publish(muted)
	return nil
}

// --- Tracks (spec §6 "Tracks") ---

func (c *VideoController) GetAudioTracks() []OmpAudioTrack { return c.audioTracks }

func (c *VideoController) GetActiveAudioTrack() (OmpAudioTrack, bool) {
	return c.events.activeAudioTrack.Get()
}

func (c *VideoController) SetActiveAudioTrack(id string) error {
	if c.loader == nil || c.loader.inner == nil {
		return ErrVideoNotLoaded
	}
	if err := c.loader.inner.SetActiveAudioTrack(id); err != nil {
		return err
	}
	for _, t := range c.audioTracks {
		if t.ID == id {
			c.activeAudioID = id
			c.events.activeAudioTrack.Publish(t)
			c.events.audioSwitched.Publish(t)
			return nil
		}
	}
	return nil
}

// --- Subtitles (spec §6 "Subtitles", §4.8) ---

func (c *VideoController) CreateSubtitlesVttTrack(t SubtitlesVttTrack) {
	c.subtitles.Create(subtitles.Track{ID: t.ID, Label: t.Label, Language: t.Language, URL: t.URL, Default: t.Default})
}

func (c *VideoController) RemoveSubtitlesTrack(id string)     { c.subtitles.Remove(id) }
func (c *VideoController) RemoveAllSubtitlesTracks()           { c.subtitles.RemoveAll() }
func (c *VideoController) ShowSubtitlesTrack(id string)        { c.subtitles.Show(id) }
func (c *VideoController) HideSubtitlesTrack(id string)        { c.subtitles.Hide(id) }
func (c *VideoController) GetSubtitlesTracks() []SubtitlesVttTrack {
	return c.getSubtitlesTracksLocked()
}
func (c *VideoController) GetActiveSubtitlesTrack() (SubtitlesVttTrack, bool) {
	t, ok := c.subtitles.Active()
	if !ok {
		return SubtitlesVttTrack{}, false
	}
	return SubtitlesVttTrack{ID: t.ID, Label: t.Label, Language: t.Language, URL: t.URL, Default: t.Default, Hidden: t.Hidden}, true
}

// --- Router (spec §6 "Router", §4.6) ---

// effectsBuilder returns the audiorouter.Builder backing every router
// this controller creates (main and sidecar), or nil when no audio
// context is available -- in which case effects-insert calls correctly
// fail with audiorouter.ErrSlotNotSupported rather than building against a
// nonexistent context.
func (c *VideoController) effectsBuilder() audiorouter.Builder {
	if c.audioCtx == nil {
		return nil
	}
	return effectsBuilder{ctx: c.audioCtx}
}

func (c *VideoController) CreateMainAudioRouter(inputs, outputs int) {
	hwMax := func() int {
		if c.audioCtx != nil {
			return c.audioCtx.DestinationMaxChannelCount()
		}
		return 2
	}
	c.router = audiorouter.New(inputs, outputs, hwMax, c.effectsBuilder())
	c.events.mainAudioChange.Publish(c.router.State())
}

func (c *VideoController) UpdateMainAudioRouterConnections(conns []audiorouter.Connection) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	c.router.UpdateConnections(conns)
	c.events.mainAudioChange.Publish(c.router.State())
	return nil
}

func (c *VideoController) SetMainAudioEffectsGraph(slot audiorouter.Slot, def audiorouter.EffectsGraphDef) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	return c.router.SetEffectsGraph(slot, def)
}

func (c *VideoController) RemoveMainAudioEffectsGraph(slot audiorouter.Slot) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	return c.router.RemoveEffectsGraph(slot)
}

func (c *VideoController) SetMainAudioEffectsParams(slot audiorouter.Slot, param string, filter any) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	return c.router.SetEffectsParams(slot, param, filter)
}

func (c *VideoController) ToggleMainAudioRouterSolo(input int) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	c.router.ToggleSolo(input)
	c.events.mainAudioSoloMute.Publish(c.router.State())
	return nil
}

func (c *VideoController) ToggleMainAudioRouterMute(input int) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	c.router.ToggleMute(input)
	c.events.mainAudioSoloMute.Publish(c.router.State())
	return nil
}

func (c *VideoController) CreateMainAudioPeakProcessor(standard audiorouter.PeakStandard, source audiorouter.Source) error {
	if c.router == nil {
		return ErrRouterNotCreated
	}
	proc := c.router.CreatePeakProcessor(standard, source)
	ch, _ := proc.Subscribe()
	go func() {
		for v := range ch {
			c.events.mainAudioPeak.Publish(v)
		}
	}()
	return nil
}

// --- Sidecars (spec §6 "Sidecars", §4.7) ---

func (c *VideoController) CreateSidecarAudioTrack(id string, track OmpAudioTrack, element sidecar.Element) {
	if c.sidecars == nil {
		c.sidecars = sidecar.New(c.sidecarPlayMode, c.onSidecarBuffering, c.onWaitingSyncedChanged, c.effectsBuilder())
	}
	s := c.sidecars.Create(id, sidecar.Track{ID: track.ID, Label: track.Label}, element, func() int {
		if c.audioCtx != nil {
			return c.audioCtx.DestinationMaxChannelCount()
		}
		return 2
	})
	c.events.sidecarAudioCreate.Publish(SidecarChangeEvent{ID: id, State: *s})
}

// SetSidecarAudioPlayMode selects audio_play_mode (spec §4.7): under
// Single, activating any sidecar deactivates main audio and all other
// sidecars (§8 invariant 7, "∑ active == 1"); under Multiple they mix.
// Takes effect immediately on an already-created sidecar Manager, and is
// remembered for the Manager lazily created by the first
// CreateSidecarAudioTrack call.
func (c *VideoController) SetSidecarAudioPlayMode(mode sidecar.PlayMode) {
	c.sidecarPlayMode = mode
	if c.sidecars != nil {
		c.sidecars.SetMode(mode)
	}
}

func (c *VideoController) RemoveSidecarAudioTrack(id string) {
	if c.sidecars != nil {
		c.sidecars.Remove(id)
	}
	c.events.sidecarAudioRemove.Publish(id)
}

func (c *VideoController) ActivateSidecarAudioTracks(ids []string) error {
	if c.sidecars == nil {
		return ErrSidecarNotFound
	}
	deactivateMain, err := c.sidecars.Activate(ids, false)
	if err != nil {
		return err
	}
	if deactivateMain {
		c.element.SetMuted(true)
	}
	return nil
}

func (c *VideoController) DeactivateSidecarAudioTracks(ids []string) {
	if c.sidecars != nil {
		c.sidecars.Deactivate(ids)
	}
}

func (c *VideoController) SetSidecarVolume(id string, v float64) error {
	if c.sidecars == nil {
		return ErrSidecarNotFound
	}
	if err := c.sidecars.SetVolume(id, v); err != nil {
		return err
	}
	c.events.sidecarAudioVolumeChange.Publish(SidecarVolumeChangeEvent{ID: id, Volume: v})
	return nil
}

func (c *VideoController) SetSidecarMuted(id string, muted bool) error {
	if c.sidecars == nil {
		return ErrSidecarNotFound
	}
	return c.sidecars.SetMuted(id, muted)
}

func (c *VideoController) MuteSidecar(id string) error   { return c.SetSidecarMuted(id, true) }
func (c *VideoController) UnmuteSidecar(id string) error { return c.SetSidecarMuted(id, false) }

func (c *VideoController) ExportMainAudioTrackToSidecar(trackID string, element sidecar.Element) error {
	for _, t := range c.audioTracks {
		if t.ID == trackID {
			c.CreateSidecarAudioTrack(trackID, t, element)
			return nil
		}
	}
	return ErrSidecarNotFound
}

func (c *VideoController) onSidecarBuffering(id string, buffering bool) {
	c.events.buffering.Publish(buffering)
}

// onWaitingSyncedChanged implements spec §8 Scenario D: while any
// sidecar cannot satisfy the main video's current time, main playback
// auto-pauses if it was running, and resumes once every sidecar has
// caught up -- but only if this auto-pause is what stopped it. This
// dispatches state/element changes directly rather than calling the
// public Pause/Play (which run the full pause-sync/seek machinery and
// re-notify sidecars) since this callback can fire from inside the
// sidecar manager's own Play dispatch and must not re-enter it.
func (c *VideoController) onWaitingSyncedChanged(waiting bool) {
	wasWaiting := c.stateMachine.snapshot().WaitingSyncedMedia
	c.stateMachine.dispatch(cmdWaitingSyncedMediaChanged{Value: waiting})
	if waiting == wasWaiting {
		return
	}

	if waiting {
		if !c.stateMachine.isPlaying() {
			return
		}
		c.resumeAfterSync = true
		c.element.Pause()
		c.stateMachine.dispatch(cmdPauseRequested{})
		c.stateMachine.dispatch(cmdElementPaused{})
		c.stateMachine.dispatch(cmdPauseSyncComplete{})
		c.events.pause.Publish(struct{}{})
		return
	}

	if !c.resumeAfterSync {
		return
	}
	c.resumeAfterSync = false
	if err := c.element.Play(); err == nil {
		c.stateMachine.dispatch(cmdElementPlaying{})
		c.events.play.Publish(struct{}{})
	}
}
