package playercore

import (
	"github.com/framereview/playercore/internal/audiorouter"
	"github.com/framereview/playercore/internal/sidecar"
)

// TimeChangeEvent is published after every completed seek and, during
// playback, on a sync tick whose frame index differs from the last one
// published (see dispatchTimeChanges).
type TimeChangeEvent struct {
	Time    float64
	Frame   uint64
	Playing bool
}

// SeekEvent carries the from/to pair for `seeking` and `seeked` (spec
// §4.4 step 2/5).
type SeekEvent struct {
	FromTime float64
	ToTime   float64
}

// VideoErrorEvent is emitted for media-loading failures so subscribers
// listening only to streams observe them (spec §7 "Propagation").
type VideoErrorEvent struct {
	Code    string
	Message string
}

// SidecarChangeEvent/SidecarVolumeChangeEvent/SidecarSoloMuteEvent mirror
// the main-audio equivalents, scoped to one sidecar id (spec §4.9).
type SidecarChangeEvent struct {
	ID    string
	State sidecar.Sidecar
}

type SidecarVolumeChangeEvent struct {
	ID     string
	Volume float64
	Muted  bool
}

type WindowPlaybackStateChangeEvent struct {
	Detached bool
}

// controllerEvents groups the >30 named streams the controller exposes
// (spec §4.9). Re-architecting this into one tagged ControllerEvent
// stream is noted as an option in spec §9, but kept as discrete typed
// streams here: the teacher's own event surface (controller_stream.go's
// dedicated onXxx channels) is one-stream-per-concern, and subscribers
// benefit from static typing over a type-switch on a sum type.
type controllerEvents struct {
	// Lifecycle / load.
	videoLoading *EventStream[struct{}]
	videoLoaded  *LatestValueStream[*Video]
	videoError   *EventStream[VideoErrorEvent]

	// Playback.
	play              *EventStream[struct{}]
	pause             *EventStream[struct{}]
	ended             *EventStream[struct{}]
	playbackRateChanged *EventStream[float64]
	playbackState     *LatestValueStream[PlaybackState]

	// Time & seek.
	timeChanged *EventStream[TimeChangeEvent]
	seeking     *EventStream[SeekEvent]
	seeked      *EventStream[SeekEvent]
	buffering   *EventStream[bool]

	// Volume.
	volumeChanged *EventStream[float64]
	mutedChanged  *EventStream[bool]

	// Audio output.
	audioOutputVolumeChanged *EventStream[float64]
	audioOutputMutedChanged  *EventStream[bool]

	// Tracks.
	audioLoaded   *LatestValueStream[[]OmpAudioTrack]
	audioSwitched *EventStream[OmpAudioTrack]
	activeAudioTrack *LatestValueStream[OmpAudioTrack]

	// Subtitles.
	subtitlesLoaded *LatestValueStream[[]SubtitlesVttTrack]
	subtitlesChanged *EventStream[[]SubtitlesVttTrack]

	// Main audio router.
	mainAudioChange   *LatestValueStream[audiorouter.State]
	mainAudioSoloMute *LatestValueStream[audiorouter.State]
	mainAudioPeak     *EventStream[audiorouter.PeakSampleValue]

	// Sidecars.
	sidecarAudioCreate       *EventStream[SidecarChangeEvent]
	sidecarAudioRemove       *EventStream[string]
	sidecarAudioChange       *EventStream[SidecarChangeEvent]
	sidecarAudioVolumeChange *EventStream[SidecarVolumeChangeEvent]
	sidecarAudioPeak         *EventStream[SidecarChangeEvent]
	sidecarAudioSoloMute     *EventStream[SidecarChangeEvent]

	// Platform/UI surface passthroughs.
	fullscreenChanged *EventStream[bool]
	safeZoneChanged   *EventStream[[]string]
	helpMenuChanged   *EventStream[[]string]
	thumbnailVttURLChanged *EventStream[string]

	windowPlaybackStateChanged *EventStream[WindowPlaybackStateChangeEvent]
	activeNamedEventStreamsChanged *EventStream[[]string]
	namedEvent *EventStream[NamedEvent]
}

func newControllerEvents() *controllerEvents {
	return &controllerEvents{
		videoLoading: NewEventStream[struct{}](),
		videoLoaded:  NewLatestValueStream[*Video](),
		videoError:   NewEventStream[VideoErrorEvent](),

		play:                NewEventStream[struct{}](),
		pause:               NewEventStream[struct{}](),
		ended:               NewEventStream[struct{}](),
		playbackRateChanged: NewEventStream[float64](),
		playbackState:       NewLatestValueStream[PlaybackState](),

		timeChanged: NewEventStream[TimeChangeEvent](),
		seeking:     NewEventStream[SeekEvent](),
		seeked:      NewEventStream[SeekEvent](),
		buffering:   NewEventStream[bool](),

		volumeChanged: NewEventStream[float64](),
		mutedChanged:  NewEventStream[bool](),

		audioOutputVolumeChanged: NewEventStream[float64](),
		audioOutputMutedChanged:  NewEventStream[bool](),

		audioLoaded:      NewLatestValueStream[[]OmpAudioTrack](),
		audioSwitched:    NewEventStream[OmpAudioTrack](),
		activeAudioTrack: NewLatestValueStream[OmpAudioTrack](),

		subtitlesLoaded:  NewLatestValueStream[[]SubtitlesVttTrack](),
		subtitlesChanged: NewEventStream[[]SubtitlesVttTrack](),

		mainAudioChange:   NewLatestValueStream[audiorouter.State](),
		mainAudioSoloMute: NewLatestValueStream[audiorouter.State](),
		mainAudioPeak:     NewEventStream[audiorouter.PeakSampleValue](),

		sidecarAudioCreate:       NewEventStream[SidecarChangeEvent](),
		sidecarAudioRemove:       NewEventStream[string](),
		sidecarAudioChange:       NewEventStream[SidecarChangeEvent](),
		sidecarAudioVolumeChange: NewEventStream[SidecarVolumeChangeEvent](),
		sidecarAudioPeak:         NewEventStream[SidecarChangeEvent](),
		sidecarAudioSoloMute:     NewEventStream[SidecarChangeEvent](),

		fullscreenChanged:      NewEventStream[bool](),
		safeZoneChanged:        NewEventStream[[]string](),
		helpMenuChanged:        NewEventStream[[]string](),
		thumbnailVttURLChanged: NewEventStream[string](),

		windowPlaybackStateChanged:     NewEventStream[WindowPlaybackStateChangeEvent](),
		activeNamedEventStreamsChanged: NewEventStream[[]string](),
		namedEvent:                     NewEventStream[NamedEvent](),
	}
}

// closeAll force-closes every subscriber channel across every stream,
// used by destroy's step (f): "complete-and-unsubscribe every event
// stream" (spec §4.11).
func (e *controllerEvents) closeAll() {
	e.videoLoading.closeAll()
	e.videoLoaded.closeAll()
	e.videoError.closeAll()

	e.play.closeAll()
	e.pause.closeAll()
	e.ended.closeAll()
	e.playbackRateChanged.closeAll()
	e.playbackState.closeAll()

	e.timeChanged.closeAll()
	e.seeking.closeAll()
	e.seeked.closeAll()
	e.buffering.closeAll()

	e.volumeChanged.closeAll()
	e.mutedChanged.closeAll()

	e.audioOutputVolumeChanged.closeAll()
	e.audioOutputMutedChanged.closeAll()

	e.audioLoaded.closeAll()
	e.audioSwitched.closeAll()
	e.activeAudioTrack.closeAll()

	e.subtitlesLoaded.closeAll()
	e.subtitlesChanged.closeAll()

	e.mainAudioChange.closeAll()
	e.mainAudioSoloMute.closeAll()
	e.mainAudioPeak.closeAll()

	e.sidecarAudioCreate.closeAll()
	e.sidecarAudioRemove.closeAll()
	e.sidecarAudioChange.closeAll()
	e.sidecarAudioVolumeChange.closeAll()
	e.sidecarAudioPeak.closeAll()
	e.sidecarAudioSoloMute.closeAll()

	e.fullscreenChanged.closeAll()
	e.safeZoneChanged.closeAll()
	e.helpMenuChanged.closeAll()
	e.thumbnailVttURLChanged.closeAll()

	e.windowPlaybackStateChanged.closeAll()
	e.activeNamedEventStreamsChanged.closeAll()
	e.namedEvent.closeAll()
}
