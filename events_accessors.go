package playercore

import (
	"github.com/framereview/playercore/internal/audiorouter"
)

// Event stream accessors (spec §4.9). Each exposes one of the named
// controller streams to UI subscribers; the SwitchableController (§4.9,
// switchable.go) rebinds to these on every inner-controller swap.
func (c *VideoController) OnVideoLoading() *EventStream[struct{}]          { return c.events.videoLoading }
func (c *VideoController) OnVideoLoaded() *LatestValueStream[*Video]      { return c.events.videoLoaded }
func (c *VideoController) OnVideoError() *EventStream[VideoErrorEvent]     { return c.events.videoError }
func (c *VideoController) OnPlay() *EventStream[struct{}]                  { return c.events.play }
func (c *VideoController) OnPause() *EventStream[struct{}]                 { return c.events.pause }
func (c *VideoController) OnEnded() *EventStream[struct{}]                 { return c.events.ended }
func (c *VideoController) OnPlaybackRateChanged() *EventStream[float64]    { return c.events.playbackRateChanged }
func (c *VideoController) OnPlaybackStateChanged() *LatestValueStream[PlaybackState] {
	return c.events.playbackState
}
func (c *VideoController) OnTimeChanged() *EventStream[TimeChangeEvent] { return c.events.timeChanged }
func (c *VideoController) OnSeeking() *EventStream[SeekEvent]           { return c.events.seeking }
func (c *VideoController) OnSeeked() *EventStream[SeekEvent]            { return c.events.seeked }
func (c *VideoController) OnBuffering() *EventStream[bool]              { return c.events.buffering }
func (c *VideoController) OnVolumeChanged() *EventStream[float64]       { return c.events.volumeChanged }
func (c *VideoController) OnMutedChanged() *EventStream[bool]           { return c.events.mutedChanged }
func (c *VideoController) OnAudioOutputVolumeChanged() *EventStream[float64] {
	return c.events.audioOutputVolumeChanged
}
func (c *VideoController) OnAudioOutputMutedChanged() *EventStream[bool] {
	return c.events.audioOutputMutedChanged
}
func (c *VideoController) OnAudioLoaded() *LatestValueStream[[]OmpAudioTrack] {
	return c.events.audioLoaded
}
func (c *VideoController) OnAudioSwitched() *EventStream[OmpAudioTrack] { return c.events.audioSwitched }
func (c *VideoController) OnActiveAudioTrackChanged() *LatestValueStream[OmpAudioTrack] {
	return c.events.activeAudioTrack
}
func (c *VideoController) OnSubtitlesLoaded() *LatestValueStream[[]SubtitlesVttTrack] {
	return c.events.subtitlesLoaded
}
func (c *VideoController) OnSubtitlesChanged() *EventStream[[]SubtitlesVttTrack] {
	return c.events.subtitlesChanged
}
func (c *VideoController) OnMainAudioChange() *LatestValueStream[audiorouter.State] {
	return c.events.mainAudioChange
}
func (c *VideoController) OnMainAudioSoloMute() *LatestValueStream[audiorouter.State] {
	return c.events.mainAudioSoloMute
}
func (c *VideoController) OnMainAudioPeak() *EventStream[audiorouter.PeakSampleValue] {
	return c.events.mainAudioPeak
}
func (c *VideoController) OnSidecarAudioCreate() *EventStream[SidecarChangeEvent] {
	return c.events.sidecarAudioCreate
}
func (c *VideoController) OnSidecarAudioRemove() *EventStream[string] { return c.events.sidecarAudioRemove }
func (c *VideoController) OnSidecarAudioChange() *EventStream[SidecarChangeEvent] {
	return c.events.sidecarAudioChange
}
func (c *VideoController) OnSidecarAudioVolumeChange() *EventStream[SidecarVolumeChangeEvent] {
	return c.events.sidecarAudioVolumeChange
}
func (c *VideoController) OnFullscreenChanged() *EventStream[bool]       { return c.events.fullscreenChanged }
func (c *VideoController) OnSafeZoneChanged() *EventStream[[]string]     { return c.events.safeZoneChanged }
func (c *VideoController) OnHelpMenuChanged() *EventStream[[]string]     { return c.events.helpMenuChanged }
func (c *VideoController) OnThumbnailVttURLChanged() *EventStream[string] {
	return c.events.thumbnailVttURLChanged
}
func (c *VideoController) OnWindowPlaybackStateChanged() *EventStream[WindowPlaybackStateChangeEvent] {
	return c.events.windowPlaybackStateChanged
}
func (c *VideoController) OnActiveNamedEventStreamsChanged() *EventStream[[]string] {
	return c.events.activeNamedEventStreamsChanged
}
func (c *VideoController) OnNamedEvent() *EventStream[NamedEvent] { return c.events.namedEvent }
