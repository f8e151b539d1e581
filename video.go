package playercore

import (
	"math/big"

	"github.com/framereview/playercore/internal/timecode"
)

// Video is the immutable-after-load descriptor produced by a loader
// (spec §3 "Video"). A subsequent load_video replaces it atomically: no
// mid-swap state is ever observable by a subscriber.
type Video struct {
	SourceURL        string
	FrameRate        timecode.FrameRate
	DropFrame        bool
	Duration         *big.Rat // seconds
	TotalFrames      uint64
	FrameDuration    *big.Rat // seconds, == 1/FrameRate
	AudioOnly        bool
	FFOMTimecode     *timecode.Timecode // first-frame-of-media offset, optional
	CorrectedDuration *big.Rat          // refined from element feedback, optional
}

// FFOMFrames returns the first-frame-of-media offset expressed in
// frames at this video's frame rate, or 0 if none is set.
func (v *Video) FFOMFrames() int64 {
	if v == nil || v.FFOMTimecode == nil {
		return 0
	}
	frame, err := timecode.TimecodeToFrame(*v.FFOMTimecode, v.FrameRate, v.DropFrame, 0)
	if err != nil {
		return 0
	}
	return int64(frame)
}

// EffectiveDuration returns CorrectedDuration if set, else Duration.
func (v *Video) EffectiveDuration() *big.Rat {
	if v == nil {
		return big.NewRat(0, 1)
	}
	if v.CorrectedDuration != nil {
		return v.CorrectedDuration
	}
	return v.Duration
}

// Validate checks the invariants a loader must satisfy before a Video is
// considered loaded (spec §4.10 step 2).
func (v *Video) Validate() error {
	if v.SourceURL == "" {
		return ErrInvalidURL
	}
	if err := v.FrameRate.Validate(); err != nil {
		return ErrInvalidFrameRate
	}
	if v.DropFrame {
		if _, err := timecode.FrameToTimecode(0, v.FrameRate, true, 0); err != nil {
			return ErrInvalidDropFrame
		}
	}
	if v.Duration == nil || v.Duration.Sign() < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// LoadOptions configures a load_video call (spec §4.10, §6).
type LoadOptions struct {
	// Protocol, if set, forces a loader strategy instead of sniffing the
	// URL extension (spec §4.10 step 4).
	Protocol string
}

// VideoLoader is the external collaborator that turns a URL into a
// loaded Video plus its track lists (spec §6 "A loader interface").
// Out of scope per spec §1: demuxer implementations (HLS, etc). This is
// only the contract the core consumes.
type VideoLoader interface {
	Load(url string, options LoadOptions) (*Video, []OmpAudioTrack, []SubtitlesVttTrack, error)

	// OnAudioLoaded streams audio-track-list updates discovered after the
	// initial load (e.g. a manifest refresh exposing new renditions).
	OnAudioLoaded() *EventStream[[]OmpAudioTrack]
	OnAudioSwitched() *EventStream[OmpAudioTrack]
	OnSubtitlesLoaded() *EventStream[[]SubtitlesVttTrack]
	OnNamedEvent() *EventStream[NamedEvent]

	SetActiveAudioTrack(id string) error
	ExportAudioTrack(id string) (OmpAudioTrack, error)
}

// NamedEvent is an opaque, loader-defined side-channel event forwarded
// verbatim to subscribers of the controller's named-event stream (spec
// §4.9 "named-event").
type NamedEvent struct {
	Name    string
	Payload any
}
