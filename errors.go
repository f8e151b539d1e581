package playercore

import (
	"errors"
	"fmt"
)

// Error taxonomy (spec §7). Sentinel values are grouped by kind and
// matched with errors.Is, grounded on the ManuGH-xg2g convention of one
// errors.go per owning concern (internal/config/errors.go,
// internal/transcoder/errors.go, internal/api/errors.go): a flat var
// block of `errors.New` sentinels, plus payload-carrying struct types
// for the handful of errors that need structured fields.

// InvalidInput sentinels.
var (
	ErrInvalidURL          = errors.New("playercore: invalid url")
	ErrInvalidFrameRate    = errors.New("playercore: invalid frame rate")
	ErrInvalidDropFrame    = errors.New("playercore: drop-frame not supported at this frame rate")
	ErrInvalidTimecode     = errors.New("playercore: timecode incompatible with video")
	ErrInvalidDuration     = errors.New("playercore: invalid duration")
	ErrInvalidVolume       = errors.New("playercore: invalid volume")
	ErrInvalidPlaybackRate = errors.New("playercore: invalid playback rate")
)

// StateViolation sentinels.
var (
	ErrVideoNotLoaded = errors.New("playercore: no video loaded")
	ErrNotDetachable  = errors.New("playercore: controller cannot be detached")
	ErrNotAttachable  = errors.New("playercore: controller cannot be attached")
	ErrPiPUnsupported = errors.New("playercore: picture-in-picture unsupported")
)

// LoaderFailure sentinels and struct types.
var (
	ErrUnrecognizedProtocol = errors.New("playercore: unrecognized loader protocol")
	ErrMediaLoadTimeout     = errors.New("playercore: media load timed out")
)

// LoadFailed wraps a loader-supplied message. Its Is method makes
// errors.Is(err, &LoadFailed{}) match any *LoadFailed, whatever its
// message; it has no Unwrap. It carries the original message for display.
type LoadFailed struct {
	Message string
}

func (e *LoadFailed) Error() string { return fmt.Sprintf("playercore: load failed: %s", e.Message) }
func (e *LoadFailed) Is(target error) bool {
	_, ok := target.(*LoadFailed)
	return ok
}

// AudioFailure sentinels and struct types.
var (
	ErrAudioContextNotReady   = errors.New("playercore: audio context not ready")
	ErrRouterNotCreated       = errors.New("playercore: audio router not created")
	ErrSidecarNotFound        = errors.New("playercore: sidecar audio track not found")
	ErrSidecarLoadFailed      = errors.New("playercore: sidecar audio track failed to load")
	ErrConcurrentEffectsInstall = errors.New("playercore: concurrent effects graph install for slot")
	ErrSlotNotSupported       = errors.New("playercore: effects slot not supported")
)

// PlatformPermission sentinels.
var (
	ErrPlaybackNotAllowed   = errors.New("playercore: playback not allowed without user gesture")
	ErrFullscreenNotAllowed = errors.New("playercore: fullscreen not allowed without user gesture")
)

// VideoWindowPlaybackError is raised by the detached-window stub when the
// far side cannot initiate an operation due to a user-gesture
// requirement (spec §7 WindowPlayback kind).
type VideoWindowPlaybackError struct {
	Op string
}

func (e *VideoWindowPlaybackError) Error() string {
	return fmt.Sprintf("playercore: detached window cannot perform %q without a user gesture", e.Op)
}
func (e *VideoWindowPlaybackError) Is(target error) bool {
	_, ok := target.(*VideoWindowPlaybackError)
	return ok
}
