package timecode

import (
	"fmt"
	"math/big"
)

// DefaultSpillOverCorrection is the small epsilon added to `time` before
// flooring it into a frame index, so that a currentTime reported up to a
// millisecond short of a frame boundary still maps to the frame that
// starts at that boundary.
// Spec §4.1 names this `frame_duration_spill_over_correction`.
var DefaultSpillOverCorrection = big.NewRat(1, 1000) // 1ms

// TimeToFrame converts a time in seconds to a zero-based frame index:
// floor(time * frame_rate), with spillOver added to time first to
// tolerate end-of-frame rounding spill. Pass nil for spillOver to use
// DefaultSpillOverCorrection.
func TimeToFrame(t *big.Rat, fr FrameRate, spillOver *big.Rat) (uint64, error) {
	if err := fr.Validate(); err != nil {
		return 0, err
	}
	if spillOver == nil {
		spillOver = DefaultSpillOverCorrection
	}
	adjusted := new(big.Rat).Add(t, spillOver)
	if adjusted.Sign() < 0 {
		adjusted.SetInt64(0)
	}
	scaled := new(big.Rat).Mul(adjusted, fr.Rat())
	q := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	// big.Rat normalizes to a positive denominator, so Quo already
	// truncates toward zero correctly for non-negative scaled values;
	// floor and truncate coincide here since adjusted >= 0.
	if q.Sign() < 0 {
		q.SetInt64(0)
	}
	return q.Uint64(), nil
}

// FrameToTime converts a zero-based frame index to an exact time in
// seconds: n / frame_rate.
func FrameToTime(n uint64, fr FrameRate) (*big.Rat, error) {
	if err := fr.Validate(); err != nil {
		return nil, err
	}
	return new(big.Rat).Mul(new(big.Rat).SetUint64(n), fr.FrameDuration()), nil
}

// TimeToTimecode converts a time in seconds to a Timecode at the given
// frame rate, applying drop-frame compensation when dropFrame is true.
// An optional ffom (first-frame-of-media) offset, expressed in frames,
// shifts the displayed timecode without affecting the wall-time mapping.
func TimeToTimecode(t *big.Rat, fr FrameRate, dropFrame bool, ffomFrames int64) (Timecode, error) {
	frame, err := TimeToFrame(t, fr, nil)
	if err != nil {
		return Timecode{}, err
	}
	return FrameToTimecode(frame, fr, dropFrame, ffomFrames)
}

// FrameToTimecode converts a zero-based frame index directly to a
// Timecode, applying drop-frame compensation when requested.
func FrameToTimecode(frame uint64, fr FrameRate, dropFrame bool, ffomFrames int64) (Timecode, error) {
	if err := fr.Validate(); err != nil {
		return Timecode{}, err
	}

	cfg, ok := dropFrameParams(fr)
	if dropFrame && !ok {
		return Timecode{}, fmt.Errorf("%w: %d/%d", ErrInvalidDropFrame, fr.Num, fr.Den)
	}
	if !dropFrame {
		cfg = dropFrameConfig{dropPerMinute: 0, nominalFPS: fr.Rounded()}
	}

	displayFrame := shiftFrames(int64(frame), ffomFrames)
	hours, minutes, seconds, frames := framesToHMSF(displayFrame, cfg)
	return Timecode{Hours: hours, Minutes: minutes, Seconds: seconds, Frames: frames, DropFrame: dropFrame}, nil
}

// TimecodeToFrame converts a Timecode back to a zero-based frame index.
// It fails with ErrInvalidTimecode if tc.DropFrame does not match the
// video's dropFrame setting (spec §4.1).
func TimecodeToFrame(tc Timecode, fr FrameRate, dropFrame bool, ffomFrames int64) (uint64, error) {
	if tc.DropFrame != dropFrame {
		return 0, fmt.Errorf("%w: timecode drop-frame=%v, video drop-frame=%v", ErrInvalidTimecode, tc.DropFrame, dropFrame)
	}
	if err := fr.Validate(); err != nil {
		return 0, err
	}

	cfg, ok := dropFrameParams(fr)
	if dropFrame && !ok {
		return 0, fmt.Errorf("%w: %d/%d", ErrInvalidDropFrame, fr.Num, fr.Den)
	}
	if !dropFrame {
		cfg = dropFrameConfig{dropPerMinute: 0, nominalFPS: fr.Rounded()}
	}

	displayFrame := hmsfToFrames(tc, cfg)
	actualFrame := shiftFrames(displayFrame, -ffomFrames)
	if actualFrame < 0 {
		actualFrame = 0
	}
	return uint64(actualFrame), nil
}

// TimecodeToTime converts a Timecode to an exact time in seconds, via
// TimecodeToFrame then FrameToTime.
func TimecodeToTime(tc Timecode, fr FrameRate, dropFrame bool, ffomFrames int64) (*big.Rat, error) {
	frame, err := TimecodeToFrame(tc, fr, dropFrame, ffomFrames)
	if err != nil {
		return nil, err
	}
	return FrameToTime(frame, fr)
}

// hmsfToFrames implements the standard SMPTE drop-frame forward
// conversion: frameNumber = (hh*3600+mm*60+ss)*nominalFPS + ff, minus
// dropPerMinute*(totalMinutes - totalMinutes/10) dropped frame numbers.
// With dropPerMinute=0 this degenerates to plain non-drop math.
func hmsfToFrames(tc Timecode, cfg dropFrameConfig) int64 {
	totalMinutes := int64(tc.Hours)*60 + int64(tc.Minutes)
	frameNumber := (int64(tc.Hours)*3600+int64(tc.Minutes)*60+int64(tc.Seconds))*cfg.nominalFPS + int64(tc.Frames)
	if cfg.dropPerMinute > 0 {
		dropped := cfg.dropPerMinute * (totalMinutes - totalMinutes/10)
		frameNumber -= dropped
	}
	return frameNumber
}

// framesToHMSF implements the standard SMPTE drop-frame inverse
// conversion (Duncan/Joll algorithm), generalized over dropPerMinute and
// nominalFPS so that dropPerMinute=0 degenerates to plain division.
func framesToHMSF(frameNumber int64, cfg dropFrameConfig) (hours, minutes, seconds, frames int) {
	if cfg.dropPerMinute > 0 {
		framesPerMinute := cfg.nominalFPS*60 - cfg.dropPerMinute
		framesPer10Minutes := cfg.nominalFPS*600 - cfg.dropPerMinute*9

		d := frameNumber / framesPer10Minutes
		m := frameNumber % framesPer10Minutes

		if m > cfg.dropPerMinute {
			frameNumber += cfg.dropPerMinute*9*d + cfg.dropPerMinute*((m-cfg.dropPerMinute)/framesPerMinute)
		} else {
			frameNumber += cfg.dropPerMinute * 9 * d
		}
	}

	fps := cfg.nominalFPS
	frames = int(frameNumber % fps)
	totalSeconds := frameNumber / fps
	seconds = int(totalSeconds % 60)
	totalMinutes := totalSeconds / 60
	minutes = int(totalMinutes % 60)
	hours = int(totalMinutes / 60)
	return
}
