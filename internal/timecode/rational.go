// Package timecode implements exact rational/decimal arithmetic for
// converting between seconds, frame indices, and SMPTE timecodes,
// including drop-frame compensation for the 29.97 and 59.94 rates.
//
// All arithmetic goes through math/big.Rat. Binary floats are never used
// for frame/time conversion: at 30000/1001 they drift the drop-frame
// frame count measurably within the first hour of a timeline.
package timecode

import (
	"errors"
	"fmt"
	"math/big"
)

// FrameRate is an exact rational frame rate (e.g. 30000/1001 for 29.97).
type FrameRate struct {
	Num int64
	Den int64
}

// NewFrameRate builds a FrameRate, normalizing the sign and reducing by
// the gcd. A negative input Den flips the sign of both parts; a zero Den,
// or a rate that is not positive after that, is reported by Validate.
func NewFrameRate(num, den int64) FrameRate {
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), abs64(den))
	if g > 1 {
		num /= g
		den /= g
	}
	return FrameRate{Num: num, Den: den}
}

// Validate reports whether the frame rate is well formed.
func (fr FrameRate) Validate() error {
	if fr.Den <= 0 || fr.Num <= 0 {
		return fmt.Errorf("%w: %d/%d", ErrInvalidFrameRate, fr.Num, fr.Den)
	}
	return nil
}

// Rat returns the exact rational value of the frame rate.
func (fr FrameRate) Rat() *big.Rat {
	return big.NewRat(fr.Num, fr.Den)
}

// Float64 returns an approximate float64 value, for display/logging only.
// Never use this for frame/time conversion math.
func (fr FrameRate) Float64() float64 {
	f, _ := fr.Rat().Float64()
	return f
}

// Rounded returns the nearest integer nominal rate (e.g. 30 for 29.97,
// 24 for 23.976). This is the frames-per-second count used when
// formatting/parsing timecodes, drop-frame or not.
func (fr FrameRate) Rounded() int64 {
	num, den := fr.Num, fr.Den
	return (2*num + den) / (2 * den)
}

// IsFractional reports whether the denominator is not 1.
func (fr FrameRate) IsFractional() bool {
	return fr.Den != 1
}

// FrameDuration returns 1/frame_rate as an exact rational number of
// seconds.
func (fr FrameRate) FrameDuration() *big.Rat {
	return new(big.Rat).Inv(fr.Rat())
}

// Common frame rates used across the review-player ecosystem.
var (
	FrameRate24     = FrameRate{24, 1}
	FrameRate23_976 = FrameRate{24000, 1001}
	FrameRate25     = FrameRate{25, 1}
	FrameRate2997   = FrameRate{30000, 1001}
	FrameRate30     = FrameRate{30, 1}
	FrameRate5994   = FrameRate{60000, 1001}
	FrameRate60     = FrameRate{60, 1}
)

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Error taxonomy for this package. These map onto spec §7's InvalidInput
// kind and are matched with errors.Is by callers.
var (
	ErrInvalidFrameRate = errors.New("timecode: invalid frame rate")
	ErrInvalidDropFrame = errors.New("timecode: drop-frame not supported at this frame rate")
	ErrInvalidTimecode  = errors.New("timecode: timecode incompatible with video")
)

// dropFrameConfig describes the SMPTE drop-frame parameters for a
// supported rate: how many frame numbers are skipped per minute
// (except every tenth) and the nominal (rounded) frames-per-second used
// for formatting.
type dropFrameConfig struct {
	dropPerMinute int64
	nominalFPS    int64
}

// dropFrameParams returns the drop-frame parameters for fr, and false
// for every rate where drop_frame=true is not accepted; only 29.97 and
// 59.94 are supported, per spec §4.1.
func dropFrameParams(fr FrameRate) (dropFrameConfig, bool) {
	switch {
	case fr.Num == 30000 && fr.Den == 1001:
		return dropFrameConfig{dropPerMinute: 2, nominalFPS: 30}, true
	case fr.Num == 60000 && fr.Den == 1001:
		return dropFrameConfig{dropPerMinute: 4, nominalFPS: 60}, true
	default:
		return dropFrameConfig{}, false
	}
}
