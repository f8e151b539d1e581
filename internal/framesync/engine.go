// Package framesync implements the bounded fixed-point convergence loop
// that reconciles a media element's reported currentTime with the
// frame-callback's mediaTime (spec §4.3 "Frame Synchronization Engine").
package framesync

import (
	"context"
	"math/big"
	"time"

	"github.com/framereview/playercore/internal/timecode"
)

// DefaultMaxIterations is the bound L on convergence iterations (spec
// §4.3 "at most L iterations (default 5)").
const DefaultMaxIterations = 5

// nudgeFraction is the epsilon fraction of one frame duration used for
// fine correction nudges (spec: "ε = 0.1 × frameDuration").
const nudgeFraction = 0.1

// toleranceFraction is the maximum positive (idealTime-realTime)/frameDuration
// ratio tolerated without a corrective seek, for non-drop fractional
// rates only (spec §4.3 step 3).
const toleranceFraction = 0.2

// Tick is one frame-callback observation fed into the convergence loop.
type Tick struct {
	Now       time.Time
	MediaTime *big.Rat // nil if unavailable for this tick
}

// Target is the caller's intent: a frame index, a bare time (no
// explicit frame), or neither (used when merely checking convergence
// after a platform-driven event, e.g. during the pause-sync protocol).
type Target struct {
	Frame    *uint64
	HasFrame bool
}

// SeekFunc issues a platform seek to the given time in seconds and
// returns once the seek has been dispatched (not necessarily completed);
// the engine waits for the next Tick afterward regardless. The caller is
// expected to route this through the Seek Orchestrator so the seek
// itself participates in seek-breaker cancellation (spec §4.3 step 5).
type SeekFunc func(ctx context.Context, targetTime *big.Rat) error

// Params configures one convergence run.
type Params struct {
	FrameRate     timecode.FrameRate
	DropFrame     bool
	MaxIterations int // 0 means DefaultMaxIterations
	// IsPlaying is polled once per iteration: convergence is considered
	// done immediately once playback has started (spec §4.3 step 3).
	IsPlaying func() bool
	// CurrentTime returns the element's live currentTime in seconds at
	// the moment of the call.
	CurrentTime func() float64
}

// Result reports what happened during a Converge call (spec §4.3's
// "hitting L logs and completes successfully" plus SPEC_FULL's
// ConvergenceReport supplement, which makes invariant 1 of §8
// machine-checkable instead of only log-checkable).
type Result struct {
	Iterations int
	HitBound   bool
	FinalFrame uint64
}

// Logger is the narrow logging contract this package needs.
type Logger interface {
	Printf(format string, v ...any)
}

// Converge runs the bounded fixed-point loop described in spec §4.3.
// ticks must deliver one Tick per rendered frame (or per synthetic tick,
// for the worklet-substitute source); ctx is the seek-breaker's context:
// a new seek arriving cancels it and the loop returns immediately with
// whatever Result was accumulated so far (HitBound is false in that
// case; the caller is expected to discard the result since a newer
// operation superseded it).
func Converge(ctx context.Context, ticks <-chan Tick, target Target, p Params, seek SeekFunc, log Logger) (Result, error) {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var baseline *big.Rat // captured on first correction, to avoid compounding rounding
	frameDuration := p.FrameRate.FrameDuration()

	var lastFrame uint64
	for iter := 0; iter < maxIter; iter++ {
		var tick Tick
		select {
		case <-ctx.Done():
			return Result{Iterations: iter, FinalFrame: lastFrame}, ctx.Err()
		case t, ok := <-ticks:
			if !ok {
				return Result{Iterations: iter, FinalFrame: lastFrame}, nil
			}
			tick = t
		}

		currentTime := big.NewRat(0, 1).SetFloat64(p.CurrentTime())
		cf, err := timecode.TimeToFrame(currentTime, p.FrameRate, nil)
		if err != nil {
			return Result{Iterations: iter, FinalFrame: lastFrame}, err
		}
		lastFrame = cf

		var mf uint64
		haveMF := false
		if tick.MediaTime != nil {
			mf, err = timecode.TimeToFrame(tick.MediaTime, p.FrameRate, nil)
			if err != nil {
				return Result{Iterations: iter, FinalFrame: lastFrame}, err
			}
			haveMF = true
		}

		if done(p, target, cf, mf, haveMF, currentTime, frameDuration) {
			return Result{Iterations: iter, FinalFrame: cf}, nil
		}

		// Compute and issue a correction.
		switch {
		case target.HasFrame && *target.Frame == cf && haveMF && cf != mf:
			eps := big.NewRat(0, 1)
			if iter > 0 {
				eps = new(big.Rat).Mul(big.NewRat(int64(nudgeFraction*1000), 1000), frameDuration)
				if cf < mf {
					eps.Neg(eps)
				}
			}
			nt := new(big.Rat).Add(currentTime, eps)
			if err := seek(ctx, nt); err != nil {
				return Result{Iterations: iter + 1, FinalFrame: lastFrame}, err
			}

		case target.HasFrame && *target.Frame != cf:
			if baseline == nil {
				baseline = currentTime
			}
			delta := int64(*target.Frame) - int64(cf)
			offset := new(big.Rat).Mul(big.NewRat(delta, 1), frameDuration)
			nt := new(big.Rat).Add(baseline, offset)
			if err := seek(ctx, nt); err != nil {
				return Result{Iterations: iter + 1, FinalFrame: lastFrame}, err
			}

		case !target.HasFrame && haveMF && cf != mf:
			var nt *big.Rat
			if iter == 0 {
				nt = currentTime
			} else {
				eps := new(big.Rat).Mul(big.NewRat(int64(nudgeFraction*1000), 1000), frameDuration)
				if mf < cf {
					eps.Neg(eps)
				}
				nt = new(big.Rat).Add(currentTime, eps)
			}
			if err := seek(ctx, nt); err != nil {
				return Result{Iterations: iter + 1, FinalFrame: lastFrame}, err
			}

		default:
			// Nothing actionable this iteration (e.g. no mediaTime
			// available at all); wait for the next tick.
		}
	}

	if log != nil {
		log.Printf("framesync: convergence did not settle within %d iterations, frame=%d", maxIter, lastFrame)
	}
	return Result{Iterations: maxIter, HitBound: true, FinalFrame: lastFrame}, nil
}

func done(p Params, target Target, cf, mf uint64, haveMF bool, currentTime, frameDuration *big.Rat) bool {
	if p.IsPlaying != nil && p.IsPlaying() {
		return true
	}
	if cf == 0 {
		return true
	}
	if target.HasFrame {
		return *target.Frame == cf && haveMF && cf == mf
	}
	if !haveMF || cf != mf {
		return false
	}
	if !p.FrameRate.IsFractional() || p.DropFrame {
		return true
	}
	idealTime, err := timecode.FrameToTime(cf, p.FrameRate)
	if err != nil {
		return true
	}
	diff := new(big.Rat).Sub(idealTime, currentTime)
	tolerance := new(big.Rat).Quo(diff, frameDuration)
	if tolerance.Sign() < 0 {
		return false
	}
	return tolerance.Cmp(big.NewRat(int64(toleranceFraction*100), 100)) <= 0
}
