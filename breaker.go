package playercore

import (
	"context"
	"sync"
)

// breaker is a one-shot cancellation token, the Go-idiomatic
// generalization of the teacher's controller_stream.go stopCh/close()
// pattern (spec §5 "Cancellation semantics": video_event_breaker,
// seek_breaker, pausing_breaker, audio_context_resume_breaker,
// controller_destroyed). Firing a breaker unsubscribes every
// subscription attached to it synchronously, and a new breaker is
// allocated immediately after. context.Context models this directly:
// Done() is the firing signal, Cancel is one-shot via sync.Once.
type breaker struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newBreaker() *breaker {
	ctx, cancel := context.WithCancel(context.Background())
	return &breaker{ctx: ctx, cancel: cancel}
}

// Fire cancels the token. Safe to call multiple times; only the first
// call has effect.
func (b *breaker) Fire() {
	b.once.Do(b.cancel)
}

// Done returns the channel that closes when the breaker fires.
func (b *breaker) Done() <-chan struct{} {
	return b.ctx.Done()
}

// Context returns the underlying context, for passing into Subscribe
// calls that should unsubscribe automatically when this breaker fires.
func (b *breaker) Context() context.Context {
	return b.ctx
}

// breakerSet holds the five named breaker tokens a VideoController
// manages across its lifecycle (spec §5), plus the helpers to rotate
// them.
type breakerSet struct {
	mu                      sync.Mutex
	videoEvent              *breaker
	seek                    *breaker
	pausing                 *breaker
	audioContextResume      *breaker
	controllerDestroyed     *breaker
}

func newBreakerSet() *breakerSet {
	return &breakerSet{
		videoEvent:          newBreaker(),
		seek:                newBreaker(),
		pausing:             newBreaker(),
		audioContextResume:  newBreaker(),
		controllerDestroyed: newBreaker(),
	}
}

// rotate fires the current token for the named breaker and allocates a
// fresh one, returning the fresh one's context for use by the caller's
// new operation.
func (bs *breakerSet) rotateVideoEvent() context.Context {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.videoEvent.Fire()
	bs.videoEvent = newBreaker()
	return bs.videoEvent.ctx
}

func (bs *breakerSet) rotateSeek() context.Context {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.seek.Fire()
	bs.seek = newBreaker()
	return bs.seek.ctx
}

func (bs *breakerSet) rotatePausing() context.Context {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.pausing.Fire()
	bs.pausing = newBreaker()
	return bs.pausing.ctx
}

func (bs *breakerSet) firePausing() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.pausing.Fire()
}

func (bs *breakerSet) rotateAudioContextResume() context.Context {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.audioContextResume.Fire()
	bs.audioContextResume = newBreaker()
	return bs.audioContextResume.ctx
}

func (bs *breakerSet) fireDestroyed() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.videoEvent.Fire()
	bs.seek.Fire()
	bs.pausing.Fire()
	bs.audioContextResume.Fire()
	bs.controllerDestroyed.Fire()
}

func (bs *breakerSet) destroyedDone() <-chan struct{} {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.controllerDestroyed.Done()
}
