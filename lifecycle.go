package playercore

// Destroy performs the ordered teardown sequence of spec §4.11: (a) tear
// down the audio context, (b) destroy the main router, (c) remove all
// sidecars, (d) remove all subtitles, (e) fire every breaker token,
// (f) complete-and-unsubscribe every event stream, (g) destroy the
// active loader, (h) fire controller-destroyed, (i) null internal
// references. Idempotent: a second call is a no-op (spec §8 invariant
// 8).
func (c *VideoController) Destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true

	if c.tickCancel != nil {
		c.tickCancel()
		c.tickCancel = nil
	}

	// (a) audio context.
	if c.audioCtx != nil {
		_ = c.audioCtx.Close()
		c.audioCtx = nil
	}

	// (b) main router.
	if c.router != nil {
		c.router.Destroy()
		c.router = nil
	}

	// (c) sidecars.
	if c.sidecars != nil {
		c.sidecars.RemoveAll()
		c.sidecars = nil
	}

	// (d) subtitles.
	if c.subtitles != nil {
		c.subtitles.RemoveAll()
	}

	// (e) fire every breaker token (controllerDestroyed included, but we
	// fire it explicitly again at step (h) for ordering clarity; firing
	// twice is safe since breaker.Fire is idempotent via sync.Once).
	c.breakers.fireDestroyed()

	// (f) complete-and-unsubscribe every event stream.
	c.events.closeAll()

	// (g) destroy the active loader: this core holds no direct resources
	// on the loader beyond the reference itself, so dropping it is
	// sufficient (the loader implementation owns its own teardown).
	c.loader = nil

	// (h) controller-destroyed was already fired in (e); confirm it is
	// observably done before returning.
	<-c.breakers.destroyedDone()

	// (i) null remaining internal references.
	c.video = nil
	c.audioTracks = nil
	c.element = nil
	c.audioGraph = nil
	c.subtitles = nil
	c.tickSource = nil

	return nil
}

// IsDestroyed reports whether Destroy has run, used by callers that want
// to short-circuit operations without relying on ErrVideoNotLoaded alone
// (spec §8 invariant 8: "every subsequent call either fails with
// VideoNotLoaded or is a no-op").
func (c *VideoController) IsDestroyed() bool { return c.destroyed }
