package playercore

// PlaybackState is the single source of truth for the controller's
// lifecycle (spec §3 "PlaybackState", §4.2). At most one of
// {Playing, Paused, Ended} is true at any time. Pausing and
// WaitingSyncedMedia are orthogonal transient flags layered on top.
type PlaybackState struct {
	Playing            bool
	Paused             bool
	Seeking            bool
	Waiting            bool
	Ended              bool
	Pausing            bool
	WaitingSyncedMedia bool
}

// stateCommand is the small closed set of inputs the state reducer
// accepts (spec §9 "Cyclic event coupling" re-architecture note: a
// single state type mutated only via reducer functions from a small set
// of commands, removing the reentrancy of the original event-driven
// design).
type stateCommand interface{ isStateCommand() }

type cmdElementPlaying struct{}
type cmdPauseRequested struct{}
type cmdElementPaused struct{}
type cmdPauseSyncComplete struct{}
type cmdPauseCancelled struct{}
type cmdSeekStarted struct{}
type cmdElementSeeked struct{}
type cmdElementEnded struct{}
type cmdSeekBackwardFromEnded struct{}
type cmdWaitingChanged struct{ Waiting bool }
type cmdWaitingSyncedMediaChanged struct{ Value bool }

func (cmdElementPlaying) isStateCommand()           {}
func (cmdPauseRequested) isStateCommand()           {}
func (cmdElementPaused) isStateCommand()            {}
func (cmdPauseSyncComplete) isStateCommand()        {}
func (cmdPauseCancelled) isStateCommand()           {}
func (cmdSeekStarted) isStateCommand()              {}
func (cmdElementSeeked) isStateCommand()             {}
func (cmdElementEnded) isStateCommand()             {}
func (cmdSeekBackwardFromEnded) isStateCommand()    {}
func (cmdWaitingChanged) isStateCommand()           {}
func (cmdWaitingSyncedMediaChanged) isStateCommand() {}

// reduceState is the pure transition function implementing spec §4.2's
// transition table. It never performs I/O; all platform calls happen
// around it in the state machine's command dispatch.
func reduceState(prev PlaybackState, cmd stateCommand) PlaybackState {
	next := prev
	switch c := cmd.(type) {
	case cmdElementPlaying:
		next.Playing = true
		next.Paused = false
		next.Ended = false
		next.Pausing = false

	case cmdPauseRequested:
		// Pause is requested against a playing element; the public
		// `paused` event does not fire until the pause-sync protocol
		// completes (spec §4.2 "Pause-sync protocol").
		next.Pausing = true

	case cmdElementPaused:
		// The element reported PAUSE, but we have not yet landed on a
		// whole frame boundary: stay in the transient Pausing state
		// until cmdPauseSyncComplete arrives.
		// (No field change; Pausing was already set by cmdPauseRequested.)

	case cmdPauseSyncComplete:
		next.Playing = false
		next.Paused = true
		next.Pausing = false

	case cmdPauseCancelled:
		next.Pausing = false

	case cmdSeekStarted:
		next.Seeking = true

	case cmdElementSeeked:
		next.Seeking = false
		next.Waiting = false

	case cmdElementEnded:
		next.Playing = false
		next.Paused = false
		next.Ended = true

	case cmdSeekBackwardFromEnded:
		next.Ended = false
		next.Paused = true

	case cmdWaitingChanged:
		next.Waiting = c.Waiting

	case cmdWaitingSyncedMediaChanged:
		next.WaitingSyncedMedia = c.Value
	}
	return next
}

// Equal reports whether two PlaybackState values are identical, used to
// suppress redundant state_changed emissions.
func (s PlaybackState) Equal(other PlaybackState) bool {
	return s == other
}
