package playercore

import "sync"

// stateMachine owns the current PlaybackState and applies commands
// through the pure reduceState function, emitting state_changed only
// when the resulting state actually differs (spec §4.2 "fires
// state_changed on any change").
type stateMachine struct {
	mu      sync.Mutex
	current PlaybackState
	changed *EventStream[PlaybackState]
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		changed: NewEventStream[PlaybackState](),
	}
}

// dispatch applies cmd and returns the resulting state. If the state
// changed, state_changed is published.
func (sm *stateMachine) dispatch(cmd stateCommand) PlaybackState {
	sm.mu.Lock()
	prev := sm.current
	next := reduceState(prev, cmd)
	sm.current = next
	sm.mu.Unlock()

	if !prev.Equal(next) {
		sm.changed.Publish(next)
	}
	return next
}

func (sm *stateMachine) snapshot() PlaybackState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

func (sm *stateMachine) isPlaying() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current.Playing
}
