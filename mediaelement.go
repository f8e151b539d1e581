package playercore

import "time"

// MediaElement is the black-box platform media element this core
// drives. It is the Go-idiomatic shape of spec §6's collaborator
// contract, and generalizes the teacher's `videoController` interface
// (controller_interface.go) from a concrete reisen-backed decoder to an
// abstract platform handle: currentTime r/w, play/pause, and an event
// surface the controller subscribes to rather than polls wherever the
// platform supports push notification.
//
// Out of scope per spec §1: this module never implements MediaElement
// itself. A host embeds a DOM shim, an Ebitengine/reisen adapter, or a
// test double (see internal test doubles for the shape expected here).
type MediaElement interface {
	// CurrentTime returns the element's reported position in seconds.
	CurrentTime() float64
	// SetCurrentTime requests a seek to the given position in seconds.
	// Completion is reported asynchronously via OnSeeked.
	SetCurrentTime(seconds float64)

	Play() error
	Pause()

	Duration() float64
	Volume() float64
	SetVolume(float64)
	Muted() bool
	SetMuted(bool)
	PlaybackRate() float64
	SetPlaybackRate(float64)

	Buffered() []BufferedRange

	// Event streams. All fire on the single logical executor (spec §5).
	OnPlaying() *EventStream[struct{}]
	OnPause() *EventStream[struct{}]
	OnSeeking() *EventStream[struct{}]
	OnSeeked() *EventStream[struct{}]
	OnEnded() *EventStream[struct{}]
	OnWaiting() *EventStream[struct{}]
	OnProgress() *EventStream[struct{}]
	OnVolumeChange() *EventStream[struct{}]
	OnRateChange() *EventStream[struct{}]
	OnDurationChange() *EventStream[struct{}]

	// OnFrameTick delivers one FrameTick per rendered frame, when the
	// platform exposes a per-frame callback (requestVideoFrameCallback
	// equivalent). Returns ok=false if unsupported (audio-only or DRM
	// streams), in which case the Sync Tick Source substitutes the
	// worklet-based ticker (spec §4.3, §4.5).
	OnFrameTick() (stream *EventStream[FrameTick], ok bool)
}

// BufferedRange is one contiguous buffered interval, in seconds.
type BufferedRange struct {
	Start float64
	End   float64
}

// FrameTick is one per-rendered-frame callback payload (spec §4.3
// "Inputs").
type FrameTick struct {
	Now             time.Time
	MediaTime       float64
	FrameNumber     uint64
	PresentedFrames uint64
}

// AudioGraphFactory is the external collaborator producing audio nodes
// (spec §6 "An audio graph factory"). Out of scope: this module never
// implements an audio graph itself, only consumes one.
type AudioGraphFactory interface {
	NewContext(sampleRate int) AudioContext
}

// AudioContext is the platform audio context handle.
type AudioContext interface {
	State() AudioContextState
	Resume() error
	Close() error
	DestinationMaxChannelCount() int

	NewGainNode() GainNode
	NewChannelSplitter(channels int) AudioNode
	NewChannelMerger(channels int) AudioNode
	NewMediaElementSource(el MediaElement) AudioNode
	NewWorkletNode(name string, opts any) WorkletNode
}

// AudioContextState mirrors the Web Audio context lifecycle.
type AudioContextState uint8

const (
	AudioContextSuspended AudioContextState = iota
	AudioContextRunning
	AudioContextClosed
)

// AudioNode is an opaque connectable graph node.
type AudioNode interface {
	Connect(dst AudioNode)
	Disconnect()
}

// GainNode is an AudioNode with a controllable gain.
type GainNode interface {
	AudioNode
	SetGain(float64)
	Gain() float64
}

// WorkletNode is an AudioNode whose processor posts messages over Port,
// used by the Sync Tick Source's worklet substitute (spec §4.3, §9
// "Worklet bootstrapping").
type WorkletNode interface {
	AudioNode
	Port() WorkletPort
}

// WorkletPort is the message-passing channel to/from an audio worklet
// processor.
type WorkletPort interface {
	Messages() <-chan WorkletMessage
	Close()
}

// WorkletMessage is one message posted by the worklet processor, once
// per audio render quantum (~50Hz), per spec §4.3.
type WorkletMessage struct {
	QuantumIndex uint64
	Timestamp    time.Time
}
