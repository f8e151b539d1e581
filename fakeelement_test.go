package playercore

import (
	"math/big"
	"sync"

	"github.com/framereview/playercore/internal/timecode"
)

// fakeElement is a minimal in-memory MediaElement test double: setting
// currentTime or play/pause state synchronously fires the matching
// event stream, standing in for the platform's asynchronous callbacks.
type fakeElement struct {
	mu           sync.Mutex
	currentTime  float64
	duration     float64
	playing      bool
	volume       float64
	muted        bool
	playbackRate float64
	playErr      error

	onPlaying        *EventStream[struct{}]
	onPause          *EventStream[struct{}]
	onSeeking        *EventStream[struct{}]
	onSeeked         *EventStream[struct{}]
	onEnded          *EventStream[struct{}]
	onWaiting        *EventStream[struct{}]
	onProgress       *EventStream[struct{}]
	onVolumeChange   *EventStream[struct{}]
	onRateChange     *EventStream[struct{}]
	onDurationChange *EventStream[struct{}]
}

func newFakeElement(duration float64) *fakeElement {
	return &fakeElement{
		duration:         duration,
		volume:           1.0,
		playbackRate:     1.0,
		onPlaying:        NewEventStream[struct{}](),
		onPause:          NewEventStream[struct{}](),
		onSeeking:        NewEventStream[struct{}](),
		onSeeked:         NewEventStream[struct{}](),
		onEnded:          NewEventStream[struct{}](),
		onWaiting:        NewEventStream[struct{}](),
		onProgress:       NewEventStream[struct{}](),
		onVolumeChange:   NewEventStream[struct{}](),
		onRateChange:     NewEventStream[struct{}](),
		onDurationChange: NewEventStream[struct{}](),
	}
}

func (f *fakeElement) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime
}

func (f *fakeElement) SetCurrentTime(seconds float64) {
	f.mu.Lock()
	f.currentTime = seconds
	f.mu.Unlock()
	f.onSeeked.Publish(struct{}{})
}

func (f *fakeElement) Play() error {
	f.mu.Lock()
	err := f.playErr
	if err == nil {
		f.playing = true
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.onPlaying.Publish(struct{}{})
	return nil
}

func (f *fakeElement) Pause() {
	f.mu.Lock()
	f.playing = false
	f.mu.Unlock()
	f.onPause.Publish(struct{}{})
}

func (f *fakeElement) Duration() float64 { return f.duration }

func (f *fakeElement) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeElement) SetVolume(v float64) {
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
	f.onVolumeChange.Publish(struct{}{})
}

func (f *fakeElement) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeElement) SetMuted(m bool) {
	f.mu.Lock()
	f.muted = m
	f.mu.Unlock()
	f.onVolumeChange.Publish(struct{}{})
}

func (f *fakeElement) PlaybackRate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playbackRate
}

func (f *fakeElement) SetPlaybackRate(r float64) {
	f.mu.Lock()
	f.playbackRate = r
	f.mu.Unlock()
	f.onRateChange.Publish(struct{}{})
}

func (f *fakeElement) Buffered() []BufferedRange { return nil }

func (f *fakeElement) OnPlaying() *EventStream[struct{}]        { return f.onPlaying }
func (f *fakeElement) OnPause() *EventStream[struct{}]          { return f.onPause }
func (f *fakeElement) OnSeeking() *EventStream[struct{}]        { return f.onSeeking }
func (f *fakeElement) OnSeeked() *EventStream[struct{}]         { return f.onSeeked }
func (f *fakeElement) OnEnded() *EventStream[struct{}]          { return f.onEnded }
func (f *fakeElement) OnWaiting() *EventStream[struct{}]        { return f.onWaiting }
func (f *fakeElement) OnProgress() *EventStream[struct{}]       { return f.onProgress }
func (f *fakeElement) OnVolumeChange() *EventStream[struct{}]   { return f.onVolumeChange }
func (f *fakeElement) OnRateChange() *EventStream[struct{}]     { return f.onRateChange }
func (f *fakeElement) OnDurationChange() *EventStream[struct{}] { return f.onDurationChange }

// OnFrameTick reports unsupported, exercising the worklet-substitute
// path through internal/tick.NewWorkletSource.
func (f *fakeElement) OnFrameTick() (*EventStream[FrameTick], bool) { return nil, false }

// fakeLoader is a VideoLoader test double returning a fixed video.
type fakeLoader struct {
	mu         sync.Mutex
	calls      int
	video      *Video
	audio      []OmpAudioTrack
	subtitles  []SubtitlesVttTrack
	err        error
	onAudio    *EventStream[[]OmpAudioTrack]
	onSwitch   *EventStream[OmpAudioTrack]
	onSubs     *EventStream[[]SubtitlesVttTrack]
	onNamed    *EventStream[NamedEvent]
}

func newFakeLoader(video *Video) *fakeLoader {
	return &fakeLoader{
		video:    video,
		onAudio:  NewEventStream[[]OmpAudioTrack](),
		onSwitch: NewEventStream[OmpAudioTrack](),
		onSubs:   NewEventStream[[]SubtitlesVttTrack](),
		onNamed:  NewEventStream[NamedEvent](),
	}
}

func (l *fakeLoader) Load(url string, options LoadOptions) (*Video, []OmpAudioTrack, []SubtitlesVttTrack, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if l.err != nil {
		return nil, nil, nil, l.err
	}
	v := *l.video
	v.SourceURL = url
	return &v, l.audio, l.subtitles, nil
}

func (l *fakeLoader) OnAudioLoaded() *EventStream[[]OmpAudioTrack]       { return l.onAudio }
func (l *fakeLoader) OnAudioSwitched() *EventStream[OmpAudioTrack]       { return l.onSwitch }
func (l *fakeLoader) OnSubtitlesLoaded() *EventStream[[]SubtitlesVttTrack] { return l.onSubs }
func (l *fakeLoader) OnNamedEvent() *EventStream[NamedEvent]             { return l.onNamed }
func (l *fakeLoader) SetActiveAudioTrack(id string) error                { return nil }
func (l *fakeLoader) ExportAudioTrack(id string) (OmpAudioTrack, error) {
	return OmpAudioTrack{}, nil
}

// fakeAudioGraph/fakeAudioContext/fakeGainNode are the minimal
// AudioGraphFactory test doubles needed to exercise effectsBuilder
// (effects.go) end to end through the public controller API, instead
// of only through internal/audiorouter's own fakeHandle/blockingBuilder.
type fakeAudioGraph struct{}

func (fakeAudioGraph) NewContext(sampleRate int) AudioContext { return &fakeAudioContext{} }

type fakeAudioContext struct {
	state AudioContextState
}

func (c *fakeAudioContext) State() AudioContextState         { return c.state }
func (c *fakeAudioContext) Resume() error                    { c.state = AudioContextRunning; return nil }
func (c *fakeAudioContext) Close() error                     { c.state = AudioContextClosed; return nil }
func (c *fakeAudioContext) DestinationMaxChannelCount() int  { return 2 }
func (c *fakeAudioContext) NewGainNode() GainNode             { return &fakeGainNode{gain: 1} }
func (c *fakeAudioContext) NewChannelSplitter(channels int) AudioNode { return &fakeAudioNode{} }
func (c *fakeAudioContext) NewChannelMerger(channels int) AudioNode  { return &fakeAudioNode{} }
func (c *fakeAudioContext) NewMediaElementSource(el MediaElement) AudioNode {
	return &fakeAudioNode{}
}
func (c *fakeAudioContext) NewWorkletNode(name string, opts any) WorkletNode {
	return &fakeWorkletNode{port: &fakeWorkletPort{ch: make(chan WorkletMessage)}}
}

type fakeAudioNode struct {
	connectedTo AudioNode
	disconnected bool
}

func (n *fakeAudioNode) Connect(dst AudioNode) { n.connectedTo = dst }
func (n *fakeAudioNode) Disconnect()           { n.disconnected = true }

type fakeGainNode struct {
	fakeAudioNode
	gain float64
}

func (n *fakeGainNode) SetGain(g float64) { n.gain = g }
func (n *fakeGainNode) Gain() float64     { return n.gain }

type fakeWorkletNode struct {
	fakeAudioNode
	port *fakeWorkletPort
}

func (n *fakeWorkletNode) Port() WorkletPort { return n.port }

type fakeWorkletPort struct {
	ch chan WorkletMessage
}

func (p *fakeWorkletPort) Messages() <-chan WorkletMessage { return p.ch }
func (p *fakeWorkletPort) Close()                          { close(p.ch) }

func testVideo(seconds float64, fps int64) *Video {
	fr := timecode.NewFrameRate(fps, 1)
	dur := new(big.Rat).SetFloat64(seconds)
	total := uint64(seconds * float64(fps))
	return &Video{
		SourceURL:     "test://video",
		FrameRate:     fr,
		Duration:      dur,
		TotalFrames:   total,
		FrameDuration: fr.FrameDuration(),
	}
}
