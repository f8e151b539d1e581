// Package sidecar implements the Sidecar Audio Manager: independent
// audio elements kept time-locked to the main video clock, with their
// own per-track router, effects and peak tap (spec §4.7).
package sidecar

import (
	"errors"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/framereview/playercore/internal/audiorouter"
)

// PlayMode selects whether activating a sidecar silences the others
// (spec §4.7 "audio_play_mode").
type PlayMode int

const (
	Single PlayMode = iota
	Multiple
)

// Track is the minimal track descriptor this package needs; playercore
// maps OmpAudioTrack to/from this shape at the boundary.
type Track struct {
	ID    string
	Label string
}

// Element is the per-sidecar platform audio element collaborator. A
// sidecar's element is independent of the main MediaElement (it may be
// a distinct <audio> tag, or an Ebitengine audio.Player on a second
// stream) but must expose the same transport primitives.
type Element interface {
	SetCurrentTime(seconds float64)
	CurrentTime() float64
	Play() error
	Pause()
	SetVolume(float64)
	Volume() float64
	SetMuted(bool)
	Muted() bool
}

// ErrNotFound mirrors spec §7's AudioFailure.SidecarNotFound.
var ErrNotFound = errors.New("sidecar: track not found")

// Sidecar is one registered sidecar: its track, activation, volume and
// mute state, platform element and per-sidecar router. The half-frame
// drift tolerance for corrective seeks is passed by the owner to
// OnMainPlay/OnMainTimeChanged on each call, not stored here.
type Sidecar struct {
	ID      string
	Track   Track
	Active  bool
	Volume  float64
	Muted   bool
	Element Element
	Router  *audiorouter.Router

	buffering bool
}

// Manager owns the sidecar map and enforces audio_play_mode discipline.
type Manager struct {
	mu       sync.Mutex
	mode     PlayMode
	sidecars map[string]*Sidecar
	order    []string // insertion order, for stable iteration

	onBuffering            func(id string, buffering bool)
	onWaitingSyncedChanged func(bool)
	routerBuilder          audiorouter.Builder
}

// New constructs an empty Manager. routerBuilder is passed through to
// every per-sidecar audiorouter.Router it creates (spec §4.7 "Each
// sidecar has its own router with the same contract as §4.6", which
// includes the effects-insert slot model, not just the connection
// matrix); it may be nil when no audio context is available.
func New(mode PlayMode, onBuffering func(id string, buffering bool), onWaitingSyncedChanged func(bool), routerBuilder audiorouter.Builder) *Manager {
	return &Manager{
		mode:                   mode,
		sidecars:               make(map[string]*Sidecar),
		onBuffering:            onBuffering,
		onWaitingSyncedChanged: onWaitingSyncedChanged,
		routerBuilder:          routerBuilder,
	}
}

// SetMode changes audio_play_mode.
func (m *Manager) SetMode(mode PlayMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// Create allocates a sidecar, keyed by id, with its own router (spec
// §4.7 steps 1-3: the caller allocates the element and loads its source
// before passing it in, connect to the mixer is modeled by
// the returned per-sidecar Router already existing).
func (m *Manager) Create(id string, track Track, element Element, hardwareMaxOutputs func() int) *Sidecar {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Sidecar{
		ID:      id,
		Track:   track,
		Volume:  1.0,
		Element: element,
		Router:  audiorouter.New(2, 2, hardwareMaxOutputs, m.routerBuilder),
	}
	if _, exists := m.sidecars[id]; !exists {
		m.order = append(m.order, id)
	}
	m.sidecars[id] = s
	return s
}

// Remove deletes a sidecar. Removal cancels all per-sidecar
// subscriptions by virtue of the caller discarding the returned handles;
// this package holds no subscriptions of its own (spec §3 "Lifecycles").
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sidecars[id]; ok {
		s.Router.Destroy()
		delete(m.sidecars, id)
		m.order = removeString(m.order, id)
	}
}

// RemoveAll tears down every sidecar.
func (m *Manager) RemoveAll() {
	m.mu.Lock()
	ids := append([]string(nil), m.order...)
	m.mu.Unlock()
	for _, id := range ids {
		m.Remove(id)
	}
}

// Get returns the sidecar for id, or ErrNotFound.
func (m *Manager) Get(id string) (*Sidecar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sidecars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sidecars in creation order.
func (m *Manager) List() []*Sidecar {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Sidecar, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sidecars[id])
	}
	return out
}

// Activate turns on the named sidecars (or all, if ids is empty). Under
// Single mode, activating any sidecar deactivates main audio and every
// other sidecar (spec §4.7 "audio_play_mode"); the caller is responsible
// for silencing main audio (this package has no reference to it) via the
// deactivateMain return value.
func (m *Manager) Activate(ids []string, deactivateOthers bool) (deactivateMain bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	targets := ids
	if len(targets) == 0 {
		targets = append([]string(nil), m.order...)
	}
	for _, id := range targets {
		if _, ok := m.sidecars[id]; !ok {
			return false, ErrNotFound
		}
	}

	single := m.mode == Single
	if single || deactivateOthers {
		for id, s := range m.sidecars {
			if !contains(targets, id) {
				s.Active = false
				if single {
					// Single mode silences every other sidecar outright
					// (spec §4.7 "activating any sidecar deactivates main
					// audio and all other sidecars"), not merely pausing
					// them.
					s.Muted = true
					if s.Element != nil {
						s.Element.SetMuted(true)
					}
				}
				if s.Element != nil {
					s.Element.Pause()
				}
			}
		}
	}
	for _, id := range targets {
		m.sidecars[id].Active = true
	}

	return single, nil
}

// Deactivate turns off the named sidecars (or all, if ids is empty).
func (m *Manager) Deactivate(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := ids
	if len(targets) == 0 {
		targets = append([]string(nil), m.order...)
	}
	for _, id := range targets {
		if s, ok := m.sidecars[id]; ok {
			s.Active = false
			if s.Element != nil {
				s.Element.Pause()
			}
		}
	}
}

// ActiveCount returns how many sidecars are currently active
// (spec §8 invariant 7: "∑ active == 1" under Single mode).
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sidecars {
		if s.Active {
			n++
		}
	}
	return n
}

// SetVolume, SetMuted, Mute, Unmute are independent controls (spec §3
// "active == !muted is not guaranteed; they are independent").
func (m *Manager) SetVolume(id string, v float64) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Volume = v
	if s.Element != nil {
		s.Element.SetVolume(v)
	}
	return nil
}

func (m *Manager) SetMuted(id string, muted bool) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Muted = muted
	if s.Element != nil {
		s.Element.SetMuted(muted)
	}
	return nil
}

func (m *Manager) Mute(id string) error   { return m.SetMuted(id, true) }
func (m *Manager) Unmute(id string) error { return m.SetMuted(id, false) }

// OnMainPlay implements spec §4.7 step 4: every active sidecar sets its
// own currentTime to the main video's position, then starts; drift
// beyond half a frame triggers a corrective seek. Sidecars are started
// concurrently via errgroup rather than one-by-one, since each
// element's Play() is an independent platform call and a slow one
// should not delay the others from starting in near-lockstep.
func (m *Manager) OnMainPlay(mainTime float64, halfFrameSeconds float64) {
	sidecars := m.activeSidecars()

	var g errgroup.Group
	for _, s := range sidecars {
		s := s
		if s.Element == nil {
			continue
		}
		g.Go(func() error {
			drift := math.Abs(s.Element.CurrentTime() - mainTime)
			if drift > halfFrameSeconds {
				s.Element.SetCurrentTime(mainTime)
			}
			if err := s.Element.Play(); err != nil {
				m.setBuffering(s, true)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// OnMainPause pauses every active sidecar to keep them time-locked.
func (m *Manager) OnMainPause() {
	for _, s := range m.activeSidecars() {
		if s.Element != nil {
			s.Element.Pause()
		}
	}
}

// OnMainTimeChanged re-synchronizes active sidecars whose drift from the
// main clock exceeds half a frame.
func (m *Manager) OnMainTimeChanged(mainTime float64, halfFrameSeconds float64) {
	for _, s := range m.activeSidecars() {
		if s.Element == nil {
			continue
		}
		drift := math.Abs(s.Element.CurrentTime() - mainTime)
		if drift > halfFrameSeconds {
			s.Element.SetCurrentTime(mainTime)
		}
	}
}

// setBuffering records whether a sidecar cannot currently satisfy a seek
// within one frame (spec §4.7 step 5), and recomputes whether
// waitingSyncedMedia should be true on the main controller.
func (m *Manager) setBuffering(s *Sidecar, buffering bool) {
	m.mu.Lock()
	changed := s.buffering != buffering
	s.buffering = buffering
	anyBuffering := false
	for _, other := range m.sidecars {
		if other.buffering {
			anyBuffering = true
			break
		}
	}
	m.mu.Unlock()

	if changed && m.onBuffering != nil {
		m.onBuffering(s.ID, buffering)
	}
	if m.onWaitingSyncedChanged != nil {
		m.onWaitingSyncedChanged(anyBuffering)
	}
}

// SetBuffering is the externally-driven equivalent of setBuffering, used
// when the owner observes a sidecar element's own waiting/stalled event.
func (m *Manager) SetBuffering(id string, buffering bool) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	m.setBuffering(s, buffering)
	return nil
}

func (m *Manager) activeSidecars() []*Sidecar {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Sidecar, 0, len(m.order))
	for _, id := range m.order {
		if s := m.sidecars[id]; s.Active {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
