// Package audiorouter implements the in/out channel connection matrix
// between a media element's audio source and the output bus, including
// solo/mute discipline, effects-insert slots and a peak-meter tap (spec
// §4.6 "Audio Router"). The same type backs both the main router and
// every sidecar's per-track router (spec §4.7).
package audiorouter

import (
	"fmt"
	"sort"
	"sync"
)

// Slot names the three effects-insertion points (spec §4.6).
type Slot int

const (
	SlotSource Slot = iota
	SlotRouter
	SlotDestination
)

func (s Slot) String() string {
	switch s {
	case SlotSource:
		return "source"
	case SlotRouter:
		return "router"
	case SlotDestination:
		return "destination"
	default:
		return "unknown"
	}
}

// Connection is one (input, output) cell and whether it is connected.
type Connection struct {
	In        int
	Out       int
	Connected bool
}

// EffectsGraphDef is an opaque, host-defined effects chain description.
// This package never interprets it; it only tracks which def currently
// occupies each slot and builds/tears it down through the Builder
// collaborator.
type EffectsGraphDef any

// Builder is the collaborator that actually builds/connects/destroys an
// effects graph for a slot (the router has no opinion on what an
// "effects graph" is made of -- out of scope per spec §1).
type Builder interface {
	Build(slot Slot, def EffectsGraphDef) (Handle, error)
}

// Handle is a built effects graph instance.
type Handle interface {
	SetParams(param string, filter any) error
	Destroy() error
}

// State is the public snapshot of a Router (spec §3 "AudioRouterState",
// extended with Solo/Muted so §8 invariants 6-7 are directly checkable).
type State struct {
	Inputs      int
	Outputs     int
	Connections []Connection
	EffectSlots map[Slot]EffectsGraphDef
	Solo        []int
	Muted       []int
}

// Router is the I x O boolean connection matrix plus solo/mute and
// effects-insert bookkeeping.
type Router struct {
	mu sync.Mutex

	inputs, outputs int
	connected       map[[2]int]bool

	solo         map[int]bool
	muted        map[int]bool
	restoredMute map[int]bool // captured mute set when the first solo engages
	anySolo      bool

	effectDefs    map[Slot]EffectsGraphDef
	effectHandles map[Slot]Handle
	installing    map[Slot]bool

	builder Builder
	peak    *PeakProcessor
}

// ErrConcurrentEffectsInstall and ErrSlotNotSupported mirror spec §7's
// AudioFailure kind.
var (
	ErrConcurrentEffectsInstall = fmt.Errorf("audiorouter: concurrent effects graph install for slot")
	ErrSlotNotSupported         = fmt.Errorf("audiorouter: slot not supported")
)

// New creates a router with the given input count. If outputs <= 0, it
// is resolved via hardwareMaxOutputs (spec §4.6 "outputs defaults via a
// resolver given hardware max"). Default routing is diagonal up to
// min(inputs, outputs).
func New(inputs, outputs int, hardwareMaxOutputs func() int, builder Builder) *Router {
	if outputs <= 0 {
		if hardwareMaxOutputs != nil {
			outputs = hardwareMaxOutputs()
		}
		if outputs <= 0 {
			outputs = inputs
		}
	}

	r := &Router{
		inputs:        inputs,
		outputs:       outputs,
		connected:     make(map[[2]int]bool),
		solo:          make(map[int]bool),
		muted:         make(map[int]bool),
		effectDefs:    make(map[Slot]EffectsGraphDef),
		effectHandles: make(map[Slot]Handle),
		installing:    make(map[Slot]bool),
		builder:       builder,
	}

	diag := inputs
	if outputs < diag {
		diag = outputs
	}
	for i := 0; i < diag; i++ {
		r.connected[[2]int{i, i}] = true
	}
	return r
}

// UpdateConnections replaces the full connection list (spec §4.6
// "update_connections(list)").
func (r *Router) UpdateConnections(conns []Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = make(map[[2]int]bool, len(conns))
	for _, c := range conns {
		if c.Connected {
			r.connected[[2]int{c.In, c.Out}] = true
		}
	}
}

// ToggleSolo flips the solo flag for input. Engaging the first solo
// captures the current mute set as the "restored" set; disengaging the
// last solo restores it verbatim (spec §4.6 "Solo/mute semantics").
func (r *Router) ToggleSolo(input int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasAnySolo := r.anySolo
	if !wasAnySolo {
		r.restoredMute = make(map[int]bool, len(r.muted))
		for k, v := range r.muted {
			r.restoredMute[k] = v
		}
	}

	r.solo[input] = !r.solo[input]
	if !r.solo[input] {
		delete(r.solo, input)
	}
	r.anySolo = len(r.solo) > 0

	if wasAnySolo && !r.anySolo {
		r.muted = r.restoredMute
		r.restoredMute = nil
	}
}

// ToggleMute flips the mute flag for input, including while a solo is
// masking its effect. Disengaging the last solo replaces the mute set
// with the one captured when the solo began, so toggles made while a
// solo was engaged do not survive it.
func (r *Router) ToggleMute(input int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted[input] = !r.muted[input]
	if !r.muted[input] {
		delete(r.muted, input)
	}
}

// IsInputAudible reports whether input should currently produce sound,
// applying the solo-overrides-mute rule (spec §4.6): if any input is
// soloed, every non-soloed input is silent regardless of its own mute
// flag; otherwise each input's own mute flag applies.
func (r *Router) IsInputAudible(input int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.anySolo {
		return r.solo[input]
	}
	return !r.muted[input]
}

// State returns a snapshot of the router's current configuration.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]Connection, 0, len(r.connected))
	for cell, connected := range r.connected {
		conns = append(conns, Connection{In: cell[0], Out: cell[1], Connected: connected})
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].In != conns[j].In {
			return conns[i].In < conns[j].In
		}
		return conns[i].Out < conns[j].Out
	})

	effects := make(map[Slot]EffectsGraphDef, len(r.effectDefs))
	for k, v := range r.effectDefs {
		effects[k] = v
	}

	solo := make([]int, 0, len(r.solo))
	for k := range r.solo {
		solo = append(solo, k)
	}
	sort.Ints(solo)

	muted := make([]int, 0, len(r.muted))
	for k := range r.muted {
		muted = append(muted, k)
	}
	sort.Ints(muted)

	return State{
		Inputs:      r.inputs,
		Outputs:     r.outputs,
		Connections: conns,
		EffectSlots: effects,
		Solo:        solo,
		Muted:       muted,
	}
}

// SetEffectsGraph builds and atomically replaces the effects graph in
// slot. Only one concurrent install per slot is permitted; an
// overlapping call fails with ErrConcurrentEffectsInstall (spec §4.6).
func (r *Router) SetEffectsGraph(slot Slot, def EffectsGraphDef) error {
	r.mu.Lock()
	if r.installing[slot] {
		r.mu.Unlock()
		return ErrConcurrentEffectsInstall
	}
	r.installing[slot] = true
	builder := r.builder
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.installing[slot] = false
		r.mu.Unlock()
	}()

	if builder == nil {
		return ErrSlotNotSupported
	}
	handle, err := builder.Build(slot, def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	prev := r.effectHandles[slot]
	r.effectHandles[slot] = handle
	r.effectDefs[slot] = def
	r.mu.Unlock()

	if prev != nil {
		_ = prev.Destroy()
	}
	return nil
}

// RemoveEffectsGraph tears down whatever occupies slot, if anything.
func (r *Router) RemoveEffectsGraph(slot Slot) error {
	r.mu.Lock()
	handle := r.effectHandles[slot]
	delete(r.effectHandles, slot)
	delete(r.effectDefs, slot)
	r.mu.Unlock()

	if handle != nil {
		return handle.Destroy()
	}
	return nil
}

// SetEffectsParams mutates live parameters on whatever effects graph
// currently occupies slot (spec §4.6 "set_effects_params").
func (r *Router) SetEffectsParams(slot Slot, param string, filter any) error {
	r.mu.Lock()
	handle := r.effectHandles[slot]
	r.mu.Unlock()
	if handle == nil {
		return ErrSlotNotSupported
	}
	return handle.SetParams(param, filter)
}

// Destroy tears down every effects graph and the peak processor.
func (r *Router) Destroy() {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.effectHandles))
	for _, h := range r.effectHandles {
		handles = append(handles, h)
	}
	r.effectHandles = make(map[Slot]Handle)
	r.effectDefs = make(map[Slot]EffectsGraphDef)
	peak := r.peak
	r.peak = nil
	r.mu.Unlock()

	for _, h := range handles {
		_ = h.Destroy()
	}
	if peak != nil {
		peak.Stop()
	}
}
