package playercore

import (
	"fmt"
	"strconv"

	"github.com/framereview/playercore/internal/audiorouter"
)

// effectsBuilder implements audiorouter.Builder on top of the
// AudioGraphFactory-produced AudioContext, so that
// SetMainAudioEffectsGraph/SetMainAudioEffectsParams (spec §4.6,
// §6 "Router") actually build something instead of always returning
// ErrSlotNotSupported. The effects graph's internal shape is host-defined
// and explicitly out of scope (spec §1); this builder treats an
// EffectsGraphDef as a chain of gain-stage multipliers, the smallest
// concrete graph the AudioContext collaborator can materialize without
// this module inventing its own DSP framework.
type effectsBuilder struct {
	ctx AudioContext
}

// Build constructs def (a []float64 of per-stage gains, or any single
// float64 for a one-stage chain) as a series of connected GainNodes.
func (b effectsBuilder) Build(slot audiorouter.Slot, def audiorouter.EffectsGraphDef) (audiorouter.Handle, error) {
	if b.ctx == nil {
		return nil, fmt.Errorf("effects builder: no audio context available for slot %s", slot)
	}
	gains := asGainChain(def)
	nodes := make([]GainNode, len(gains))
	for i, g := range gains {
		n := b.ctx.NewGainNode()
		n.SetGain(g)
		nodes[i] = n
	}
	for i := 0; i < len(nodes)-1; i++ {
		nodes[i].Connect(nodes[i+1])
	}
	return &effectsHandle{nodes: nodes}, nil
}

func asGainChain(def audiorouter.EffectsGraphDef) []float64 {
	switch v := def.(type) {
	case []float64:
		if len(v) == 0 {
			return []float64{1}
		}
		return v
	case float64:
		return []float64{v}
	default:
		return []float64{1}
	}
}

// effectsHandle is the built graph instance tracked by the router for a
// single slot; Destroy disconnects every stage.
type effectsHandle struct {
	nodes []GainNode
}

// SetParams mutates the gain of the stage named by param, an integer
// stage index, per spec §4.6 "set_effects_params(slot, param, filter?)".
func (h *effectsHandle) SetParams(param string, filter any) error {
	idx, err := strconv.Atoi(param)
	if err != nil || idx < 0 || idx >= len(h.nodes) {
		return fmt.Errorf("effects handle: invalid stage param %q for %d stage(s)", param, len(h.nodes))
	}
	gain, ok := filter.(float64)
	if !ok {
		return fmt.Errorf("effects handle: expected float64 gain, got %T", filter)
	}
	h.nodes[idx].SetGain(gain)
	return nil
}

func (h *effectsHandle) Destroy() error {
	for _, n := range h.nodes {
		n.Disconnect()
	}
	return nil
}
