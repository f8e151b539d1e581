package audiorouter

import (
	"context"
	"sync"
)

// PeakStandard selects the meter ballistics (spec §4.6 "peak-sample or
// true-peak standards").
type PeakStandard int

const (
	PeakSample PeakStandard = iota
	TruePeak
)

// PeakSampleValue is one emitted measurement: one value per channel.
type PeakSampleValue struct {
	PeakValuesPerChannel []float64
}

// Source is the collaborator that actually samples audio levels; out of
// scope for this package (it lives on the platform audio graph side).
type Source interface {
	// Sample blocks until the next measurement is ready or ctx is done.
	Sample(ctx context.Context) (PeakSampleValue, error)
}

// PeakProcessor is a sink-only tap producing a lazy stream of peak
// measurements (spec §4.6 "Peak processor").
type PeakProcessor struct {
	standard PeakStandard
	source   Source

	mu   sync.Mutex
	subs map[int]chan PeakSampleValue
	next int

	cancel context.CancelFunc
}

// NewPeakProcessor starts sampling from source in the background.
func NewPeakProcessor(standard PeakStandard, source Source) *PeakProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PeakProcessor{
		standard: standard,
		source:   source,
		subs:     make(map[int]chan PeakSampleValue),
		cancel:   cancel,
	}
	go p.run(ctx)
	return p
}

func (p *PeakProcessor) run(ctx context.Context) {
	for {
		sample, err := p.source.Sample(ctx)
		if err != nil {
			return
		}
		p.mu.Lock()
		for _, ch := range p.subs {
			select {
			case ch <- sample:
			default:
			}
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Subscribe returns a channel of peak measurements and an unsubscribe
// function.
func (p *PeakProcessor) Subscribe() (<-chan PeakSampleValue, func()) {
	p.mu.Lock()
	id := p.next
	p.next++
	ch := make(chan PeakSampleValue, 8)
	p.subs[id] = ch
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if existing, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(existing)
		}
	}
}

// Stop halts sampling and closes every subscriber channel.
func (p *PeakProcessor) Stop() {
	p.cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

// CreatePeakProcessor attaches a new PeakProcessor to the router (spec
// §4.6 "create_peak_processor"), replacing any existing one.
func (r *Router) CreatePeakProcessor(standard PeakStandard, source Source) *PeakProcessor {
	r.mu.Lock()
	prev := r.peak
	p := NewPeakProcessor(standard, source)
	r.peak = p
	r.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	return p
}
