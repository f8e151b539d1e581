// Package subtitles implements the registry of VTT tracks with
// at-most-one active track (spec §4.8 "Subtitles & Text-track Manager").
package subtitles

import "sync"

// Track mirrors playercore.SubtitlesVttTrack; kept independent to avoid
// an import cycle, with conversion done at the playercore boundary.
type Track struct {
	ID       string
	Label    string
	Language string
	URL      string
	Default  bool
	Hidden   bool
}

// DOMHandle is the collaborator that actually mutates the platform's
// text-track list (spec §5 "The subtitle track list in the DOM is
// mutated only by the Subtitles Manager"). Out of scope: this package
// never touches the DOM itself.
type DOMHandle interface {
	Add(t Track)
	Remove(id string)
	SetHidden(id string, hidden bool)
}

// Registry is the subtitle track registry.
type Registry struct {
	mu     sync.Mutex
	tracks map[string]*Track
	order  []string
	active string // "" means none active
	dom    DOMHandle
}

// New constructs an empty Registry.
func New(dom DOMHandle) *Registry {
	return &Registry{tracks: make(map[string]*Track), dom: dom}
}

// Create registers t. A create for an existing id first removes the old
// entry (spec §4.8: "a create for an existing id first removes the old
// entry"). A default:true track triggers an auto-show, demoting any
// previously default track.
func (r *Registry) Create(t Track) {
	r.mu.Lock()
	if _, exists := r.tracks[t.ID]; exists {
		r.removeLocked(t.ID)
	}

	cp := t
	r.tracks[t.ID] = &cp
	r.order = append(r.order, t.ID)
	if r.dom != nil {
		r.dom.Add(cp)
	}
	shouldShow := t.Default
	r.mu.Unlock()

	if shouldShow {
		r.Show(t.ID)
	}
}

// Remove deletes the track with id. Idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) {
	if _, ok := r.tracks[id]; !ok {
		return
	}
	delete(r.tracks, id)
	r.order = removeString(r.order, id)
	if r.active == id {
		r.active = ""
	}
	if r.dom != nil {
		r.dom.Remove(id)
	}
}

// RemoveAll clears the registry.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	ids := append([]string(nil), r.order...)
	r.mu.Unlock()
	for _, id := range ids {
		r.Remove(id)
	}
}

// Show makes id the exclusive active track; every other track is moved
// to hidden (spec §4.8: "show(id) (implicit exclusive)"). Idempotent.
func (r *Registry) Show(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tracks[id]; !ok {
		return
	}
	for trackID, t := range r.tracks {
		hidden := trackID != id
		if t.Hidden != hidden {
			t.Hidden = hidden
			if r.dom != nil {
				r.dom.SetHidden(trackID, hidden)
			}
		}
	}
	r.active = id
}

// Hide demotes id to hidden. If id was the active track, there is no
// longer any active track. Idempotent.
func (r *Registry) Hide(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return
	}
	if !t.Hidden {
		t.Hidden = true
		if r.dom != nil {
			r.dom.SetHidden(id, true)
		}
	}
	if r.active == id {
		r.active = ""
	}
}

// List returns all tracks in creation order.
func (r *Registry) List() []Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Track, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tracks[id])
	}
	return out
}

// Active returns the currently active track, if any.
func (r *Registry) Active() (Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" {
		return Track{}, false
	}
	return *r.tracks[r.active], true
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
