package scene

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/common"
	"github.com/lumispace/campusview/engine/renderer/material"
)

// HighlightState is the visual emphasis applied to one registered unit.
// Exactly one state is active per unit per tick; when a unit satisfies more
// than one condition the higher value wins.
type HighlightState int

const (
	HighlightNone HighlightState = iota
	HighlightFiltered
	HighlightHovered
	HighlightSelected
)

// String returns the human-readable name of the highlight state.
//
// Returns:
//   - string: the state name
func (s HighlightState) String() string {
	switch s {
	case HighlightSelected:
		return "selected"
	case HighlightHovered:
		return "hovered"
	case HighlightFiltered:
		return "filtered"
	default:
		return "none"
	}
}

// DefaultFadeDuration is the time a highlight takes to fade fully in or out.
const DefaultFadeDuration float32 = 0.8

// entry is one registered scene object and its highlight machine state.
type entry struct {
	key    common.UnitKey
	meshID string

	state        HighlightState
	fadeProgress float32
	visible      bool // highlight overlay visibility, derived from fadeProgress

	original material.Material
	// active is the bound shared highlight material, nil while the original
	// is bound. It is only cleared once fadeProgress returns to exactly 0.
	active material.Material
}

// Snapshot is a read-only copy of one registry entry.
type Snapshot struct {
	Key          common.UnitKey
	MeshID       string
	State        HighlightState
	FadeProgress float32
	Visible      bool
	// Material is the currently bound material: a shared highlight material
	// while a fade is in flight, otherwise the entry's original.
	Material material.Material
}

// Registry owns the mapping from unit keys to loaded scene objects and runs
// the per-object highlight fade machine. Selection, hover, and filter state
// are owned externally; the registry reads the latest values each tick.
// Thread-safe for concurrent access.
type Registry interface {
	// RegisterObject adds a loaded scene object under its unit key. At most
	// one entry may exist per key. Registration is allowed while selection
	// or hover already points at the key; the next Tick begins fading the
	// object in without requiring a new selection event.
	//
	// Parameters:
	//   - key: the unit's composite identity
	//   - meshID: the renderer mesh handle for the unit's geometry
	//   - original: the unit's own material, restored when no highlight is active
	//
	// Returns:
	//   - error: error if an entry for the key already exists
	RegisterObject(key common.UnitKey, meshID string, original material.Material) error

	// Remove deletes the entry for a key and returns its mesh handle so the
	// caller can release the GPU resources. Disposal happens only at removal
	// time; a mesh still referenced by a live entry is never disposed.
	//
	// Parameters:
	//   - key: the unit's composite identity
	//
	// Returns:
	//   - string: the removed entry's mesh handle
	//   - bool: true if an entry existed for the key
	Remove(key common.UnitKey) (string, bool)

	// RemoveMeshes deletes every entry whose mesh handle is in ids. Used
	// after the loader unloads optional assets so the registry and the GPU
	// working set shrink together.
	//
	// Parameters:
	//   - ids: the mesh handles to remove
	//
	// Returns:
	//   - int: the number of entries removed
	RemoveMeshes(ids []string) int

	// SetSelection updates the externally-owned selection state read on the
	// next Tick.
	//
	// Parameters:
	//   - sel: the latest selection, hover, and filter state
	SetSelection(sel common.SelectionState)

	// Tick advances every entry's highlight machine by the elapsed frame
	// time: recompute the highlight state from selection priority, advance
	// fadeProgress toward its target, update overlay visibility, and swap
	// or restore materials.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last tick in seconds
	Tick(deltaTime float32)

	// ResetFades forces every entry back to the unhighlighted rest state:
	// fadeProgress 0, overlay hidden, original material bound. Used during
	// context-loss recovery; the no-discontinuous-jump rule for fades does
	// not apply to this forced reset.
	ResetFades()

	// Entry returns a read-only copy of the entry for a key.
	//
	// Parameters:
	//   - key: the unit's composite identity
	//
	// Returns:
	//   - Snapshot: the entry state
	//   - bool: true if an entry exists for the key
	Entry(key common.UnitKey) (Snapshot, bool)

	// Entries returns a read-only copy of every registered entry, in no
	// particular order.
	//
	// Returns:
	//   - []Snapshot: the entry states
	Entries() []Snapshot

	// Len returns the number of registered entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Clear removes all entries and returns their mesh handles for disposal.
	//
	// Returns:
	//   - []string: the mesh handles of every removed entry
	Clear() []string
}

type registry struct {
	mu *sync.RWMutex

	entries      map[common.UnitKey]*entry
	selection    common.SelectionState
	highlights   *material.HighlightSet
	fadeDuration float32
	logger       *zap.Logger
}

var _ Registry = &registry{}

// NewRegistry creates a new scene asset Registry configured with the provided options.
//
// Parameters:
//   - options: functional options to configure the registry
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu:           &sync.RWMutex{},
		entries:      make(map[common.UnitKey]*entry),
		fadeDuration: DefaultFadeDuration,
		logger:       zap.NewNop(),
	}
	for _, option := range options {
		option(r)
	}
	if r.highlights == nil {
		r.highlights = material.NewHighlightSet()
	}
	return r
}

func (r *registry) RegisterObject(key common.UnitKey, meshID string, original material.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("scene: object already registered for key %s", key)
	}
	r.entries[key] = &entry{
		key:      key,
		meshID:   meshID,
		original: original,
	}
	r.logger.Debug("scene object registered",
		zap.String("key", key.String()),
		zap.String("mesh", meshID),
	)
	return nil
}

func (r *registry) Remove(key common.UnitKey) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	delete(r.entries, key)
	return e.meshID, true
}

func (r *registry) RemoveMeshes(ids []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	removed := 0
	for key, e := range r.entries {
		if _, hit := drop[e.meshID]; hit {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

func (r *registry) SetSelection(sel common.SelectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = sel
}

func (r *registry) Tick(deltaTime float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := deltaTime / r.fadeDuration
	for _, e := range r.entries {
		e.state = r.stateFor(e.key)

		var target float32
		if e.state != HighlightNone {
			target = 1
		}
		e.fadeProgress = common.MoveToward(e.fadeProgress, target, rate)

		// Visibility is settled before any material swap so the overlay
		// never shows for a frame with a stale material bound.
		e.visible = e.fadeProgress > 0

		if e.fadeProgress > 0 {
			if want := r.highlightFor(e.state); want != nil && e.active != want {
				e.active = want
			}
		} else if e.active != nil {
			// Restore the original only once the fade has fully run out,
			// never mid-fade.
			e.active = nil
		}
	}
}

// stateFor computes a key's highlight state from the current selection with
// strict priority: selected beats hovered beats filtered. Hover only applies
// while no selection is active anywhere.
func (r *registry) stateFor(key common.UnitKey) HighlightState {
	if r.selection.HasSelection && r.selection.Selected == key {
		return HighlightSelected
	}
	if !r.selection.HasSelection && r.selection.Hovered != nil && *r.selection.Hovered == key {
		return HighlightHovered
	}
	if _, in := r.selection.ActiveFilter[key]; in {
		return HighlightFiltered
	}
	return HighlightNone
}

func (r *registry) highlightFor(state HighlightState) material.Material {
	switch state {
	case HighlightSelected:
		return r.highlights.Selected
	case HighlightHovered:
		return r.highlights.Hovered
	case HighlightFiltered:
		return r.highlights.Filtered
	default:
		return nil
	}
}

func (r *registry) ResetFades() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.state = HighlightNone
		e.fadeProgress = 0
		e.visible = false
		e.active = nil
	}
}

func (r *registry) Entry(key common.UnitKey) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(e), true
}

func (r *registry) Entries() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, snapshotOf(e))
	}
	return out
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *registry) Clear() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for key, e := range r.entries {
		ids = append(ids, e.meshID)
		delete(r.entries, key)
	}
	return ids
}

func snapshotOf(e *entry) Snapshot {
	mat := e.original
	if e.active != nil {
		mat = e.active
	}
	return Snapshot{
		Key:          e.key,
		MeshID:       e.meshID,
		State:        e.state,
		FadeProgress: e.fadeProgress,
		Visible:      e.visible,
		Material:     mat,
	}
}
