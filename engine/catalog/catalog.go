// Package catalog defines the closed-world asset catalog the progressive
// loader works through: a fixed, priority-ordered list of environment models
// plus the per-unit model set, supplied from build-time data and read-only
// apart from each asset's load status.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// LoadStatus is the lifecycle state of one catalog asset. It only ever moves
// forward: pending → loading → loaded or error. It never regresses within a
// session; a full restart rebuilds the catalog from scratch.
type LoadStatus int

const (
	StatusPending LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusError
)

// String returns the status label used in logs.
func (s LoadStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return "error"
	}
}

// resolved reports whether the status is terminal.
func (s LoadStatus) resolved() bool {
	return s == StatusLoaded || s == StatusError
}

// Bucket is the on-demand gating tier of a unit asset. Essential assets
// always load; important and optional assets are budget-gated on mobile.
type Bucket int

const (
	BucketEssential Bucket = iota
	BucketImportant
	BucketOptional
)

// String returns the bucket label used in logs.
func (b Bucket) String() string {
	switch b {
	case BucketEssential:
		return "essential"
	case BucketImportant:
		return "important"
	default:
		return "optional"
	}
}

// Asset is one catalog entry. Identity is ID; Path, Priority and Bucket are
// fixed at catalog construction. Status is the only mutable field and is
// transitioned exclusively through Catalog.Transition.
type Asset struct {
	// ID is the stable asset identity, e.g. "env/terrain" or "T/2/210".
	ID string `json:"id"`
	// Path is the model file location relative to the asset root.
	Path string `json:"path"`
	// Priority orders environment loading; lower loads first.
	Priority int `json:"priority"`
	// Bucket is the on-demand gating tier. Ignored for environment assets.
	Bucket Bucket `json:"bucket"`

	status LoadStatus
}

// Catalog owns the full asset set for a session. The set is closed-world:
// assets are never added or removed after construction, only their load
// status advances. Safe for concurrent use.
type Catalog struct {
	mu sync.RWMutex

	environment []*Asset
	units       map[string]*Asset
	byID        map[string]*Asset
}

// catalogFile is the build-time JSON shape the catalog is parsed from.
type catalogFile struct {
	Environment []Asset `json:"environment"`
	Units       []Asset `json:"units"`
}

// New assembles a catalog from environment and unit asset lists. Environment
// assets are sorted by ascending priority. Duplicate ids are rejected.
//
// Parameters:
//   - environment: the ordered environment asset list
//   - units: the on-demand unit asset list
//
// Returns:
//   - *Catalog: the assembled catalog
//   - error: error if an id appears more than once
func New(environment, units []Asset) (*Catalog, error) {
	c := &Catalog{
		units: make(map[string]*Asset, len(units)),
		byID:  make(map[string]*Asset, len(environment)+len(units)),
	}
	for i := range environment {
		a := environment[i]
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate asset id %q", a.ID)
		}
		entry := &a
		c.environment = append(c.environment, entry)
		c.byID[a.ID] = entry
	}
	sort.SliceStable(c.environment, func(i, j int) bool {
		return c.environment[i].Priority < c.environment[j].Priority
	})
	for i := range units {
		a := units[i]
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate asset id %q", a.ID)
		}
		entry := &a
		c.units[a.ID] = entry
		c.byID[a.ID] = entry
	}
	return c, nil
}

// Parse builds a catalog from its build-time JSON representation.
//
// Parameters:
//   - data: the catalog JSON bytes
//
// Returns:
//   - *Catalog: the parsed catalog
//   - error: error if the JSON is malformed or contains duplicate ids
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Environment, file.Units)
}

// Environment returns the environment assets in ascending priority order.
// The slice is a copy; the assets are shared.
//
// Returns:
//   - []*Asset: the ordered environment assets
func (c *Catalog) Environment() []*Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Asset, len(c.environment))
	copy(out, c.environment)
	return out
}

// Unit looks up an on-demand unit asset by id.
//
// Parameters:
//   - id: the asset id
//
// Returns:
//   - *Asset: the asset, or nil if the id is not a unit asset
func (c *Catalog) Unit(id string) *Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.units[id]
}

// Transition advances an asset's load status. Only forward transitions are
// permitted: pending → loading → loaded/error. Anything else is a programming
// error and is rejected so a bug cannot silently rewind an asset's lifecycle.
//
// Parameters:
//   - id: the asset id
//   - to: the status to advance to
//
// Returns:
//   - error: error if the id is unknown or the transition would regress
func (c *Catalog) Transition(id string, to LoadStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("unknown asset id %q", id)
	}
	if to <= a.status || a.status.resolved() {
		return fmt.Errorf("asset %q: illegal status transition %s → %s", id, a.status, to)
	}
	a.status = to
	return nil
}

// Status returns an asset's current load status. Status reads share the
// catalog lock with Transition, so a status observed here is never torn by a
// concurrent transition.
//
// Parameters:
//   - id: the asset id
//
// Returns:
//   - LoadStatus: the current status, or StatusPending for an unknown id
func (c *Catalog) Status(id string) LoadStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, ok := c.byID[id]; ok {
		return a.status
	}
	return StatusPending
}

// ResolvedCount reports how many environment assets are resolved (loaded or
// errored). Consumers reveal progressively more of the environment as this
// count rises.
//
// Returns:
//   - int: the number of resolved environment assets
func (c *Catalog) ResolvedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, a := range c.environment {
		if a.status.resolved() {
			n++
		}
	}
	return n
}

// UnitIDs returns the ids of all unit assets, in no particular order.
//
// Returns:
//   - []string: the unit asset ids
func (c *Catalog) UnitIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.units))
	for id := range c.units {
		out = append(out, id)
	}
	return out
}
