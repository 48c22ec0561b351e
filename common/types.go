// package common contains common types that are used throughout this viewer. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"strings"
)

// UnitKey identifies one leasable unit model in the scene: building, floor and
// unit number combined into a stable composite identity. It is the key under
// which loaded models are registered and the identity selection/hover state
// refers to.
type UnitKey struct {
	// Building is the building code, e.g. "T" or "North".
	Building string
	// Floor is the floor number within the building.
	Floor int
	// Unit is the unit designation on the floor, e.g. "200" or "210A".
	Unit string
}

// String renders the key as "building/floor/unit", the form used in logs and
// asset ids.
//
// Returns:
//   - string: the composite key string
func (k UnitKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Building, k.Floor, k.Unit)
}

// ParseUnitKey parses a "building/floor/unit" string back into a UnitKey.
//
// Parameters:
//   - s: the composite key string
//
// Returns:
//   - UnitKey: the parsed key
//   - error: error if the string is not in building/floor/unit form
func ParseUnitKey(s string) (UnitKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return UnitKey{}, fmt.Errorf("malformed unit key %q: want building/floor/unit", s)
	}
	var floor int
	if _, err := fmt.Sscanf(parts[1], "%d", &floor); err != nil {
		return UnitKey{}, fmt.Errorf("malformed floor in unit key %q: %w", s, err)
	}
	return UnitKey{Building: parts[0], Floor: floor, Unit: parts[2]}, nil
}

// SelectionState is the externally owned UI selection snapshot the scene reads
// each tick. The viewer UI mutates it; the scene only ever reads it.
type SelectionState struct {
	// Selected names at most one unit as the active selection.
	Selected UnitKey
	// HasSelection reports whether Selected is meaningful.
	HasSelection bool
	// Hovered names the unit currently under the pointer, or nil.
	Hovered *UnitKey
	// ActiveFilter is the set of keys matching the current availability
	// filter. Empty means no filter is active.
	ActiveFilter map[UnitKey]struct{}
}
