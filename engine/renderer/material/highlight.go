package material

import (
	"github.com/chewxy/math32"
)

// Highlight emphasis colors. One material instance per emphasis kind serves
// every highlighted object simultaneously, bounding GPU-side material memory
// no matter how many units are faded in at once.
var (
	selectedColor = [4]float32{0.18, 0.55, 0.95, 0.85}
	hoveredColor  = [4]float32{0.35, 0.75, 1.0, 0.6}
	filteredColor = [4]float32{0.95, 0.72, 0.2, 0.5}
)

const (
	filteredPulseHz  = 0.75
	filteredPulseMin = 0.25
	filteredPulseMax = 1.0
)

// HighlightSet holds the three shared highlight materials. Construct one per
// viewer session and inject it where highlighting is applied; the set is
// never recreated while entries still reference its materials.
type HighlightSet struct {
	Selected Material
	Hovered  Material
	Filtered Material
}

// NewHighlightSet creates the shared selected/hovered/filtered materials.
//
// Returns:
//   - *HighlightSet: the set of shared highlight materials
func NewHighlightSet() *HighlightSet {
	return &HighlightSet{
		Selected: NewMaterial(
			WithName("highlight-selected"),
			WithBaseColor(selectedColor),
		),
		Hovered: NewMaterial(
			WithName("highlight-hovered"),
			WithBaseColor(hoveredColor),
		),
		Filtered: NewMaterial(
			WithName("highlight-filtered"),
			WithBaseColor(filteredColor),
			WithEmissiveColor([3]float32{1, 0.85, 0.4}),
			WithEmissiveIntensity(filteredPulseMin),
		),
	}
}

// Pulse advances the filtered material's emissive intensity along a shared
// sine clock so every filtered object glows in phase. The filtered material
// is shared mutable state: Pulse must only ever be called from the single
// per-frame render tick, never concurrently.
//
// Parameters:
//   - elapsedSeconds: total elapsed session time in seconds
func (h *HighlightSet) Pulse(elapsedSeconds float32) {
	wave := (math32.Sin(elapsedSeconds*2*math32.Pi*filteredPulseHz) + 1) / 2
	h.Filtered.SetEmissiveIntensity(filteredPulseMin + wave*(filteredPulseMax-filteredPulseMin))
}
