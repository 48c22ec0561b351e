package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTintAddsEmissiveAndClamps(t *testing.T) {
	m := NewMaterial(
		WithBaseColor([4]float32{0.5, 0.5, 0.5, 0.75}),
		WithEmissiveColor([3]float32{1, 1, 1}),
		WithEmissiveIntensity(0.25),
	)
	assert.Equal(t, [4]float32{0.75, 0.75, 0.75, 0.75}, m.Tint())

	m.SetEmissiveIntensity(10)
	tint := m.Tint()
	assert.Equal(t, float32(1), tint[0])
	assert.Equal(t, float32(0.75), tint[3])
}

func TestPulseStaysWithinBounds(t *testing.T) {
	set := NewHighlightSet()
	for _, elapsed := range []float32{0, 0.1, 0.33, 0.5, 1, 2.7, 60} {
		set.Pulse(elapsed)
		got := set.Filtered.EmissiveIntensity()
		assert.GreaterOrEqual(t, got, float32(filteredPulseMin))
		assert.LessOrEqual(t, got, float32(filteredPulseMax))
	}
}

func TestPulseOnlyTouchesFilteredMaterial(t *testing.T) {
	set := NewHighlightSet()
	set.Pulse(0.4)
	assert.Zero(t, set.Selected.EmissiveIntensity())
	assert.Zero(t, set.Hovered.EmissiveIntensity())
}
