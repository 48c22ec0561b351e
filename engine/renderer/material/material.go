package material

import (
	"github.com/chewxy/math32"
)

// material is the implementation of the Material interface.
type material struct {
	name              string
	baseColor         [4]float32
	emissiveColor     [3]float32
	emissiveIntensity float32
}

// Material defines the interface for a render material: a named surface tint
// plus an emissive term. Base and emissive colors are set at construction and
// read-only thereafter; only the emissive intensity is mutable, so a shared
// material can pulse without its identity changing.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA tint of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// EmissiveColor retrieves the emissive RGB color of the material.
	//
	// Returns:
	//   - [3]float32: the emissive color
	EmissiveColor() [3]float32

	// EmissiveIntensity retrieves the current emissive intensity multiplier.
	//
	// Returns:
	//   - float32: the emissive intensity
	EmissiveIntensity() float32

	// SetEmissiveIntensity sets the emissive intensity multiplier.
	//
	// Parameters:
	//   - intensity: the new emissive intensity
	SetEmissiveIntensity(intensity float32)

	// Tint composes the material's color terms into the RGBA value uploaded
	// with each draw: base color plus the emissive contribution, alpha
	// passed through unchanged.
	//
	// Returns:
	//   - [4]float32: the composed RGBA tint
	Tint() [4]float32
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) EmissiveColor() [3]float32 {
	return m.emissiveColor
}

func (m *material) EmissiveIntensity() float32 {
	return m.emissiveIntensity
}

func (m *material) SetEmissiveIntensity(intensity float32) {
	m.emissiveIntensity = intensity
}

func (m *material) Tint() [4]float32 {
	return [4]float32{
		math32.Min(m.baseColor[0]+m.emissiveColor[0]*m.emissiveIntensity, 1),
		math32.Min(m.baseColor[1]+m.emissiveColor[1]*m.emissiveIntensity, 1),
		math32.Min(m.baseColor[2]+m.emissiveColor[2]*m.emissiveIntensity, 1),
		m.baseColor[3],
	}
}
