package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA tint of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithEmissiveColor is an option builder that sets the emissive RGB color of the material.
//
// Parameters:
//   - color: the emissive color as RGB float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive color option to a material
func WithEmissiveColor(color [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveColor = color
	}
}

// WithEmissiveIntensity is an option builder that sets the initial emissive intensity.
//
// Parameters:
//   - intensity: the emissive intensity multiplier
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive intensity option to a material
func WithEmissiveIntensity(intensity float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveIntensity = intensity
	}
}
