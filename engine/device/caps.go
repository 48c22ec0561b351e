package device

// CapabilityFlags is the derived budget and feature table for a Tier. It is
// computed once at startup and read-only for the session. A quality downgrade
// never mutates an existing instance; it replaces it with a new one (see
// Conservative).
type CapabilityFlags struct {
	// PixelRatioMax caps the device pixel ratio applied to the drawing buffer.
	PixelRatioMax float32
	// TextureSizeMax caps texture dimensions in texels.
	TextureSizeMax int
	// ShadowMapSize is the shadow depth texture edge length in texels.
	ShadowMapSize int
	// ShadowsEnabled toggles the shadow pass entirely.
	ShadowsEnabled bool
	// AnisotropyMax caps anisotropic filtering.
	AnisotropyMax int
	// Antialiasing toggles MSAA on the main render pass.
	Antialiasing bool
	// PostProcessingEnabled toggles the post-processing chain.
	PostProcessingEnabled bool
}

// DeriveFlags maps a Tier to its capability table. Pure lookup: no I/O, no
// side effects. This table is the single authority for per-tier budgets;
// nothing else in the viewer hard-codes texture or shadow sizes.
//
// Parameters:
//   - tier: the device tier to derive budgets for
//
// Returns:
//   - CapabilityFlags: the budget/feature table for the tier
func DeriveFlags(tier Tier) CapabilityFlags {
	switch tier {
	case TierMobileLow:
		return CapabilityFlags{
			PixelRatioMax:         1.0,
			TextureSizeMax:        1024,
			ShadowMapSize:         1024,
			ShadowsEnabled:        false,
			AnisotropyMax:         1,
			Antialiasing:          false,
			PostProcessingEnabled: false,
		}
	case TierMobileHigh:
		return CapabilityFlags{
			PixelRatioMax:         1.5,
			TextureSizeMax:        2048,
			ShadowMapSize:         2048,
			ShadowsEnabled:        true,
			AnisotropyMax:         4,
			Antialiasing:          false,
			PostProcessingEnabled: false,
		}
	case TierDesktopGL:
		return CapabilityFlags{
			PixelRatioMax:         2.0,
			TextureSizeMax:        4096,
			ShadowMapSize:         4096,
			ShadowsEnabled:        true,
			AnisotropyMax:         8,
			Antialiasing:          true,
			PostProcessingEnabled: true,
		}
	case TierDesktopWebGPU:
		return CapabilityFlags{
			PixelRatioMax:         2.0,
			TextureSizeMax:        4096,
			ShadowMapSize:         4096,
			ShadowsEnabled:        true,
			AnisotropyMax:         8,
			Antialiasing:          true,
			PostProcessingEnabled: true,
		}
	default:
		return DeriveFlags(TierMobileLow)
	}
}

// Conservative derives a downgraded copy of the flags for the persistent
// conservative mode entered after repeated context loss. Shadows and
// post-processing go off, the pixel ratio drops to 1 and the texture budget
// halves (floored at the mobile budget). The receiver is not modified.
//
// Returns:
//   - CapabilityFlags: the downgraded table
func (f CapabilityFlags) Conservative() CapabilityFlags {
	out := f
	out.ShadowsEnabled = false
	out.PostProcessingEnabled = false
	out.Antialiasing = false
	out.PixelRatioMax = 1.0
	out.AnisotropyMax = 1
	if half := f.TextureSizeMax / 2; half >= 1024 {
		out.TextureSizeMax = half
	} else {
		out.TextureSizeMax = 1024
	}
	if half := f.ShadowMapSize / 2; half >= 1024 {
		out.ShadowMapSize = half
	} else {
		out.ShadowMapSize = 1024
	}
	return out
}
