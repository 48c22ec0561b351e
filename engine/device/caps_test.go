package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFlagsMobileLow(t *testing.T) {
	flags := DeriveFlags(TierMobileLow)
	assert.False(t, flags.ShadowsEnabled)
	assert.False(t, flags.Antialiasing)
	assert.False(t, flags.PostProcessingEnabled)
	assert.Equal(t, 1024, flags.TextureSizeMax)
	assert.Equal(t, 1024, flags.ShadowMapSize)
	assert.Equal(t, 1, flags.AnisotropyMax)
	assert.InDelta(t, 1.0, flags.PixelRatioMax, 1e-6)
}

func TestDeriveFlagsDesktop(t *testing.T) {
	for _, tier := range []Tier{TierDesktopGL, TierDesktopWebGPU} {
		flags := DeriveFlags(tier)
		assert.True(t, flags.ShadowsEnabled, tier.String())
		assert.True(t, flags.PostProcessingEnabled, tier.String())
		assert.Equal(t, 4096, flags.TextureSizeMax, tier.String())
		assert.Equal(t, 8, flags.AnisotropyMax, tier.String())
	}
}

// Budgets must be monotonically non-decreasing in tier order.
func TestDeriveFlagsMonotonic(t *testing.T) {
	order := []Tier{TierMobileLow, TierMobileHigh, TierDesktopGL, TierDesktopWebGPU}
	for i := 1; i < len(order); i++ {
		lo := DeriveFlags(order[i-1])
		hi := DeriveFlags(order[i])
		assert.LessOrEqual(t, lo.TextureSizeMax, hi.TextureSizeMax)
		assert.LessOrEqual(t, lo.ShadowMapSize, hi.ShadowMapSize)
		assert.LessOrEqual(t, lo.PixelRatioMax, hi.PixelRatioMax)
		assert.LessOrEqual(t, lo.AnisotropyMax, hi.AnisotropyMax)
	}
}

func TestConservativeDowngradesWithoutMutating(t *testing.T) {
	full := DeriveFlags(TierDesktopWebGPU)
	down := full.Conservative()

	assert.False(t, down.ShadowsEnabled)
	assert.False(t, down.PostProcessingEnabled)
	assert.False(t, down.Antialiasing)
	assert.InDelta(t, 1.0, down.PixelRatioMax, 1e-6)
	assert.Equal(t, 2048, down.TextureSizeMax)
	assert.Equal(t, 2048, down.ShadowMapSize)

	// The original table is a value and must be untouched.
	assert.True(t, full.ShadowsEnabled)
	assert.Equal(t, 4096, full.TextureSizeMax)
}

func TestConservativeFloorsAtMobileBudget(t *testing.T) {
	down := DeriveFlags(TierMobileLow).Conservative()
	assert.Equal(t, 1024, down.TextureSizeMax)
	assert.Equal(t, 1024, down.ShadowMapSize)
}
