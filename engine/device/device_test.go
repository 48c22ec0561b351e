package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeProber struct {
	webgpu bool
	gl     bool

	webgpuPanics bool
	probed       int
}

func (f *fakeProber) ProbeWebGPU() bool {
	f.probed++
	if f.webgpuPanics {
		panic("adapter request crashed")
	}
	return f.webgpu
}

func (f *fakeProber) ProbeGL() bool {
	f.probed++
	return f.gl
}

func desktopEnv() Environment {
	return Environment{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) Chrome/130.0",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		DeviceMemoryGB: 16,
	}
}

func TestDetectTierIPhoneIsMobileLow(t *testing.T) {
	env := Environment{
		UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		TouchCapable:   true,
		ViewportWidth:  390,
		ViewportHeight: 844,
	}
	// Desktop-capable backends being available must not matter: the mobile
	// signature is a hard floor.
	p := NewProfiler(env, WithProber(&fakeProber{webgpu: true, gl: true}))
	assert.Equal(t, TierMobileLow, p.DetectTier())
}

func TestDetectTierDesktopPrefersWebGPU(t *testing.T) {
	p := NewProfiler(desktopEnv(), WithProber(&fakeProber{webgpu: true, gl: true}))
	assert.Equal(t, TierDesktopWebGPU, p.DetectTier())
}

func TestDetectTierDesktopFallsBackToGL(t *testing.T) {
	p := NewProfiler(desktopEnv(), WithProber(&fakeProber{webgpu: false, gl: true}))
	assert.Equal(t, TierDesktopGL, p.DetectTier())
}

func TestDetectTierGracefulDefaultWhenNoBackend(t *testing.T) {
	p := NewProfiler(desktopEnv(), WithProber(&fakeProber{}))
	assert.Equal(t, TierDesktopGL, p.DetectTier())
}

func TestDetectTierProbePanicTreatedAsUnsupported(t *testing.T) {
	p := NewProfiler(desktopEnv(), WithProber(&fakeProber{webgpuPanics: true, gl: true}))
	assert.Equal(t, TierDesktopGL, p.DetectTier())
}

func TestDetectTierDeterministicAndCached(t *testing.T) {
	prober := &fakeProber{webgpu: true}
	p := NewProfiler(desktopEnv(), WithProber(prober))

	first := p.DetectTier()
	probesAfterFirst := prober.probed
	for range 5 {
		assert.Equal(t, first, p.DetectTier())
	}
	// The classification runs once; repeated calls must not re-probe.
	assert.Equal(t, probesAfterFirst, prober.probed)
}

func TestDetectTierMobileHeuristics(t *testing.T) {
	tests := []struct {
		name string
		env  Environment
		want Tier
	}{
		{
			name: "android user agent",
			env:  Environment{UserAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8)", ViewportWidth: 1080, ViewportHeight: 2400},
			want: TierMobileLow,
		},
		{
			name: "touch with narrow viewport",
			env:  Environment{UserAgent: "CustomShell/1.0", TouchCapable: true, ViewportWidth: 768, ViewportHeight: 1024},
			want: TierMobileLow,
		},
		{
			name: "low device memory hint",
			env:  Environment{UserAgent: "CustomShell/1.0", ViewportWidth: 1920, ViewportHeight: 1080, DeviceMemoryGB: 2},
			want: TierMobileLow,
		},
		{
			name: "simulator-sized viewport",
			env:  Environment{UserAgent: "CustomShell/1.0", ViewportWidth: 280, ViewportHeight: 500},
			want: TierMobileLow,
		},
		{
			name: "wide touch screen stays desktop",
			env:  Environment{UserAgent: "CustomShell/1.0", TouchCapable: true, ViewportWidth: 2560, ViewportHeight: 1440, DeviceMemoryGB: 32},
			want: TierDesktopWebGPU,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProfiler(tt.env, WithProber(&fakeProber{webgpu: true, gl: true}))
			assert.Equal(t, tt.want, p.DetectTier())
		})
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "mobile-low", TierMobileLow.String())
	assert.Equal(t, "mobile-high", TierMobileHigh.String())
	assert.Equal(t, "desktop-webgl2", TierDesktopGL.String())
	assert.Equal(t, "desktop-webgpu", TierDesktopWebGPU.String())
}
