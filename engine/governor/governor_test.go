package governor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/events"
	"github.com/lumispace/campusview/engine/renderer"
)

type fakeStats struct {
	frame renderer.FrameStats
}

func (f *fakeStats) Stats() renderer.FrameStats {
	return f.frame
}

// runWindow drives exactly one full sampling window at the given frame time.
func runWindow(g Governor, frameMillis float64) {
	steps := int(windowMillis/frameMillis) + 1
	for i := 0; i < steps; i++ {
		g.Update(frameMillis)
	}
}

func collect(g Governor) *[]events.Degrade {
	var got []events.Degrade
	g.Signals().Subscribe(func(e events.Degrade) { got = append(got, e) })
	return &got
}

func TestGovernorInertOnDesktopTiers(t *testing.T) {
	for _, tier := range []device.Tier{device.TierDesktopGL, device.TierDesktopWebGPU} {
		stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 10_000, Triangles: 9_000_000}}
		g := NewGovernor(tier, stats)
		got := collect(g)

		// Pathological inputs: huge frame times and absurd complexity.
		for i := 0; i < 200; i++ {
			g.Update(100)
		}
		assert.Empty(t, *got, "tier %s must never emit", tier)
		_, ok := g.AverageFPS()
		assert.False(t, ok)
	}
}

func TestGovernorEmitsDropLevelOnDrawCallBreach(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 300, Triangles: 1000}}
	g := NewGovernor(device.TierMobileLow, stats)
	got := collect(g)

	runWindow(g, 16)

	require.Len(t, *got, 1)
	signal := (*got)[0]
	assert.Equal(t, events.DegradeDropLevel, signal.Kind)
	assert.Equal(t, 300, signal.DrawCalls)
}

func TestGovernorEmitsDropLevelOnTriangleBreach(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 10, Triangles: 600_000}}
	g := NewGovernor(device.TierMobileLow, stats)
	got := collect(g)

	runWindow(g, 16)

	require.Len(t, *got, 1)
	assert.Equal(t, events.DegradeDropLevel, (*got)[0].Kind)
}

func TestGovernorWithinBudgetStaysQuiet(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 50, Triangles: 10_000}}
	g := NewGovernor(device.TierMobileHigh, stats)
	got := collect(g)

	// 60 FPS within all ceilings, across several windows.
	for i := 0; i < 6; i++ {
		runWindow(g, 16)
	}
	assert.Empty(t, *got)
}

func TestGovernorLowFPSNeedsEnoughSamples(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 10, Triangles: 100}}
	g := NewGovernor(device.TierMobileLow, stats)
	got := collect(g)

	// 25 FPS sustained: no signal until the fifth window completes.
	for i := 0; i < minFPSSamples-1; i++ {
		runWindow(g, 40)
	}
	assert.Empty(t, *got)

	runWindow(g, 40)
	require.Len(t, *got, 1)
	signal := (*got)[0]
	assert.Equal(t, events.DegradeLowFPS, signal.Kind)
	assert.Less(t, signal.FPS, DefaultLowFPSThreshold)
}

func TestGovernorRollingHistoryBounded(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{}}
	g := NewGovernor(device.TierMobileLow, stats)

	// Many slow windows, then enough fast ones to push them all out of the
	// bounded history.
	for i := 0; i < 8; i++ {
		runWindow(g, 40)
	}
	for i := 0; i < historySize; i++ {
		runWindow(g, 10)
	}

	avg, ok := g.AverageFPS()
	require.True(t, ok)
	assert.Greater(t, avg, DefaultLowFPSThreshold)
}

func TestGovernorCustomCeilings(t *testing.T) {
	stats := &fakeStats{frame: renderer.FrameStats{DrawCalls: 30, Triangles: 1000}}
	g := NewGovernor(device.TierMobileLow, stats, WithCeilings(20, 500))
	got := collect(g)

	runWindow(g, 16)
	require.NotEmpty(t, *got)
	assert.Equal(t, events.DegradeDropLevel, (*got)[0].Kind)
}
