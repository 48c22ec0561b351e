package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumispace/campusview/engine/catalog"
	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/events"
)

// fakeFetcher resolves assets in-memory and records resolution order.
type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	order []string
}

func (f *fakeFetcher) Fetch(_ context.Context, asset *catalog.Asset) (*Model, error) {
	f.mu.Lock()
	f.order = append(f.order, asset.ID)
	failed := f.fail[asset.ID]
	f.mu.Unlock()
	if failed {
		return nil, errors.New("corrupt model file")
	}
	return &Model{ID: asset.ID, VertexData: []byte{0}, IndexData: []byte{0, 0, 0, 0}, IndexCount: 3}, nil
}

func (f *fakeFetcher) resolved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

func envCatalog(t *testing.T, n int) *catalog.Catalog {
	t.Helper()
	assets := make([]catalog.Asset, 0, n)
	for i := 1; i <= n; i++ {
		assets = append(assets, catalog.Asset{
			ID:       string(rune('a'-1+i)) + "-env",
			Path:     "env.glb",
			Priority: i,
		})
	}
	c, err := catalog.New(assets, nil)
	require.NoError(t, err)
	return c
}

func unitCatalog(t *testing.T, units []catalog.Asset) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(nil, units)
	require.NoError(t, err)
	return c
}

func TestLoadAllStrictPriorityOrder(t *testing.T) {
	cat := envCatalog(t, 5)
	fetcher := &fakeFetcher{}
	l := NewLoader(cat, device.TierDesktopWebGPU,
		WithFetcher(fetcher),
		WithStepYield(0),
	)

	require.NoError(t, l.LoadAll(context.Background()))
	assert.Equal(t, []string{"a-env", "b-env", "c-env", "d-env", "e-env"}, fetcher.resolved())
	assert.Equal(t, 5, cat.ResolvedCount())
}

func TestLoadAllFaultIsolation(t *testing.T) {
	cat := envCatalog(t, 3)
	fetcher := &fakeFetcher{fail: map[string]bool{"b-env": true}}
	loaded := 0
	l := NewLoader(cat, device.TierDesktopWebGPU,
		WithFetcher(fetcher),
		WithStepYield(0),
		WithModelSink(func(*Model) { loaded++ }),
	)

	require.NoError(t, l.LoadAll(context.Background()))

	// The failed asset is skipped, the sequence runs to the end, and every
	// asset counts as resolved.
	assert.Equal(t, 3, cat.ResolvedCount())
	assert.Equal(t, catalog.StatusLoaded, cat.Status("a-env"))
	assert.Equal(t, catalog.StatusError, cat.Status("b-env"))
	assert.Equal(t, catalog.StatusLoaded, cat.Status("c-env"))
	assert.Equal(t, 2, loaded)
}

func TestLoadAllPublishesProgress(t *testing.T) {
	cat := envCatalog(t, 3)
	l := NewLoader(cat, device.TierDesktopWebGPU,
		WithFetcher(&fakeFetcher{}),
		WithStepYield(0),
	)

	var got []events.LoadingProgress
	l.Progress().Subscribe(func(e events.LoadingProgress) { got = append(got, e) })

	require.NoError(t, l.LoadAll(context.Background()))
	require.Len(t, got, 3)
	assert.Equal(t, events.LoadingProgress{Phase: "environment", LoadedCount: 1, TotalCount: 3}, got[0])
	assert.Equal(t, events.LoadingProgress{Phase: "environment", LoadedCount: 3, TotalCount: 3}, got[2])
}

func TestLoadAllCooperativeCancellation(t *testing.T) {
	cat := envCatalog(t, 10)
	fetcher := &fakeFetcher{}
	l := NewLoader(cat, device.TierDesktopWebGPU,
		WithFetcher(fetcher),
		WithStepYield(2*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.LoadAll(ctx) }()

	// Let a couple of steps through, then cancel.
	time.Sleep(5 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(fetcher.resolved()), 10)
}

func TestShouldLoadDesktopIsUnconditional(t *testing.T) {
	cat := unitCatalog(t, []catalog.Asset{
		{ID: "u1", Bucket: catalog.BucketOptional},
	})
	l := NewLoader(cat, device.TierDesktopGL,
		WithFetcher(&fakeFetcher{}),
		// A saturated heap must not matter on desktop.
		WithMemoryProbe(func() (uint64, uint64) { return 100, 100 }),
	)
	assert.True(t, l.ShouldLoad("u1"))
}

func TestShouldLoadMobileGating(t *testing.T) {
	units := []catalog.Asset{
		{ID: "essential", Bucket: catalog.BucketEssential},
		{ID: "important", Bucket: catalog.BucketImportant},
		{ID: "optional", Bucket: catalog.BucketOptional},
	}
	for i := 0; i < 12; i++ {
		units = append(units, catalog.Asset{ID: string(rune('A' + i)), Bucket: catalog.BucketImportant})
	}
	cat := unitCatalog(t, units)

	lowPressure := func() (uint64, uint64) { return 10, 100 }
	l := NewLoader(cat, device.TierMobileLow,
		WithFetcher(&fakeFetcher{}),
		WithGatingCeilings(10, 5),
		WithMemoryProbe(lowPressure),
	)

	// Under all ceilings everything is admitted.
	assert.True(t, l.ShouldLoad("essential"))
	assert.True(t, l.ShouldLoad("important"))
	assert.True(t, l.ShouldLoad("optional"))

	// Fill past the optional ceiling.
	for i := 0; i < 5; i++ {
		l.RegisterLoaded(string(rune('A' + i)))
	}
	assert.True(t, l.ShouldLoad("important"))
	assert.False(t, l.ShouldLoad("optional"))

	// Fill past the important ceiling; essentials always load.
	for i := 5; i < 10; i++ {
		l.RegisterLoaded(string(rune('A' + i)))
	}
	assert.False(t, l.ShouldLoad("important"))
	assert.True(t, l.ShouldLoad("essential"))
}

func TestShouldLoadOptionalRespectsMemoryPressure(t *testing.T) {
	cat := unitCatalog(t, []catalog.Asset{{ID: "optional", Bucket: catalog.BucketOptional}})
	pressure := uint64(10)
	l := NewLoader(cat, device.TierMobileLow,
		WithFetcher(&fakeFetcher{}),
		WithMemoryProbe(func() (uint64, uint64) { return pressure, 100 }),
	)

	assert.True(t, l.ShouldLoad("optional"))
	pressure = 40 // 0.4 > 0.3 threshold
	assert.False(t, l.ShouldLoad("optional"))
}

func TestRequestUnitDispatchesOnce(t *testing.T) {
	cat := unitCatalog(t, []catalog.Asset{{ID: "u1", Bucket: catalog.BucketEssential}})
	var mu sync.Mutex
	var delivered []string
	done := make(chan struct{})
	l := NewLoader(cat, device.TierDesktopWebGPU,
		WithFetcher(&fakeFetcher{}),
		WithModelSink(func(m *Model) {
			mu.Lock()
			delivered = append(delivered, m.ID)
			mu.Unlock()
			close(done)
		}),
	)

	assert.True(t, l.RequestUnit("u1"))
	// A second request for an in-flight or finished asset is refused.
	assert.False(t, l.RequestUnit("u1"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unit load did not complete")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"u1"}, delivered)
	assert.Equal(t, 1, l.LoadedCount())
}

func TestRequestUnitUnknownAsset(t *testing.T) {
	cat := unitCatalog(t, nil)
	l := NewLoader(cat, device.TierDesktopWebGPU, WithFetcher(&fakeFetcher{}))
	assert.False(t, l.RequestUnit("missing"))
}

func TestUnloadOptionalReturnsOnlyOptional(t *testing.T) {
	cat := unitCatalog(t, []catalog.Asset{
		{ID: "e1", Bucket: catalog.BucketEssential},
		{ID: "o1", Bucket: catalog.BucketOptional},
		{ID: "o2", Bucket: catalog.BucketOptional},
	})
	l := NewLoader(cat, device.TierMobileLow, WithFetcher(&fakeFetcher{}))
	l.RegisterLoaded("e1")
	l.RegisterLoaded("o1")
	l.RegisterLoaded("o2")

	unloaded := l.UnloadOptional()
	assert.ElementsMatch(t, []string{"o1", "o2"}, unloaded)
	assert.Equal(t, 1, l.LoadedCount())

	// Second call finds nothing left to unload.
	assert.Empty(t, l.UnloadOptional())
}

func TestSuspendBlocksAdmission(t *testing.T) {
	cat := unitCatalog(t, []catalog.Asset{{ID: "u1", Bucket: catalog.BucketEssential}})
	l := NewLoader(cat, device.TierDesktopWebGPU, WithFetcher(&fakeFetcher{}))

	l.Suspend()
	assert.False(t, l.ShouldLoad("u1"))
	assert.False(t, l.RequestUnit("u1"))

	l.Resume()
	assert.True(t, l.ShouldLoad("u1"))
}
