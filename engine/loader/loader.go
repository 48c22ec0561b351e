package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/catalog"
	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/events"
)

// Model is one decoded asset ready for GPU upload.
type Model struct {
	// ID is the catalog asset id the model was loaded for.
	ID string
	// VertexData is the raw position vertex bytes (float32 x3 per vertex).
	VertexData []byte
	// IndexData is the raw uint32 index bytes.
	IndexData []byte
	// IndexCount is the number of indices.
	IndexCount int
}

// AssetFetcher fetches and decodes one catalog asset. The production fetcher
// reads GLB files from disk; tests substitute in-memory fakes.
type AssetFetcher interface {
	// Fetch loads and decodes the asset.
	//
	// Parameters:
	//   - ctx: cancellation context covering the fetch
	//   - asset: the catalog asset to load
	//
	// Returns:
	//   - *Model: the decoded model
	//   - error: error if reading or decoding fails
	Fetch(ctx context.Context, asset *catalog.Asset) (*Model, error)
}

// FileFetcher reads GLB model files from a directory root.
type FileFetcher struct {
	// Root is the asset directory all catalog paths are relative to.
	Root string
}

var _ AssetFetcher = FileFetcher{}

// Fetch reads and decodes the asset's GLB file.
func (f FileFetcher) Fetch(_ context.Context, asset *catalog.Asset) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(f.Root, asset.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %q: %w", asset.ID, err)
	}
	m, err := DecodeGLB(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset %q: %w", asset.ID, err)
	}
	m.ID = asset.ID
	return m, nil
}

// MemoryProbe reports live heap usage for the optional-bucket pressure check.
// used is bytes of live heap objects; limit is bytes obtained from the OS.
type MemoryProbe func() (used, limit uint64)

func runtimeMemoryProbe() (uint64, uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	cat     *catalog.Catalog
	fetcher AssetFetcher
	logger  *zap.Logger
	tier    device.Tier

	progress *events.Bus[events.LoadingProgress]
	sink     func(*Model)

	importantCeiling  int
	optionalCeiling   int
	memoryPressureMax float64
	memProbe          MemoryProbe
	stepYield         time.Duration

	pool    worker.DynamicWorkerPool
	workers int
	taskID  int

	loadedUnits map[string]catalog.Bucket
	suspended   bool
}

// Loader is the progressive asset loader: a strict-priority sequential driver
// for the environment catalog plus budget-gated, fire-and-forget loading for
// the per-unit model catalog.
type Loader interface {
	// LoadAll runs the sequential environment loading pass: assets load
	// strictly one at a time in ascending priority order, with a short yield
	// between steps so a frame can render. A single asset's failure is
	// logged and skipped; the sequence always runs to the end unless the
	// context is cancelled. Cancellation is cooperative: the current fetch
	// completes, only the continuation is suppressed.
	//
	// Parameters:
	//   - ctx: cancellation context for the sequence
	//
	// Returns:
	//   - error: the context error if cancelled, otherwise nil
	LoadAll(ctx context.Context) error

	// ShouldLoad reports whether the on-demand unit asset may load under the
	// current budget. Desktop tiers always load. On mobile, essential assets
	// always load; important and optional assets are admitted only while the
	// loaded-model count is under their ceiling, and optional assets
	// additionally require heap pressure below the configured ratio.
	//
	// Parameters:
	//   - assetID: the unit asset id
	//
	// Returns:
	//   - bool: true if the asset is admitted for loading
	ShouldLoad(assetID string) bool

	// RequestUnit dispatches a gated, fire-and-forget load of a unit asset
	// on the worker pool. Completion is observed asynchronously via the
	// model sink. Returns false if the asset is unknown, already requested,
	// or rejected by ShouldLoad.
	//
	// Parameters:
	//   - assetID: the unit asset id
	//
	// Returns:
	//   - bool: true if a load was dispatched
	RequestUnit(assetID string) bool

	// RegisterLoaded records an externally completed unit load so the
	// budget accounting covers models the loader did not fetch itself.
	//
	// Parameters:
	//   - assetID: the unit asset id that finished loading
	RegisterLoaded(assetID string)

	// UnloadOptional removes every optional-bucket asset from the loaded
	// set and returns their ids so the caller can dispose the corresponding
	// GPU resources. Invoked by the recovery manager under memory pressure.
	//
	// Returns:
	//   - []string: the unloaded asset ids
	UnloadOptional() []string

	// LoadedCount reports the number of currently loaded unit models.
	//
	// Returns:
	//   - int: the loaded unit count
	LoadedCount() int

	// Suspend pauses new asset admission. In-flight loads complete;
	// ShouldLoad reports false and the sequential pass idles between steps
	// until Resume.
	Suspend()

	// Resume lifts a Suspend.
	Resume()

	// Progress returns the bus carrying loading progress events.
	//
	// Returns:
	//   - *events.Bus[events.LoadingProgress]: the progress event bus
	Progress() *events.Bus[events.LoadingProgress]
}

var _ Loader = &loader{}

// NewLoader creates a Loader over the given catalog.
//
// Parameters:
//   - cat: the session asset catalog
//   - tier: the device tier driving gating
//   - options: functional options for loader configuration
//
// Returns:
//   - Loader: the newly created loader
func NewLoader(cat *catalog.Catalog, tier device.Tier, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cat:               cat,
		tier:              tier,
		logger:            zap.NewNop(),
		progress:          events.NewBus[events.LoadingProgress](),
		importantCeiling:  10,
		optionalCeiling:   5,
		memoryPressureMax: 0.3,
		memProbe:          runtimeMemoryProbe,
		stepYield:         10 * time.Millisecond,
		workers:           2,
		loadedUnits:       make(map[string]catalog.Bucket),
	}
	for _, opt := range options {
		opt(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) LoadAll(ctx context.Context) error {
	env := l.cat.Environment()
	total := len(env)

	for _, asset := range env {
		// Cooperative cancellation: checked before each step, used when the
		// owning view unmounts mid-sequence.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.waitWhileSuspended(ctx); err != nil {
			return err
		}

		if err := l.cat.Transition(asset.ID, catalog.StatusLoading); err != nil {
			l.logger.Warn("skipping environment asset", zap.String("asset", asset.ID), zap.Error(err))
			continue
		}

		model, err := l.fetch(ctx, asset)
		if err != nil {
			// Isolated failure: mark, log, continue the sequence.
			_ = l.cat.Transition(asset.ID, catalog.StatusError)
			l.logger.Error("environment asset failed to load",
				zap.String("asset", asset.ID),
				zap.Error(err),
			)
		} else {
			_ = l.cat.Transition(asset.ID, catalog.StatusLoaded)
			l.deliver(model)
		}

		l.progress.Publish(events.LoadingProgress{
			Phase:       "environment",
			LoadedCount: l.cat.ResolvedCount(),
			TotalCount:  total,
		})

		// Yield between loads so a frame can render.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.stepYield):
		}
	}
	return nil
}

// waitWhileSuspended idles the sequential pass while loading is suspended
// (the recovery manager's stabilization window).
func (l *loader) waitWhileSuspended(ctx context.Context) error {
	for {
		l.mu.Lock()
		suspended := l.suspended
		l.mu.Unlock()
		if !suspended {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (l *loader) ShouldLoad(assetID string) bool {
	asset := l.cat.Unit(assetID)
	if asset == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.suspended {
		return false
	}
	if !l.tier.IsMobile() {
		return true
	}

	switch asset.Bucket {
	case catalog.BucketEssential:
		return true
	case catalog.BucketImportant:
		return len(l.loadedUnits) < l.importantCeiling
	default:
		if len(l.loadedUnits) >= l.optionalCeiling {
			return false
		}
		used, limit := l.memProbe()
		if limit == 0 {
			return true
		}
		return float64(used)/float64(limit) < l.memoryPressureMax
	}
}

func (l *loader) RequestUnit(assetID string) bool {
	asset := l.cat.Unit(assetID)
	if asset == nil || l.cat.Status(assetID) != catalog.StatusPending {
		return false
	}
	if !l.ShouldLoad(assetID) {
		return false
	}
	if err := l.cat.Transition(assetID, catalog.StatusLoading); err != nil {
		// Another request won the race.
		return false
	}

	l.mu.Lock()
	id := l.taskID
	l.taskID++
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			model, err := l.fetch(context.Background(), asset)
			if err != nil {
				_ = l.cat.Transition(assetID, catalog.StatusError)
				l.logger.Error("unit asset failed to load",
					zap.String("asset", assetID),
					zap.Error(err),
				)
				return nil, nil // absorbed at the boundary
			}
			_ = l.cat.Transition(assetID, catalog.StatusLoaded)
			l.RegisterLoaded(assetID)
			l.deliver(model)
			return nil, nil
		},
	})
	return true
}

func (l *loader) RegisterLoaded(assetID string) {
	asset := l.cat.Unit(assetID)
	if asset == nil {
		return
	}
	l.mu.Lock()
	l.loadedUnits[assetID] = asset.Bucket
	count := len(l.loadedUnits)
	total := len(l.cat.UnitIDs())
	l.mu.Unlock()

	l.progress.Publish(events.LoadingProgress{
		Phase:       "units",
		LoadedCount: count,
		TotalCount:  total,
	})
}

func (l *loader) UnloadOptional() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var unloaded []string
	for id, bucket := range l.loadedUnits {
		if bucket == catalog.BucketOptional {
			unloaded = append(unloaded, id)
			delete(l.loadedUnits, id)
		}
	}
	if len(unloaded) > 0 {
		l.logger.Info("unloaded optional assets", zap.Int("count", len(unloaded)))
	}
	return unloaded
}

func (l *loader) LoadedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loadedUnits)
}

func (l *loader) Suspend() {
	l.mu.Lock()
	l.suspended = true
	l.mu.Unlock()
}

func (l *loader) Resume() {
	l.mu.Lock()
	l.suspended = false
	l.mu.Unlock()
}

func (l *loader) Progress() *events.Bus[events.LoadingProgress] {
	return l.progress
}

func (l *loader) fetch(ctx context.Context, asset *catalog.Asset) (*Model, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("no asset fetcher configured")
	}
	return l.fetcher.Fetch(ctx, asset)
}

func (l *loader) deliver(m *Model) {
	if l.sink != nil {
		l.sink(m)
	}
}
