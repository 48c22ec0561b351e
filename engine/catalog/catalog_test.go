package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSortsEnvironmentByPriority(t *testing.T) {
	c, err := New([]Asset{
		{ID: "env/landscape", Path: "landscape.glb", Priority: 3},
		{ID: "env/terrain", Path: "terrain.glb", Priority: 1},
		{ID: "env/buildings", Path: "buildings.glb", Priority: 2},
	}, nil)
	require.NoError(t, err)

	env := c.Environment()
	require.Len(t, env, 3)
	assert.Equal(t, "env/terrain", env[0].ID)
	assert.Equal(t, "env/buildings", env[1].ID)
	assert.Equal(t, "env/landscape", env[2].ID)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New(
		[]Asset{{ID: "env/terrain", Priority: 1}},
		[]Asset{{ID: "env/terrain", Bucket: BucketOptional}},
	)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"environment": [
			{"id": "env/terrain", "path": "terrain.glb", "priority": 1}
		],
		"units": [
			{"id": "T/2/200", "path": "units/t-200.glb", "bucket": 2}
		]
	}`)
	c, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, c.Environment(), 1)
	unit := c.Unit("T/2/200")
	require.NotNil(t, unit)
	assert.Equal(t, BucketOptional, unit.Bucket)
	assert.Equal(t, StatusPending, c.Status("T/2/200"))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"environment": [}`))
	assert.Error(t, err)
}

func TestTransitionForwardOnly(t *testing.T) {
	c, err := New([]Asset{{ID: "env/terrain", Priority: 1}}, nil)
	require.NoError(t, err)

	require.NoError(t, c.Transition("env/terrain", StatusLoading))
	require.NoError(t, c.Transition("env/terrain", StatusLoaded))

	// Terminal states never regress and never re-advance.
	assert.Error(t, c.Transition("env/terrain", StatusLoading))
	assert.Error(t, c.Transition("env/terrain", StatusError))
	assert.Equal(t, StatusLoaded, c.Status("env/terrain"))
}

func TestTransitionUnknownAsset(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)
	assert.Error(t, c.Transition("missing", StatusLoading))
}

func TestResolvedCount(t *testing.T) {
	c, err := New([]Asset{
		{ID: "a", Priority: 1},
		{ID: "b", Priority: 2},
		{ID: "c", Priority: 3},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.ResolvedCount())

	require.NoError(t, c.Transition("a", StatusLoading))
	require.NoError(t, c.Transition("a", StatusLoaded))
	require.NoError(t, c.Transition("b", StatusLoading))
	require.NoError(t, c.Transition("b", StatusError))
	assert.Equal(t, 2, c.ResolvedCount())
}

func TestStatusIsSafeDuringConcurrentTransitions(t *testing.T) {
	c, err := New([]Asset{{ID: "env/terrain", Priority: 1}}, []Asset{{ID: "T/2/210", Bucket: BucketOptional}})
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					c.Status("env/terrain")
					c.Status("T/2/210")
				}
			}
		}()
	}

	require.NoError(t, c.Transition("env/terrain", StatusLoading))
	require.NoError(t, c.Transition("T/2/210", StatusLoading))
	require.NoError(t, c.Transition("env/terrain", StatusLoaded))
	require.NoError(t, c.Transition("T/2/210", StatusLoaded))
	close(done)
	wg.Wait()

	assert.Equal(t, StatusLoaded, c.Status("env/terrain"))
	assert.Equal(t, StatusLoaded, c.Status("T/2/210"))
}
