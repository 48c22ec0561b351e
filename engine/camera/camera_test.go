package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestOrbitControllerDefaultsPlaceEyeOnSphere(t *testing.T) {
	oc := NewOrbitController()

	x, y, z := oc.Position()
	tx, ty, tz := oc.Target()
	dist := math32.Sqrt((x-tx)*(x-tx) + (y-ty)*(y-ty) + (z-tz)*(z-tz))

	assert.InDelta(t, oc.Radius(), dist, 0.01)
	assert.Greater(t, y, ty, "default elevation should place the eye above the target")
}

func TestOrbitRotatesAroundTarget(t *testing.T) {
	oc := NewOrbitController(WithOrbitSensitivity(1.0))

	before := oc.Azimuth()
	oc.Orbit(math32.Pi/4, 0)
	assert.InDelta(t, before+math32.Pi/4, oc.Azimuth(), 1e-5)

	x, y, z := oc.Position()
	tx, ty, tz := oc.Target()
	dist := math32.Sqrt((x-tx)*(x-tx) + (y-ty)*(y-ty) + (z-tz)*(z-tz))
	assert.InDelta(t, oc.Radius(), dist, 0.01, "orbiting must not change the radius")
}

func TestOrbitElevationIsClamped(t *testing.T) {
	oc := NewOrbitController(WithOrbitSensitivity(1.0), WithElevationBounds(0.1, 1.2))

	oc.Orbit(0, 100)
	assert.InDelta(t, 1.2, oc.Elevation(), 1e-5)

	oc.Orbit(0, -100)
	assert.InDelta(t, 0.1, oc.Elevation(), 1e-5)
}

func TestZoomIsClampedToRadiusBounds(t *testing.T) {
	oc := NewOrbitController(WithRadius(100), WithRadiusBounds(50, 150), WithZoomSpeed(1.0))

	oc.Zoom(1000)
	assert.InDelta(t, 50, oc.Radius(), 1e-5)

	oc.Zoom(-1000)
	assert.InDelta(t, 150, oc.Radius(), 1e-5)
}

func TestPanPreservesOrbitRelationship(t *testing.T) {
	oc := NewOrbitController()

	radiusBefore := oc.Radius()
	elevationBefore := oc.Elevation()
	oc.Pan(10, 5)

	x, y, z := oc.Position()
	tx, ty, tz := oc.Target()
	dist := math32.Sqrt((x-tx)*(x-tx) + (y-ty)*(y-ty) + (z-tz)*(z-tz))

	assert.InDelta(t, radiusBefore, dist, 0.01)
	assert.InDelta(t, elevationBefore, oc.Elevation(), 1e-5)
	assert.NotEqual(t, [3]float32{0, 0, 0}, [3]float32{tx, ty, tz})
}

func TestSetTargetRecentersOrbit(t *testing.T) {
	oc := NewOrbitController()

	oc.SetTarget(100, 0, 50)
	x, y, z := oc.Position()
	dist := math32.Sqrt((x-100)*(x-100) + y*y + (z-50)*(z-50))
	assert.InDelta(t, oc.Radius(), dist, 0.01)
}

func TestCameraProducesFiniteViewProjection(t *testing.T) {
	cam := NewCamera(
		WithAspect(16.0/9.0),
		WithController(NewOrbitController(WithTarget(10, 0, 10))),
	)

	vp := cam.ViewProjection()
	for i, v := range vp {
		assert.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "element %d is not finite", i)
	}
	assert.NotEqual(t, [16]float32{}, vp)
}

func TestCameraUpdateTracksController(t *testing.T) {
	oc := NewOrbitController(WithOrbitSensitivity(1.0))
	cam := NewCamera(WithController(oc))

	before := cam.ViewProjection()
	oc.Orbit(math32.Pi/3, 0)
	cam.Update()

	assert.NotEqual(t, before, cam.ViewProjection())
}

func TestSetAspectChangesProjection(t *testing.T) {
	cam := NewCamera(WithAspect(1.0))

	before := cam.ViewProjection()
	cam.SetAspect(2.0)

	assert.NotEqual(t, before, cam.ViewProjection())
}
