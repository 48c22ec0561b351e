package camera

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/lumispace/campusview/common"
)

// orbitController keeps the eye on a sphere around the target. Orbiting
// changes the spherical angles, zooming the radius, and panning slides both
// eye and target along the camera's local right/up axes so the orbit
// relationship is preserved.
type orbitController struct {
	mu sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

// OrbitController turns pointer deltas into an eye/target pair for an orbit
// camera around the campus.
type OrbitController interface {
	// Position returns the current eye position in world space.
	//
	// Returns:
	//   - x, y, z: eye position components
	Position() (x, y, z float32)

	// Target returns the current look-at target in world space.
	//
	// Returns:
	//   - x, y, z: target position components
	Target() (x, y, z float32)

	// SetTarget moves the look-at target, keeping the current orbit angles
	// and radius. Use this to focus the camera on a selected unit.
	//
	// Parameters:
	//   - x, y, z: the new target position
	SetTarget(x, y, z float32)

	// Orbit rotates the eye around the target by the given angle deltas.
	// Elevation is clamped to the configured bounds.
	//
	// Parameters:
	//   - dAzimuth: horizontal angle delta in pointer units
	//   - dElevation: vertical angle delta in pointer units
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye toward or away from the target. Positive delta
	// zooms in. The radius is clamped to the configured bounds.
	//
	// Parameters:
	//   - delta: scroll delta
	Zoom(delta float32)

	// Pan slides both eye and target along the camera's local right and up
	// axes.
	//
	// Parameters:
	//   - dx: rightward pan delta in pointer units
	//   - dy: upward pan delta in pointer units
	Pan(dx, dy float32)

	// Radius returns the current orbit radius.
	//
	// Returns:
	//   - float32: distance from eye to target
	Radius() float32

	// Azimuth returns the current horizontal angle in radians.
	//
	// Returns:
	//   - float32: the azimuth angle
	Azimuth() float32

	// Elevation returns the current vertical angle in radians.
	//
	// Returns:
	//   - float32: the elevation angle
	Elevation() float32
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates an orbit controller with campus-scale defaults:
// the eye starts 250 units out at a 30 degree elevation, looking at the
// origin.
//
// Parameters:
//   - options: functional options for controller configuration
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitController{
		radius:    250.0,
		elevation: math32.Pi / 6,

		minRadius:    20.0,
		maxRadius:    2000.0,
		minElevation: 0.05,
		maxElevation: math32.Pi/2 - 0.1,

		orbitSensitivity: 0.005,
		zoomSpeed:        15.0,
		panSpeed:         1.0,
	}
	for _, opt := range options {
		opt(oc)
	}
	oc.clampLocked()
	oc.updatePosition()
	return oc
}

func (oc *orbitController) Position() (x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.position[0], oc.position[1], oc.position[2]
}

func (oc *orbitController) Target() (x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target[0], oc.target[1], oc.target[2]
}

func (oc *orbitController) SetTarget(x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = [3]float32{x, y, z}
	oc.updatePosition()
}

func (oc *orbitController) Orbit(dAzimuth, dElevation float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += dAzimuth * oc.orbitSensitivity
	oc.elevation += dElevation * oc.orbitSensitivity
	oc.clampLocked()
	oc.updatePosition()
}

func (oc *orbitController) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius -= delta * oc.zoomSpeed
	oc.clampLocked()
	oc.updatePosition()
}

func (oc *orbitController) Pan(dx, dy float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()

	// Local right axis for worldUp (0,1,0) lies in the XZ plane.
	bx := oc.position[0] - oc.target[0]
	bz := oc.position[2] - oc.target[2]
	bLen := math32.Hypot(bx, bz)
	if bLen < 1e-6 {
		return
	}
	rx := bz / bLen
	rz := -bx / bLen

	oc.target[0] += rx * dx * oc.panSpeed
	oc.target[2] += rz * dx * oc.panSpeed
	oc.target[1] += dy * oc.panSpeed
	oc.updatePosition()
}

func (oc *orbitController) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

func (oc *orbitController) Azimuth() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitController) Elevation() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.elevation
}

// clampLocked constrains radius and elevation to their bounds. Caller must
// hold the mutex.
func (oc *orbitController) clampLocked() {
	oc.radius = common.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = common.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
}

// updatePosition recomputes the eye from the spherical coordinates. Caller
// must hold the mutex.
func (oc *orbitController) updatePosition() {
	cosElev := math32.Cos(oc.elevation)
	oc.position[0] = oc.target[0] + oc.radius*cosElev*math32.Sin(oc.azimuth)
	oc.position[1] = oc.target[1] + oc.radius*math32.Sin(oc.elevation)
	oc.position[2] = oc.target[2] + oc.radius*cosElev*math32.Cos(oc.azimuth)
}
