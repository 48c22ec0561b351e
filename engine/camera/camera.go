package camera

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/lumispace/campusview/common"
)

type orbitCamera struct {
	mu sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	controller OrbitController

	viewMatrix       [16]float32
	projectionMatrix [16]float32
	viewProjection   [16]float32
}

// Camera holds the perspective settings for the campus view and combines them
// with an OrbitController into a view-projection matrix. Call Update once per
// tick and feed ViewProjection to the viewer.
type Camera interface {
	// Aspect returns the viewport aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// SetAspect sets the aspect ratio and recomputes the matrices. Wire this
	// to the window resize callback.
	//
	// Parameters:
	//   - aspect: the new aspect ratio
	SetAspect(aspect float32)

	// Controller returns the attached orbit controller.
	//
	// Returns:
	//   - OrbitController: the controller, never nil
	Controller() OrbitController

	// Update recomputes the view and projection matrices from the current
	// controller state. Call once per tick.
	Update()

	// ViewProjection returns the combined view-projection matrix as 16 floats
	// (column-major).
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjection() [16]float32
}

var _ Camera = &orbitCamera{}

// NewCamera creates a Camera with campus-scale perspective defaults and an
// orbit controller. The matrices are valid immediately.
//
// Parameters:
//   - options: functional options for camera configuration
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &orbitCamera{
		fov:    45.0 * (math32.Pi / 180.0),
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    5000.0,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.controller == nil {
		c.controller = NewOrbitController()
	}
	c.mu.Lock()
	c.updateMatrices()
	c.mu.Unlock()
	return c
}

func (c *orbitCamera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *orbitCamera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
	c.updateMatrices()
}

func (c *orbitCamera) Controller() OrbitController {
	return c.controller
}

func (c *orbitCamera) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *orbitCamera) ViewProjection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

// updateMatrices recomputes view, projection, and the combined matrix from
// the controller's eye and target. Caller must hold the mutex.
func (c *orbitCamera) updateMatrices() {
	ex, ey, ez := c.controller.Position()
	tx, ty, tz := c.controller.Target()

	common.LookAt(c.viewMatrix[:], ex, ey, ez, tx, ty, tz, 0, 1, 0)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjection[:], c.projectionMatrix[:], c.viewMatrix[:])
}
