package camera

// CameraBuilderOption defines a function that modifies the camera configuration.
type CameraBuilderOption func(*orbitCamera)

// WithFov sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: builder option for camera creation
func WithFov(fov float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		if fov > 0 {
			c.fov = fov
		}
	}
}

// WithAspect sets the initial viewport aspect ratio.
//
// Parameters:
//   - aspect: the aspect ratio (width / height)
//
// Returns:
//   - CameraBuilderOption: builder option for camera creation
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraBuilderOption: builder option for camera creation
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		if near > 0 && far > near {
			c.near = near
			c.far = far
		}
	}
}

// WithController attaches an orbit controller. A default controller is
// created when none is provided.
//
// Parameters:
//   - controller: the controller to attach
//
// Returns:
//   - CameraBuilderOption: builder option for camera creation
func WithController(controller OrbitController) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.controller = controller
	}
}
