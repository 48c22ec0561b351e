package camera

// OrbitControllerOption defines a function that modifies the orbit controller configuration.
type OrbitControllerOption func(*orbitController)

// WithTarget sets the initial look-at target.
//
// Parameters:
//   - x, y, z: the target position in world space
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithTarget(x, y, z float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.target = [3]float32{x, y, z}
	}
}

// WithRadius sets the initial orbit radius.
//
// Parameters:
//   - radius: distance from eye to target
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle.
//
// Parameters:
//   - azimuth: the azimuth angle in radians
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle.
//
// Parameters:
//   - elevation: the elevation angle in radians
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithElevation(elevation float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.elevation = elevation
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min: the closest allowed radius
//   - max: the farthest allowed radius
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithRadiusBounds(min, max float32) OrbitControllerOption {
	return func(oc *orbitController) {
		if min > 0 && max > min {
			oc.minRadius = min
			oc.maxRadius = max
		}
	}
}

// WithElevationBounds sets the vertical angle limits.
//
// Parameters:
//   - min: the lowest allowed elevation in radians
//   - max: the highest allowed elevation in radians
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithElevationBounds(min, max float32) OrbitControllerOption {
	return func(oc *orbitController) {
		if max > min {
			oc.minElevation = min
			oc.maxElevation = max
		}
	}
}

// WithOrbitSensitivity sets how strongly pointer deltas rotate the camera.
//
// Parameters:
//   - sensitivity: radians per pointer unit
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithOrbitSensitivity(sensitivity float32) OrbitControllerOption {
	return func(oc *orbitController) {
		if sensitivity > 0 {
			oc.orbitSensitivity = sensitivity
		}
	}
}

// WithZoomSpeed sets how strongly scroll deltas change the radius.
//
// Parameters:
//   - speed: radius units per scroll unit
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		if speed > 0 {
			oc.zoomSpeed = speed
		}
	}
}

// WithPanSpeed sets how strongly pan deltas translate the target.
//
// Parameters:
//   - speed: world units per pointer unit
//
// Returns:
//   - OrbitControllerOption: builder option for controller creation
func WithPanSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		if speed > 0 {
			oc.panSpeed = speed
		}
	}
}
