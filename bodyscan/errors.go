package bodyscan

import "github.com/pkg/errors"

var (
	// ErrSensorUnavailable is returned by Scanner.Run when the sensor can't deliver frames
	ErrSensorUnavailable = errors.New("depth sensor is not available")
	// ErrEngineNotReady marks a transient invalid-state condition reported by the reconstruction engine
	ErrEngineNotReady = errors.New("reconstruction engine is not ready")
	// ErrInvalidDimensions is returned when a framebuffer is constructed with non-positive size
	ErrInvalidDimensions = errors.New("width and height must be positive")
	// ErrAlreadyStarted is returned when Start is called on a running reconstruction
	ErrAlreadyStarted = errors.New("reconstruction already started")
	// ErrNotEnded is returned when the mesh is requested before the reconstruction has been stopped
	ErrNotEnded = errors.New("reconstruction has not ended")
	// ErrEnded is returned when Start is called after the reconstruction has been stopped
	ErrEnded = errors.New("reconstruction has ended")
)
