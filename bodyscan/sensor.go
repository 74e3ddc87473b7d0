package bodyscan

import "gonum.org/v1/gonum/spatial/r3"

// Tick is one synchronized delivery of depth, body index and body tracking data.
// A Tick is only valid inside the handler it was delivered to.
type Tick interface {
	// Bodies returns tracked body records of this tick. False means the body frame is missing
	Bodies() ([]TrackedBody, bool)
	// CopyFrameData copies depth and body index frames into the given buffers. False means frames are missing
	CopyFrameData(depth DepthFrame, bodyIndex BodyIndexFrame) bool
}

// Reader is an open frame subscription
type Reader interface {
	Close() error
}

// Sensor is the depth camera collaborator.
// Handlers are called on the sensor's delivery goroutine and must not block it.
type Sensor interface {
	Available() bool
	// DepthFrameSize returns fixed depth frame dimensions
	DepthFrameSize() (width, height int)
	OpenCombinedReader(handler func(Tick)) (Reader, error)
	OpenDepthReader(handler func(DepthFrame)) (Reader, error)
	// FloorNormal returns current floor plane normal estimate
	FloorNormal() r3.Vec
}
