// Package inject provides injectable depth sensor and reconstruction engine collaborators.
package inject

import (
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/LdDl/bodyscan-go/bodyscan"
)

// Reader is an injected frame subscription
type Reader struct {
	CloseFunc func() error
	closed    bool
	mu        sync.Mutex
}

// Close calls the injected Close or marks reader closed
func (r *Reader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	if r.CloseFunc == nil {
		return nil
	}
	return r.CloseFunc()
}

// Closed returns true once Close has been called
func (r *Reader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Sensor is an injected depth sensor.
// Without injected open functions it records subscribed handlers so frames can be emitted manually.
type Sensor struct {
	Width  int
	Height int

	AvailableFunc          func() bool
	OpenCombinedReaderFunc func(handler func(bodyscan.Tick)) (bodyscan.Reader, error)
	OpenDepthReaderFunc    func(handler func(bodyscan.DepthFrame)) (bodyscan.Reader, error)
	FloorNormalFunc        func() r3.Vec

	mu             sync.Mutex
	tickHandlers   []subscription[bodyscan.Tick]
	depthHandlers  []subscription[bodyscan.DepthFrame]
	CombinedOpened int
	DepthOpened    int
}

type subscription[T any] struct {
	reader  *Reader
	handler func(T)
}

// NewSensor creates available sensor delivering width x height frames
func NewSensor(width, height int) *Sensor {
	return &Sensor{
		Width:  width,
		Height: height,
	}
}

// Available calls the injected Available or returns true
func (s *Sensor) Available() bool {
	if s.AvailableFunc == nil {
		return true
	}
	return s.AvailableFunc()
}

// DepthFrameSize returns Width and Height
func (s *Sensor) DepthFrameSize() (int, int) {
	return s.Width, s.Height
}

// FloorNormal calls the injected FloorNormal or returns +Y
func (s *Sensor) FloorNormal() r3.Vec {
	if s.FloorNormalFunc == nil {
		return r3.Vec{Y: 1}
	}
	return s.FloorNormalFunc()
}

// OpenCombinedReader calls the injected OpenCombinedReader or records handler for EmitTick
func (s *Sensor) OpenCombinedReader(handler func(bodyscan.Tick)) (bodyscan.Reader, error) {
	if s.OpenCombinedReaderFunc != nil {
		return s.OpenCombinedReaderFunc(handler)
	}
	if handler == nil {
		return nil, errors.New("nil tick handler")
	}
	reader := &Reader{}
	s.mu.Lock()
	s.CombinedOpened++
	s.tickHandlers = append(s.tickHandlers, subscription[bodyscan.Tick]{reader: reader, handler: handler})
	s.mu.Unlock()
	return reader, nil
}

// OpenDepthReader calls the injected OpenDepthReader or records handler for EmitDepth
func (s *Sensor) OpenDepthReader(handler func(bodyscan.DepthFrame)) (bodyscan.Reader, error) {
	if s.OpenDepthReaderFunc != nil {
		return s.OpenDepthReaderFunc(handler)
	}
	if handler == nil {
		return nil, errors.New("nil depth handler")
	}
	reader := &Reader{}
	s.mu.Lock()
	s.DepthOpened++
	s.depthHandlers = append(s.depthHandlers, subscription[bodyscan.DepthFrame]{reader: reader, handler: handler})
	s.mu.Unlock()
	return reader, nil
}

// EmitTick delivers tick to every open combined reader, on the calling goroutine
func (s *Sensor) EmitTick(tick bodyscan.Tick) {
	s.mu.Lock()
	subs := make([]subscription[bodyscan.Tick], len(s.tickHandlers))
	copy(subs, s.tickHandlers)
	s.mu.Unlock()
	for _, sub := range subs {
		if !sub.reader.Closed() {
			sub.handler(tick)
		}
	}
}

// EmitDepth delivers depth frame to every open depth reader, on the calling goroutine
func (s *Sensor) EmitDepth(frame bodyscan.DepthFrame) {
	s.mu.Lock()
	subs := make([]subscription[bodyscan.DepthFrame], len(s.depthHandlers))
	copy(subs, s.depthHandlers)
	s.mu.Unlock()
	for _, sub := range subs {
		if !sub.reader.Closed() {
			sub.handler(frame)
		}
	}
}

// Tick is an injected sensor tick
type Tick struct {
	BodyList  []bodyscan.TrackedBody
	NoBodies  bool
	Depth     bodyscan.DepthFrame
	BodyIndex bodyscan.BodyIndexFrame
	NoFrames  bool

	BodiesFunc        func() ([]bodyscan.TrackedBody, bool)
	CopyFrameDataFunc func(depth bodyscan.DepthFrame, bodyIndex bodyscan.BodyIndexFrame) bool
}

// Bodies calls the injected Bodies or returns BodyList
func (t *Tick) Bodies() ([]bodyscan.TrackedBody, bool) {
	if t.BodiesFunc != nil {
		return t.BodiesFunc()
	}
	if t.NoBodies {
		return nil, false
	}
	return t.BodyList, true
}

// CopyFrameData calls the injected CopyFrameData or copies Depth and BodyIndex
func (t *Tick) CopyFrameData(depth bodyscan.DepthFrame, bodyIndex bodyscan.BodyIndexFrame) bool {
	if t.CopyFrameDataFunc != nil {
		return t.CopyFrameDataFunc(depth, bodyIndex)
	}
	if t.NoFrames {
		return false
	}
	copy(depth, t.Depth)
	copy(bodyIndex, t.BodyIndex)
	return true
}

// Body creates tracked body with tracked spine base at (x, y, z)
func Body(trackingID uint64, x, y, z float64) bodyscan.TrackedBody {
	return bodyscan.TrackedBody{
		TrackingID: trackingID,
		IsTracked:  true,
		Joints: map[bodyscan.JointType]bodyscan.Joint{
			bodyscan.SpineBase: {Position: r3.Vec{X: x, Y: y, Z: z}, State: bodyscan.Tracked},
		},
	}
}
