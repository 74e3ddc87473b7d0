package bodyscan

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// endOfTime is the end time of a scan which has not locked on a body yet
var endOfTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// ScanResult is the outcome of one scan
type ScanResult struct {
	SessionID   uuid.UUID
	Mesh        *ScannedMesh
	FloorNormal r3.Vec
	// Zero if no body has been locked on
	StartedAt time.Time
	EndedAt   time.Time
}

// Scanner runs one reconstruction per Run: waits for a body, scans for the configured
// duration and returns the extracted mesh.
type Scanner struct {
	sensor   Sensor
	factory  ReconstructionFactory
	clock    clock.Clock
	logger   *zap.SugaredLogger
	dispatch Dispatcher
	latch    *SampleLatch

	mu           sync.Mutex
	scanDuration time.Duration
	pollInterval time.Duration
	running      bool
	current      *Reconstruction
	startedAt    time.Time
	endTime      time.Time
	floorNormal  r3.Vec
	// Wakes the wait loop when end time changes
	wake chan struct{}

	onScanStarted handlers
	onScanUpdated handlers
}

// NewScanner creates scanner. Every Run creates a new reconstruction with factory
func NewScanner(sensor Sensor, factory ReconstructionFactory, cfg ScannerConfig, opts ...Option) (*Scanner, error) {
	if factory == nil {
		return nil, errors.New("reconstruction factory is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scanner config")
	}
	o := applyOptions(opts)
	return &Scanner{
		sensor:       sensor,
		factory:      factory,
		clock:        o.clock,
		logger:       o.logger,
		dispatch:     o.dispatcher,
		latch:        &SampleLatch{},
		scanDuration: cfg.ScanDuration,
		pollInterval: cfg.PollInterval,
		endTime:      endOfTime,
		wake:         make(chan struct{}, 1),
	}, nil
}

// OnScanStarted subscribes to body lock-on
func (s *Scanner) OnScanStarted(fn func()) {
	s.onScanStarted.add(fn)
}

// OnScanUpdated subscribes to preview updates
func (s *Scanner) OnScanUpdated(fn func()) {
	s.onScanUpdated.add(fn)
}

// Latch returns skeleton sample latch armed by every aligned frame
func (s *Scanner) Latch() *SampleLatch {
	return s.latch
}

// Preview returns surface preview of the running scan. Nil if no scan is running
func (s *Scanner) Preview() *Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.SurfaceFramebuffer()
}

// Reconstruction returns reconstruction of the running scan. Nil if no scan is running
func (s *Scanner) Reconstruction() *Reconstruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ScanDuration returns scan duration
func (s *Scanner) ScanDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanDuration
}

// SetScanDuration changes scan duration. For a started scan end time becomes start time + d
func (s *Scanner) SetScanDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	s.scanDuration = d
	if !s.startedAt.IsZero() {
		s.endTime = s.startedAt.Add(d)
	}
	s.mu.Unlock()
	s.signal()
}

// EndTime returns end time of the running scan. False if no body has been locked on yet
func (s *Scanner) EndTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime, !s.startedAt.IsZero()
}

// SetEndTime overrides end time of the running scan
func (s *Scanner) SetEndTime(t time.Time) {
	s.mu.Lock()
	s.endTime = t
	s.mu.Unlock()
	s.signal()
}

// Finish ends the running scan at the next check
func (s *Scanner) Finish() {
	s.SetEndTime(s.clock.Now())
}

// Remaining returns time left until the end of the started scan
func (s *Scanner) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return s.scanDuration
	}
	left := s.endTime.Sub(s.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Run performs one scan. It fails with ErrSensorUnavailable when the sensor is not available.
// When ctx is cancelled the scan is torn down and the result holds whatever has been reconstructed.
func (s *Scanner) Run(ctx context.Context) (*ScanResult, error) {
	if !s.sensor.Available() {
		return nil, ErrSensorUnavailable
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("scan is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.current = nil
		s.startedAt = time.Time{}
		s.endTime = endOfTime
		s.mu.Unlock()
	}()

	rec, err := s.factory()
	if err != nil {
		return nil, errors.Wrap(err, "can't create reconstruction")
	}
	rec.OnSurfaceUpdated(s.raiseScanUpdated)
	rec.OnStarted(func() {
		s.handleStarted(rec)
	})
	rec.OnFrameAligned(func() {
		s.latch.Arm()
		s.raiseScanUpdated()
	})

	s.mu.Lock()
	s.current = rec
	s.startedAt = time.Time{}
	s.endTime = endOfTime
	s.floorNormal = r3.Vec{}
	s.mu.Unlock()
	s.latch.Reset()
	s.raiseScanUpdated()

	if err := rec.Start(); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "can't start reconstruction"), rec.Stop())
	}
	s.logger.Infow("scan started", "session", rec.ID().String())

	waitErr := s.wait(ctx)
	stopErr := rec.Stop()
	mesh, meshErr := rec.Mesh()

	s.mu.Lock()
	result := &ScanResult{
		SessionID:   rec.ID(),
		Mesh:        mesh,
		FloorNormal: s.floorNormal,
		StartedAt:   s.startedAt,
		EndedAt:     s.clock.Now(),
	}
	s.mu.Unlock()
	s.logger.Infow("scan finished", "session", rec.ID().String(), "vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount())
	return result, multierr.Combine(waitErr, stopErr, meshErr)
}

// wait polls until the end time passes or ctx is done
func (s *Scanner) wait(ctx context.Context) error {
	ticker := s.clock.Ticker(s.pollInterval)
	defer ticker.Stop()
	for {
		if s.finished() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

func (s *Scanner) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.clock.Now().Before(s.endTime)
}

func (s *Scanner) handleStarted(rec *Reconstruction) {
	s.mu.Lock()
	s.floorNormal = rec.FloorNormal()
	s.startedAt = s.clock.Now()
	s.endTime = s.startedAt.Add(s.scanDuration)
	s.mu.Unlock()
	s.signal()
	s.onScanStarted.raise(s.dispatch)
}

func (s *Scanner) raiseScanUpdated() {
	s.onScanUpdated.raise(s.dispatch)
}

func (s *Scanner) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
