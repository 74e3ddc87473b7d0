package bodyscan

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is a lifecycle state of Reconstruction
type State int32

const (
	// Idle means the frame subscription is not opened yet
	Idle State = iota
	// AwaitingBody means frames arrive but no body has been selected
	AwaitingBody
	// Tracking means a body is locked on and its frames are integrated
	Tracking
	// Ended means no frames will be processed anymore
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingBody:
		return "AwaitingBody"
	case Tracking:
		return "Tracking"
	case Ended:
		return "Ended"
	default:
		return "Unknown"
	}
}

// ReconstructionStats holds tick counters
type ReconstructionStats struct {
	// Ticks delivered by the sensor
	TicksReceived uint64
	// Ticks dropped because previous tick was still being processed
	TicksDropped uint64
	// Ticks with missing data or without the selected body
	TicksSkipped uint64
	// Ticks handed over to frame processing
	FramesProcessed uint64
	FramesAligned   uint64
	AlignFailures   uint64
	// Ticks where the surface preview could not be rendered
	PreviewFailures uint64
}

// Reconstruction accumulates the shape of one selected body into a reconstruction volume.
//
// Frame arrival handler never blocks: while a frame is being processed newer ticks are dropped.
// Reusable frame buffers, pose and selected identity are touched only by the gate holder.
type Reconstruction struct {
	id       uuid.UUID
	cfg      ReconstructionConfig
	sensor   Sensor
	volume   Volume
	selector *BodySelector
	gate     *WorkGate
	logger   *zap.SugaredLogger
	dispatch Dispatcher

	// Reusable per-tick buffers
	rawDepth    DepthFrame
	bodyIndexes BodyIndexFrame
	floatDepth  []float32
	shaded      []uint32

	surface *Framebuffer

	// Guarded by the gate
	selectedID    uint64
	worldToCamera Pose

	// Snapshot of state for readers from other goroutines
	mu          sync.RWMutex
	state       State
	reader      Reader
	floorNormal r3.Vec
	pose        Pose
	energy      float32
	subject     *SubjectTrack
	mesh        *ScannedMesh

	integrated atomic.Bool
	stopOnce   sync.Once

	onStarted        handlers
	onSurfaceUpdated handlers
	onFrameAligned   handlers

	ticksReceived   atomic.Uint64
	ticksDropped    atomic.Uint64
	ticksSkipped    atomic.Uint64
	framesProcessed atomic.Uint64
	framesAligned   atomic.Uint64
	alignFailures   atomic.Uint64
	previewFailures atomic.Uint64
}

// ReconstructionFactory creates a fresh Reconstruction for every scan
type ReconstructionFactory func() (*Reconstruction, error)

// NewReconstructionFactory returns factory creating reconstructions with the same parameters
func NewReconstructionFactory(sensor Sensor, engine Engine, cfg ReconstructionConfig, opts ...Option) ReconstructionFactory {
	return func() (*Reconstruction, error) {
		return NewReconstruction(sensor, engine, cfg, opts...)
	}
}

// NewReconstruction creates reconstruction volume and frame buffers.
// Volume starts at cfg.MinDepth in front of the sensor.
func NewReconstruction(sensor Sensor, engine Engine, cfg ReconstructionConfig, opts ...Option) (*Reconstruction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid reconstruction config")
	}
	o := applyOptions(opts)

	width, height := sensor.DepthFrameSize()
	surface, err := NewFramebuffer(width, height)
	if err != nil {
		return nil, errors.Wrap(err, "can't create surface framebuffer")
	}

	worldToCamera := IdentityPose()
	volume, err := engine.CreateVolume(cfg.Volume, worldToCamera)
	if err != nil {
		return nil, errors.Wrap(err, "can't create reconstruction volume")
	}
	worldToVolume := volume.WorldToVolume()
	shift := worldToVolume.Translation()
	shift.Z -= float64(cfg.MinDepth) * cfg.Volume.VoxelsPerMeter
	worldToVolume = worldToVolume.WithTranslation(shift)
	if err := volume.Reset(worldToCamera, worldToVolume); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "can't reset reconstruction volume"), volume.Close())
	}

	id := uuid.New()
	pixels := width * height
	r := &Reconstruction{
		id:            id,
		cfg:           cfg,
		sensor:        sensor,
		volume:        volume,
		selector:      NewBodySelector(cfg.MinDepth, cfg.MaxDepth, cfg.LateralLimit),
		gate:          NewWorkGate(),
		logger:        o.logger.With("session", id.String()),
		dispatch:      o.dispatcher,
		rawDepth:      make(DepthFrame, pixels),
		bodyIndexes:   make(BodyIndexFrame, pixels),
		floatDepth:    make([]float32, pixels),
		shaded:        make([]uint32, pixels),
		surface:       surface,
		selectedID:    NoTrackingID,
		worldToCamera: worldToCamera,
		state:         Idle,
		pose:          worldToCamera,
	}
	return r, nil
}

// ID returns unique session identifier
func (r *Reconstruction) ID() uuid.UUID {
	return r.id
}

// Config returns reconstruction parameters
func (r *Reconstruction) Config() ReconstructionConfig {
	return r.cfg
}

// State returns current lifecycle state
func (r *Reconstruction) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// IsReconstructing returns true once a body has been locked on and until the reconstruction ends
func (r *Reconstruction) IsReconstructing() bool {
	return r.State() == Tracking
}

// SelectedTrackingID returns identity of the locked-on body
func (r *Reconstruction) SelectedTrackingID() (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.subject == nil {
		return NoTrackingID, false
	}
	return r.subject.TrackingID(), true
}

// FloorNormal returns floor normal captured at lock-on
func (r *Reconstruction) FloorNormal() r3.Vec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.floorNormal
}

// LastAlignmentEnergy returns alignment energy of the last successfully aligned frame
func (r *Reconstruction) LastAlignmentEnergy() float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.energy
}

// Pose returns current world to camera transform estimate
func (r *Reconstruction) Pose() Pose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pose
}

// SubjectTrack returns track of the locked-on body. Nil before lock-on
func (r *Reconstruction) SubjectTrack() *SubjectTrack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subject
}

// SurfaceFramebuffer returns shaded surface preview
func (r *Reconstruction) SurfaceFramebuffer() *Framebuffer {
	return r.surface
}

// Stats returns tick counters
func (r *Reconstruction) Stats() ReconstructionStats {
	return ReconstructionStats{
		TicksReceived:   r.ticksReceived.Load(),
		TicksDropped:    r.ticksDropped.Load(),
		TicksSkipped:    r.ticksSkipped.Load(),
		FramesProcessed: r.framesProcessed.Load(),
		FramesAligned:   r.framesAligned.Load(),
		AlignFailures:   r.alignFailures.Load(),
		PreviewFailures: r.previewFailures.Load(),
	}
}

// OnStarted subscribes to body lock-on
func (r *Reconstruction) OnStarted(fn func()) {
	r.onStarted.add(fn)
}

// OnSurfaceUpdated subscribes to surface preview updates
func (r *Reconstruction) OnSurfaceUpdated(fn func()) {
	r.onSurfaceUpdated.add(fn)
}

// OnFrameAligned subscribes to successful frame alignments
func (r *Reconstruction) OnFrameAligned(fn func()) {
	r.onFrameAligned.add(fn)
}

// Start opens the combined frame subscription and begins waiting for a body
func (r *Reconstruction) Start() error {
	r.mu.Lock()
	switch r.state {
	case Idle:
		r.state = AwaitingBody
	case Ended:
		r.mu.Unlock()
		return ErrEnded
	default:
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.mu.Unlock()

	reader, err := r.sensor.OpenCombinedReader(r.handleTick)
	if err != nil {
		r.mu.Lock()
		if r.state == AwaitingBody {
			r.state = Idle
		}
		r.mu.Unlock()
		return errors.Wrap(err, "can't open combined frame reader")
	}

	r.mu.Lock()
	if r.state == Ended {
		// Stopped while the reader was being opened
		r.mu.Unlock()
		return reader.Close()
	}
	r.reader = reader
	r.mu.Unlock()
	r.logger.Info("waiting for a body")
	return nil
}

// Stop waits for in-flight frame processing, closes frame subscription, extracts mesh and releases the volume.
// Only the first call does anything.
func (r *Reconstruction) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		// The gate is never released again: no tick runs after teardown begins
		r.gate.Enter()

		r.mu.Lock()
		r.state = Ended
		reader := r.reader
		r.reader = nil
		r.mu.Unlock()

		if reader != nil {
			err = multierr.Append(err, errors.Wrap(reader.Close(), "can't close frame reader"))
		}

		mesh := &ScannedMesh{}
		if r.integrated.Load() {
			extracted, extractErr := r.volume.ExtractMesh(r.cfg.MeshLevelOfDetail)
			if extractErr != nil {
				err = multierr.Append(err, errors.Wrap(extractErr, "can't extract mesh"))
			} else if extracted != nil {
				mesh = extracted
			}
		}
		r.mu.Lock()
		r.mesh = mesh
		r.mu.Unlock()

		err = multierr.Append(err, errors.Wrap(r.volume.Close(), "can't close reconstruction volume"))
		stats := r.Stats()
		bounds := mesh.Bounds()
		r.logger.Infow("reconstruction ended",
			"vertices", mesh.VertexCount(),
			"extent", r3.Sub(bounds.Max, bounds.Min),
			"framesAligned", stats.FramesAligned,
			"ticksDropped", stats.TicksDropped,
		)
	})
	return err
}

// Close is Stop
func (r *Reconstruction) Close() error {
	return r.Stop()
}

// Mesh returns mesh extracted at Stop. The mesh is empty if no frame was ever integrated.
// It fails with ErrNotEnded until Stop has finished extraction.
func (r *Reconstruction) Mesh() (*ScannedMesh, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// State becomes Ended before extraction starts, mesh is set once it is done
	if r.state != Ended || r.mesh == nil {
		return nil, ErrNotEnded
	}
	return r.mesh, nil
}

// handleTick is the frame arrival handler
func (r *Reconstruction) handleTick(tick Tick) {
	r.ticksReceived.Inc()
	if !r.gate.TryEnter() {
		r.ticksDropped.Inc()
		return
	}
	processing := false
	defer func() {
		if !processing {
			r.gate.Exit()
		}
	}()

	state := r.State()
	if state != AwaitingBody && state != Tracking {
		return
	}

	bodies, ok := tick.Bodies()
	if !ok {
		r.ticksSkipped.Inc()
		return
	}

	if state == AwaitingBody {
		trackingID, found := r.selector.SelectClosest(bodies)
		if !found {
			r.ticksSkipped.Inc()
			return
		}
		r.lockOn(trackingID, bodies)
	}

	bodyIndex, found := r.selector.Locate(bodies, r.selectedID)
	if !found {
		r.subject.MarkLost()
		r.ticksSkipped.Inc()
		r.logger.Debugw("selected body lost", "trackingID", r.selectedID, "lostTicks", r.subject.LostTicks())
		return
	}
	spineBase := bodies[bodyIndex].Joint(SpineBase)
	if spineBase.State != NotTracked {
		if err := r.subject.Update(NewPointFrom(spineBase.Position)); err != nil {
			r.logger.Debugw("can't update subject track", "error", err)
		}
	}

	if !tick.CopyFrameData(r.rawDepth, r.bodyIndexes) {
		r.ticksSkipped.Inc()
		return
	}

	processing = true
	r.framesProcessed.Inc()
	go func() {
		defer r.gate.Exit()
		r.processFrame(bodyIndex)
	}()
}

// lockOn selects the body for the rest of the session. Called with the gate held
func (r *Reconstruction) lockOn(trackingID uint64, bodies []TrackedBody) {
	var spineBase r3.Vec
	for i := range bodies {
		if bodies[i].TrackingID == trackingID {
			spineBase = bodies[i].Joint(SpineBase).Position
			break
		}
	}
	floorNormal := r.sensor.FloorNormal()
	subject := NewSubjectTrack(trackingID, NewPointFrom(spineBase))

	r.selectedID = trackingID
	r.mu.Lock()
	r.state = Tracking
	r.floorNormal = floorNormal
	r.subject = subject
	r.mu.Unlock()

	r.logger.Infow("body locked on", "trackingID", trackingID, "depth", spineBase.Z, "lateral", spineBase.X)
	r.onStarted.raise(r.dispatch)
}

// processFrame runs mask, convert, align and preview steps for the current buffers.
// Per-tick failures are recoverable and never escape.
func (r *Reconstruction) processFrame(bodyIndex uint8) {
	MaskDepth(r.rawDepth, r.bodyIndexes, bodyIndex)
	r.integrateFrame()
	r.renderSurface()
}

func (r *Reconstruction) integrateFrame() {
	err := r.volume.DepthToFloatFrame(r.rawDepth, r.floatDepth, r.cfg.MinDepth, r.cfg.MaxDepth)
	if err != nil {
		r.alignFailures.Inc()
		r.logger.Debugw("can't convert depth frame", "error", err)
		return
	}
	result, err := r.volume.AlignFrame(r.floatDepth, r.cfg.AlignIterations, r.cfg.IntegrationWeight, r.worldToCamera)
	if err != nil {
		r.alignFailures.Inc()
		r.logger.Debugw("frame alignment failed", "error", err)
		return
	}
	if !result.Aligned {
		r.alignFailures.Inc()
		r.logger.Debugw("frame not aligned", "energy", result.Energy)
		return
	}

	r.worldToCamera = r.volume.CurrentPose()
	r.integrated.Store(true)
	r.framesAligned.Inc()
	r.mu.Lock()
	r.pose = r.worldToCamera
	r.energy = result.Energy
	r.mu.Unlock()
	r.onFrameAligned.raise(r.dispatch)
}

func (r *Reconstruction) renderSurface() {
	cloud, err := r.volume.ComputePointCloud(r.worldToCamera)
	if err != nil {
		r.previewFailures.Inc()
		r.logger.Debugw("can't compute point cloud", "error", err)
		return
	}
	if err := r.volume.ShadePointCloud(cloud, r.worldToCamera, r.shaded); err != nil {
		r.previewFailures.Inc()
		r.logger.Debugw("can't shade point cloud", "error", err)
		return
	}
	r.surface.Access(func(pix []uint32) {
		copy(pix, r.shaded)
	})
	r.onSurfaceUpdated.raise(r.dispatch)
}
