package bodyscan

// VolumeParams describes voxel grid of the reconstruction volume
type VolumeParams struct {
	VoxelsPerMeter float64
	VoxelsX        int
	VoxelsY        int
	VoxelsZ        int
}

// AlignResult is the outcome of aligning one depth frame against the volume.
// Energy describes residual misalignment: lower is better.
type AlignResult struct {
	Aligned bool
	Energy  float32
}

// PointCloud is an engine-specific rendering of the volume surface
type PointCloud interface{}

// Engine creates reconstruction volumes
type Engine interface {
	CreateVolume(params VolumeParams, initialPose Pose) (Volume, error)
}

// Volume is a truncated signed distance field volume owned by one Reconstruction.
// Any method may return ErrEngineNotReady (possibly wrapped) for transient invalid state.
type Volume interface {
	WorldToVolume() Pose
	Reset(worldToCamera, worldToVolume Pose) error
	DepthToFloatFrame(raw DepthFrame, dst []float32, minDepth, maxDepth float32) error
	// AlignFrame aligns depth to the volume starting from pose and integrates it on success
	AlignFrame(depth []float32, iterations, integrationWeight int, pose Pose) (AlignResult, error)
	// CurrentPose returns world to camera transform estimated by the last successful alignment
	CurrentPose() Pose
	ComputePointCloud(pose Pose) (PointCloud, error)
	ShadePointCloud(cloud PointCloud, pose Pose, dst []uint32) error
	ExtractMesh(levelOfDetail int) (*ScannedMesh, error)
	Close() error
}
