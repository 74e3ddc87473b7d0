package inject

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/LdDl/bodyscan-go/bodyscan"
)

// Engine is an injected reconstruction engine
type Engine struct {
	CreateVolumeFunc func(params bodyscan.VolumeParams, initialPose bodyscan.Pose) (bodyscan.Volume, error)

	mu      sync.Mutex
	volumes []*Volume
}

// CreateVolume calls the injected CreateVolume or creates a default Volume
func (e *Engine) CreateVolume(params bodyscan.VolumeParams, initialPose bodyscan.Pose) (bodyscan.Volume, error) {
	if e.CreateVolumeFunc != nil {
		return e.CreateVolumeFunc(params, initialPose)
	}
	v := NewVolume(params)
	e.mu.Lock()
	e.volumes = append(e.volumes, v)
	e.mu.Unlock()
	return v, nil
}

// Volumes returns default volumes created so far
func (e *Engine) Volumes() []*Volume {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Volume, len(e.volumes))
	copy(out, e.volumes)
	return out
}

// Volume is an injected reconstruction volume.
// Without injected functions every frame aligns, the pose moves 1 mm along Z per aligned frame
// and the extracted mesh has one triangle per aligned frame.
type Volume struct {
	Params bodyscan.VolumeParams

	WorldToVolumeFunc     func() bodyscan.Pose
	ResetFunc             func(worldToCamera, worldToVolume bodyscan.Pose) error
	DepthToFloatFrameFunc func(raw bodyscan.DepthFrame, dst []float32, minDepth, maxDepth float32) error
	AlignFrameFunc        func(depth []float32, iterations, integrationWeight int, pose bodyscan.Pose) (bodyscan.AlignResult, error)
	CurrentPoseFunc       func() bodyscan.Pose
	ComputePointCloudFunc func(pose bodyscan.Pose) (bodyscan.PointCloud, error)
	ShadePointCloudFunc   func(cloud bodyscan.PointCloud, pose bodyscan.Pose, dst []uint32) error
	ExtractMeshFunc       func(levelOfDetail int) (*bodyscan.ScannedMesh, error)
	CloseFunc             func() error

	mu            sync.Mutex
	worldToVolume bodyscan.Pose
	pose          bodyscan.Pose
	aligned       int
	alignCalls    int
	closeCalls    int
	lastRaw       bodyscan.DepthFrame
}

// NewVolume creates default volume
func NewVolume(params bodyscan.VolumeParams) *Volume {
	return &Volume{
		Params: params,
		worldToVolume: bodyscan.IdentityPose().WithTranslation(r3.Vec{
			X: float64(params.VoxelsX) / 2,
			Y: float64(params.VoxelsY) / 2,
		}),
		pose: bodyscan.IdentityPose(),
	}
}

// WorldToVolume calls the injected WorldToVolume or returns the current transform
func (v *Volume) WorldToVolume() bodyscan.Pose {
	if v.WorldToVolumeFunc != nil {
		return v.WorldToVolumeFunc()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.worldToVolume
}

// Reset calls the injected Reset or stores the transforms
func (v *Volume) Reset(worldToCamera, worldToVolume bodyscan.Pose) error {
	if v.ResetFunc != nil {
		return v.ResetFunc(worldToCamera, worldToVolume)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pose = worldToCamera
	v.worldToVolume = worldToVolume
	return nil
}

// DepthToFloatFrame calls the injected DepthToFloatFrame or bodyscan.DepthToFloat
func (v *Volume) DepthToFloatFrame(raw bodyscan.DepthFrame, dst []float32, minDepth, maxDepth float32) error {
	v.mu.Lock()
	v.lastRaw = append(v.lastRaw[:0], raw...)
	v.mu.Unlock()
	if v.DepthToFloatFrameFunc != nil {
		return v.DepthToFloatFrameFunc(raw, dst, minDepth, maxDepth)
	}
	bodyscan.DepthToFloat(raw, dst, minDepth, maxDepth)
	return nil
}

// AlignFrame calls the injected AlignFrame or aligns successfully
func (v *Volume) AlignFrame(depth []float32, iterations, integrationWeight int, pose bodyscan.Pose) (bodyscan.AlignResult, error) {
	v.mu.Lock()
	v.alignCalls++
	v.mu.Unlock()
	if v.AlignFrameFunc != nil {
		result, err := v.AlignFrameFunc(depth, iterations, integrationWeight, pose)
		if err == nil && result.Aligned {
			v.mu.Lock()
			v.aligned++
			v.mu.Unlock()
		}
		return result, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.aligned++
	t := pose.Translation()
	t.Z += 0.001
	v.pose = pose.WithTranslation(t)
	return bodyscan.AlignResult{Aligned: true, Energy: 0.01}, nil
}

// CurrentPose calls the injected CurrentPose or returns pose estimated by the last alignment
func (v *Volume) CurrentPose() bodyscan.Pose {
	if v.CurrentPoseFunc != nil {
		return v.CurrentPoseFunc()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pose
}

// ComputePointCloud calls the injected ComputePointCloud or returns the pose
func (v *Volume) ComputePointCloud(pose bodyscan.Pose) (bodyscan.PointCloud, error) {
	if v.ComputePointCloudFunc != nil {
		return v.ComputePointCloudFunc(pose)
	}
	return pose, nil
}

// ShadePointCloud calls the injected ShadePointCloud or fills dst with opaque grey
// whose level is the number of aligned frames
func (v *Volume) ShadePointCloud(cloud bodyscan.PointCloud, pose bodyscan.Pose, dst []uint32) error {
	if v.ShadePointCloudFunc != nil {
		return v.ShadePointCloudFunc(cloud, pose, dst)
	}
	v.mu.Lock()
	level := uint32(v.aligned & 0xFF)
	v.mu.Unlock()
	pixel := 0xFF000000 | level<<16 | level<<8 | level
	for i := range dst {
		dst[i] = pixel
	}
	return nil
}

// ExtractMesh calls the injected ExtractMesh or builds one triangle per aligned frame
func (v *Volume) ExtractMesh(levelOfDetail int) (*bodyscan.ScannedMesh, error) {
	if v.ExtractMeshFunc != nil {
		return v.ExtractMeshFunc(levelOfDetail)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	mesh := &bodyscan.ScannedMesh{}
	for i := 0; i < v.aligned; i++ {
		base := int32(len(mesh.Vertices))
		z := float64(i) * 0.001
		mesh.Vertices = append(mesh.Vertices, r3.Vec{X: 0, Y: 0, Z: z}, r3.Vec{X: 1, Y: 0, Z: z}, r3.Vec{X: 0, Y: 1, Z: z})
		mesh.Normals = append(mesh.Normals, r3.Vec{Z: -1}, r3.Vec{Z: -1}, r3.Vec{Z: -1})
		mesh.Indices = append(mesh.Indices, base, base+1, base+2)
	}
	return mesh, nil
}

// Close calls the injected Close and counts calls
func (v *Volume) Close() error {
	v.mu.Lock()
	v.closeCalls++
	v.mu.Unlock()
	if v.CloseFunc != nil {
		return v.CloseFunc()
	}
	return nil
}

// AlignCalls returns number of AlignFrame calls
func (v *Volume) AlignCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alignCalls
}

// AlignedFrames returns number of successfully aligned frames
func (v *Volume) AlignedFrames() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aligned
}

// CloseCalls returns number of Close calls
func (v *Volume) CloseCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closeCalls
}

// LastRawDepth returns copy of the last depth frame passed to DepthToFloatFrame
func (v *Volume) LastRawDepth() bodyscan.DepthFrame {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(bodyscan.DepthFrame, len(v.lastRaw))
	copy(out, v.lastRaw)
	return out
}
