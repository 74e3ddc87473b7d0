package bodyscan

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a 4x4 homogeneous rigid transform.
// Poses are treated as values: methods never modify the receiver.
type Pose struct {
	m *mat.Dense
}

// IdentityPose returns identity transform
func IdentityPose() Pose {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return Pose{m: m}
}

// NewPose creates pose from row-major 4x4 values
func NewPose(rowMajor [16]float64) Pose {
	data := make([]float64, 16)
	copy(data, rowMajor[:])
	return Pose{m: mat.NewDense(4, 4, data)}
}

func (p Pose) dense() *mat.Dense {
	if p.m == nil {
		return IdentityPose().m
	}
	return p.m
}

// At returns element at (row, col)
func (p Pose) At(row, col int) float64 {
	return p.dense().At(row, col)
}

// Values returns row-major copy of the matrix
func (p Pose) Values() [16]float64 {
	var out [16]float64
	copy(out[:], p.dense().RawMatrix().Data)
	return out
}

// Translation returns translation column
func (p Pose) Translation() r3.Vec {
	m := p.dense()
	return r3.Vec{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
}

// WithTranslation returns copy of the pose with translation replaced
func (p Pose) WithTranslation(t r3.Vec) Pose {
	m := mat.DenseCopyOf(p.dense())
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return Pose{m: m}
}

// Compose returns p * other
func (p Pose) Compose(other Pose) Pose {
	var m mat.Dense
	m.Mul(p.dense(), other.dense())
	return Pose{m: &m}
}

// Apply transforms a point
func (p Pose) Apply(v r3.Vec) r3.Vec {
	m := p.dense()
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z + m.At(0, 3),
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z + m.At(1, 3),
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z + m.At(2, 3),
	}
}

// Equal reports whether poses are element-wise equal within tol
func (p Pose) Equal(other Pose, tol float64) bool {
	return mat.EqualApprox(p.dense(), other.dense(), tol)
}
