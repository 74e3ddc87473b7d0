package bodyscan

import (
	"math"

	"go.uber.org/atomic"
	"gonum.org/v1/gonum/spatial/r3"
)

// SampleLatch tells a skeleton sampler that the reconstruction has aligned a frame
// and a skeleton sample may be captured now.
type SampleLatch struct {
	armed atomic.Bool
}

// Arm allows the next capture
func (l *SampleLatch) Arm() {
	l.armed.Store(true)
}

// Armed returns true if a capture is allowed
func (l *SampleLatch) Armed() bool {
	return l.armed.Load()
}

// TryConsume disarms the latch and returns true if it was armed
func (l *SampleLatch) TryConsume() bool {
	return l.armed.CompareAndSwap(true, false)
}

// Reset disarms the latch
func (l *SampleLatch) Reset() {
	l.armed.Store(false)
}

// InclinationDegree computes body inclination value stored alongside skeleton samples.
//
// The value is kept bit-compatible with previously exported skeleton data:
// head and mid-ankle are taken in the mirrored (X and Z negated) frame, the asin of the
// short edge / hypotenuse ratio is halved and multiplied by 100, and it is subtracted from 360
// when the head is behind the ankle plane. It returns false if head or ankles are not tracked.
func InclinationDegree(body *TrackedBody) (float32, bool) {
	head := body.Joint(Head)
	leftAnkle := body.Joint(AnkleLeft)
	rightAnkle := body.Joint(AnkleRight)
	if head.State == NotTracked || leftAnkle.State == NotTracked || rightAnkle.State == NotTracked {
		return 0, false
	}

	headMirrored := r3.Vec{X: -head.Position.X, Y: head.Position.Y, Z: -head.Position.Z}
	middleAnkle := r3.Vec{
		X: (rightAnkle.Position.X + leftAnkle.Position.X) / -2,
		Y: (rightAnkle.Position.Y + leftAnkle.Position.Y) / 2,
		Z: (rightAnkle.Position.Z + leftAnkle.Position.Z) / -2,
	}
	// Head X is taken unmirrored here
	thirdCorner := r3.Vec{
		X: (head.Position.X + middleAnkle.X) / -2,
		Y: head.Position.Y,
		Z: (rightAnkle.Position.Z + leftAnkle.Position.Z) / -2,
	}

	hypotenuse := r3.Norm(r3.Sub(headMirrored, middleAnkle))
	shortEdge := r3.Norm(r3.Sub(headMirrored, thirdCorner))
	if hypotenuse == 0 {
		return 0, false
	}

	degree := float32(math.Asin(shortEdge / hypotenuse))
	degree = (degree / 2) * 100
	if headMirrored.Z > middleAnkle.Z {
		degree = 360 - degree
	}
	return degree, true
}
