package bodyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func skeletonBody(head r3.Vec) *TrackedBody {
	return &TrackedBody{
		TrackingID: 1,
		IsTracked:  true,
		Joints: map[JointType]Joint{
			Head:       {Position: head, State: Tracked},
			AnkleLeft:  {Position: r3.Vec{X: 0.1, Y: 0, Z: 2.0}, State: Tracked},
			AnkleRight: {Position: r3.Vec{X: -0.1, Y: 0, Z: 2.0}, State: Tracked},
		},
	}
}

func TestInclinationDegree(t *testing.T) {
	degree, ok := InclinationDegree(skeletonBody(r3.Vec{X: 0, Y: 1.7, Z: 2.0}))
	assert.True(t, ok)
	assert.InDelta(t, 0.0, degree, 1e-4)

	degree, ok = InclinationDegree(skeletonBody(r3.Vec{X: 0.5, Y: 1.5, Z: 2.0}))
	assert.True(t, ok)
	assert.InDelta(t, 7.93901, degree, 1e-3)

	// Head closer to the sensor than ankles wraps the value
	degree, ok = InclinationDegree(skeletonBody(r3.Vec{X: 0.5, Y: 1.5, Z: 1.8}))
	assert.True(t, ok)
	assert.InDelta(t, 349.88699, degree, 1e-3)
}

func TestInclinationDegreeUntracked(t *testing.T) {
	body := skeletonBody(r3.Vec{Y: 1.7, Z: 2})
	body.Joints[Head] = Joint{State: NotTracked}
	_, ok := InclinationDegree(body)
	assert.False(t, ok)

	_, ok = InclinationDegree(&TrackedBody{})
	assert.False(t, ok)
}

func TestSampleLatch(t *testing.T) {
	var latch SampleLatch
	assert.False(t, latch.Armed())
	assert.False(t, latch.TryConsume())

	latch.Arm()
	assert.True(t, latch.Armed())
	assert.True(t, latch.TryConsume())
	assert.False(t, latch.TryConsume(), "latch fires once per arming")

	latch.Arm()
	latch.Reset()
	assert.False(t, latch.Armed())
}
