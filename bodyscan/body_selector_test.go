package bodyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func spineBody(trackingID uint64, x, z float64) TrackedBody {
	return TrackedBody{
		TrackingID: trackingID,
		IsTracked:  true,
		Joints: map[JointType]Joint{
			SpineBase: {Position: r3.Vec{X: x, Y: 0.9, Z: z}, State: Tracked},
		},
	}
}

func TestBodySelectorEligibility(t *testing.T) {
	selector := NewBodySelector(1.5, 3.5, 0.5)

	cases := []struct {
		name     string
		body     TrackedBody
		eligible bool
	}{
		{"centered", spineBody(1, 0, 2.0), true},
		{"at min depth", spineBody(1, 0, 1.5), true},
		{"at max depth", spineBody(1, 0, 3.5), true},
		{"too close", spineBody(1, 0, 1.49), false},
		{"too far", spineBody(1, 0, 3.51), false},
		{"left limit is exclusive", spineBody(1, -0.5, 2.0), false},
		{"right limit is exclusive", spineBody(1, 0.5, 2.0), false},
		{"slightly off axis", spineBody(1, 0.49, 2.0), true},
		{"not tracked", TrackedBody{TrackingID: 1, IsTracked: false, Joints: spineBody(1, 0, 2).Joints}, false},
		{"no joints", TrackedBody{TrackingID: 1, IsTracked: true}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.eligible, selector.IsEligible(&tc.body), tc.name)
	}

	inferred := spineBody(1, 0, 2.0)
	inferred.Joints[SpineBase] = Joint{Position: r3.Vec{Z: 2.0}, State: Inferred}
	assert.False(t, selector.IsEligible(&inferred), "inferred spine base")
}

func TestBodySelectorClosestWins(t *testing.T) {
	selector := NewBodySelectorDefault()
	bodies := []TrackedBody{
		spineBody(10, 0.1, 3.0),
		spineBody(11, 0.0, 1.8),
		spineBody(12, 0.9, 1.6), // closest but off axis
		spineBody(13, -0.2, 2.4),
	}
	id, ok := selector.SelectClosest(bodies)
	assert.True(t, ok)
	assert.Equal(t, uint64(11), id)
}

func TestBodySelectorTieKeepsBodyOrder(t *testing.T) {
	selector := NewBodySelectorDefault()
	bodies := []TrackedBody{
		spineBody(21, 0.1, 2.0),
		spineBody(22, -0.1, 2.0),
	}
	id, ok := selector.SelectClosest(bodies)
	assert.True(t, ok)
	assert.Equal(t, uint64(21), id)
}

func TestBodySelectorNoEligible(t *testing.T) {
	selector := NewBodySelectorDefault()
	id, ok := selector.SelectClosest([]TrackedBody{spineBody(1, 2.0, 2.0), spineBody(2, 0, 5.0)})
	assert.False(t, ok)
	assert.Equal(t, NoTrackingID, id)

	_, ok = selector.SelectClosest(nil)
	assert.False(t, ok)
}

func TestBodySelectorLocate(t *testing.T) {
	selector := NewBodySelectorDefault()
	bodies := []TrackedBody{
		{TrackingID: 0},
		spineBody(7, 0, 2.0),
		spineBody(9, 0, 2.5),
	}
	idx, ok := selector.Locate(bodies, 9)
	assert.True(t, ok)
	assert.Equal(t, uint8(2), idx)

	_, ok = selector.Locate(bodies, 8)
	assert.False(t, ok)

	bodies[2].IsTracked = false
	_, ok = selector.Locate(bodies, 9)
	assert.False(t, ok, "untracked body must not be located")

	_, ok = selector.Locate(bodies, NoTrackingID)
	assert.False(t, ok)
}

func TestBodySelectorClosestOfMany(t *testing.T) {
	selector := NewBodySelector(1.5, 3.5, 0.5)
	bodies := []TrackedBody{
		spineBody(10, 0.1, 2.7),
		spineBody(11, -0.2, 1.9),
		spineBody(12, 0.7, 1.6), // closest but off axis
		spineBody(13, 0.0, 3.1),
		spineBody(14, 0.3, 2.2),
		spineBody(15, 0.0, 1.4), // closer than min depth
	}
	id, ok := selector.SelectClosest(bodies)
	assert.True(t, ok)
	assert.Equal(t, uint64(11), id)
}
