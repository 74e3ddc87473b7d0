package bodyscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectTrackSmoothing(t *testing.T) {
	track := NewSubjectTrack(5, NewPoint(0.0, 2.0))
	assert.Equal(t, uint64(5), track.TrackingID())

	// Jittering measurements around a still body
	measurements := []Point{
		{X: 0.02, Z: 2.01}, {X: -0.01, Z: 1.98}, {X: 0.01, Z: 2.02},
		{X: -0.02, Z: 1.99}, {X: 0.00, Z: 2.00}, {X: 0.01, Z: 2.01},
	}
	for _, m := range measurements {
		require.NoError(t, track.Update(m))
	}
	pos := track.Position()
	assert.InDelta(t, 0.0, pos.X, 0.05)
	assert.InDelta(t, 2.0, pos.Z, 0.05)
	assert.Less(t, track.Drift(), 0.05)
	assert.Len(t, track.Track(), len(measurements)+1)
	assert.Equal(t, 0, track.LostTicks())
}

func TestSubjectTrackLostTicks(t *testing.T) {
	track := NewSubjectTrack(1, NewPoint(0.1, 2.5))
	track.MarkLost()
	track.MarkLost()
	assert.Equal(t, 2, track.LostTicks())
	assert.Equal(t, 2, track.TotalLostTicks())

	require.NoError(t, track.Update(NewPoint(0.1, 2.5)))
	assert.Equal(t, 0, track.LostTicks())
	assert.Equal(t, 2, track.TotalLostTicks())

	predicted := track.PredictedPosition()
	assert.False(t, math.IsNaN(predicted.X) || math.IsNaN(predicted.Z))
}

func TestSubjectTrackMaxLen(t *testing.T) {
	track := NewSubjectTrack(1, NewPoint(0, 2))
	for i := 0; i < 200; i++ {
		require.NoError(t, track.Update(NewPoint(0, 2)))
	}
	assert.Len(t, track.Track(), 150)
}
