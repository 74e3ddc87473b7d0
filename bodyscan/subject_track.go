package bodyscan

import (
	"sync"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// SubjectTrack follows spine base of the locked-on body on the floor plane.
// Position is smoothed with 2D Kalman filter; ticks where the body could not be found are counted.
// It is safe for concurrent use: the reconstruction updates it while UI may read it.
type SubjectTrack struct {
	mu                    sync.RWMutex
	trackingID            uint64
	origin                Point
	currentPosition       Point
	predictedNextPosition Point
	track                 []Point
	maxTrackLen           int
	lostTicks             int
	totalLostTicks        int
	tracker               *kalman_filter.Kalman2D
}

// NewSubjectTrackWithTime creates track starting at position with time step dt (seconds)
func NewSubjectTrackWithTime(trackingID uint64, position Point, dt float64) *SubjectTrack {
	/* Kalman filter props */
	ux := 0.0
	uy := 0.0
	stdDevA := 0.5
	stdDevMx := 0.02
	stdDevMy := 0.02
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(position.X, position.Z))
	track := SubjectTrack{
		trackingID:            trackingID,
		origin:                position,
		currentPosition:       position,
		predictedNextPosition: position,
		track:                 make([]Point, 0, 150),
		maxTrackLen:           150,
		tracker:               kf,
	}
	track.track = append(track.track, position)
	return &track
}

// NewSubjectTrack creates track for 30 fps sensor
func NewSubjectTrack(trackingID uint64, position Point) *SubjectTrack {
	return NewSubjectTrackWithTime(trackingID, position, 1.0/30.0)
}

// TrackingID returns identity of the followed body
func (st *SubjectTrack) TrackingID() uint64 {
	return st.trackingID
}

// Position returns smoothed position
func (st *SubjectTrack) Position() Point {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.currentPosition
}

// PredictedPosition returns position predicted for the next tick
func (st *SubjectTrack) PredictedPosition() Point {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.predictedNextPosition
}

// Drift returns distance between smoothed position and position at lock-on
func (st *SubjectTrack) Drift() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return euclideanDistance(st.origin, st.currentPosition)
}

// Track returns copy of recent smoothed positions
func (st *SubjectTrack) Track() []Point {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Point, len(st.track))
	copy(out, st.track)
	return out
}

// LostTicks returns number of consecutive ticks the body has not been found
func (st *SubjectTrack) LostTicks() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lostTicks
}

// TotalLostTicks returns number of ticks the body has not been found since lock-on
func (st *SubjectTrack) TotalLostTicks() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.totalLostTicks
}

// MarkLost registers a tick where the body was not found. Kalman filter only predicts
func (st *SubjectTrack) MarkLost() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.predict()
	st.lostTicks++
	st.totalLostTicks++
}

// Update registers measured position: predict + correct
func (st *SubjectTrack) Update(measurement Point) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.predict()
	err := st.tracker.Update(measurement.X, measurement.Z)
	if err != nil {
		return errors.Wrap(err, "can't update subject tracker")
	}
	stateX, stateZ := st.tracker.GetState()
	st.currentPosition = Point{X: stateX, Z: stateZ}
	st.lostTicks = 0
	st.track = append(st.track, st.currentPosition)
	if len(st.track) > st.maxTrackLen {
		st.track = st.track[1:]
	}
	return nil
}

func (st *SubjectTrack) predict() {
	st.tracker.Predict()
	stateX, stateZ := st.tracker.GetState()
	st.predictedNextPosition = Point{X: stateX, Z: stateZ}
}
