package bodyscan

// BodySelector decides which tracked body is a valid scan subject and locates it on later ticks
type BodySelector struct {
	// Spine base depth range (meters)
	minDepth float64
	maxDepth float64
	// Max absolute lateral offset of spine base (meters)
	lateralLimit float64
}

// NewBodySelectorDefault creates selector with default reconstruction parameters
func NewBodySelectorDefault() *BodySelector {
	cfg := DefaultReconstructionConfig()
	return NewBodySelector(cfg.MinDepth, cfg.MaxDepth, cfg.LateralLimit)
}

// NewBodySelector creates new instance of BodySelector
func NewBodySelector(minDepth, maxDepth, lateralLimit float32) *BodySelector {
	return &BodySelector{
		minDepth:     float64(minDepth),
		maxDepth:     float64(maxDepth),
		lateralLimit: float64(lateralLimit),
	}
}

// IsEligible checks if the body is suitable for reconstruction:
// body and its spine base are tracked, spine base lies within the depth range and near the sensor axis.
func (selector *BodySelector) IsEligible(body *TrackedBody) bool {
	if !body.IsTracked {
		return false
	}
	spineBase := body.Joint(SpineBase)
	if spineBase.State != Tracked {
		return false
	}
	pos := spineBase.Position
	return selector.minDepth <= pos.Z && pos.Z <= selector.maxDepth &&
		-selector.lateralLimit < pos.X && pos.X < selector.lateralLimit
}

// SelectClosest returns tracking ID of the eligible body with the smallest spine base depth.
// On equal depth the body listed first wins.
func (selector *BodySelector) SelectClosest(bodies []TrackedBody) (uint64, bool) {
	closest := -1
	closestDepth := 0.0
	for i := range bodies {
		if !selector.IsEligible(&bodies[i]) {
			continue
		}
		depth := bodies[i].Joint(SpineBase).Position.Z
		if closest < 0 || depth < closestDepth {
			closest = i
			closestDepth = depth
		}
	}
	if closest < 0 {
		return NoTrackingID, false
	}
	return bodies[closest].TrackingID, true
}

// Locate returns body index (position in the tick's body list) of the tracked body with given ID
func (selector *BodySelector) Locate(bodies []TrackedBody, trackingID uint64) (uint8, bool) {
	if trackingID == NoTrackingID {
		return NoBody, false
	}
	for i := range bodies {
		if i >= int(NoBody) {
			break
		}
		if bodies[i].IsTracked && bodies[i].TrackingID == trackingID {
			return uint8(i), true
		}
	}
	return NoBody, false
}
