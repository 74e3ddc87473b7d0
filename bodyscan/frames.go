package bodyscan

// NoBody is the body index frame value of pixels which belong to no tracked body
const NoBody uint8 = 255

// DepthFrame holds per-pixel distances in millimeters, row by row
type DepthFrame []uint16

// BodyIndexFrame holds per-pixel owner body index (or NoBody), same layout as DepthFrame
type BodyIndexFrame []uint8

// MaskDepth zeroes every depth sample whose body index differs from bodyIndex.
// Frames are expected to be the same length; extra samples of the longer one are left untouched.
func MaskDepth(depth DepthFrame, bodyIndexes BodyIndexFrame, bodyIndex uint8) {
	n := len(depth)
	if len(bodyIndexes) < n {
		n = len(bodyIndexes)
	}
	for i := 0; i < n; i++ {
		if bodyIndexes[i] != bodyIndex {
			depth[i] = 0
		}
	}
}

// DepthToFloat converts millimeter depth into meters.
// Samples outside [minDepth, maxDepth] meters become 0 (no measurement).
func DepthToFloat(raw DepthFrame, dst []float32, minDepth, maxDepth float32) {
	n := len(raw)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		meters := float32(raw[i]) / 1000.0
		if meters < minDepth || meters > maxDepth {
			dst[i] = 0
			continue
		}
		dst[i] = meters
	}
}
