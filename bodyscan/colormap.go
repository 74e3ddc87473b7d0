package bodyscan

import (
	"image/color"

	"github.com/pkg/errors"
)

const (
	// DefaultMinDistance is the minimum reliable depth (mm) of the preview palette
	DefaultMinDistance uint16 = 500
	// DefaultMaxDistance is the maximum reliable depth (mm) of the preview palette
	DefaultMaxDistance uint16 = 5000
)

// DepthColorMapper converts depth distances (mm) into greyscale colors.
// The palette is built once; the mapper is read-only afterwards and safe for concurrent use.
type DepthColorMapper struct {
	minDistance uint16
	maxDistance uint16
	palette     []color.RGBA
	packed      []uint32
	// millimetres per intensity step for clamp-to-zero conversion
	intensityStep uint16
}

// DefaultDepthColorMapper creates mapper for [500, 5000] mm range
func DefaultDepthColorMapper() *DepthColorMapper {
	mapper, _ := NewDepthColorMapper(DefaultMinDistance, DefaultMaxDistance)
	return mapper
}

// NewDepthColorMapper builds linear grey ramp across [minDistance, maxDistance]
func NewDepthColorMapper(minDistance, maxDistance uint16) (*DepthColorMapper, error) {
	if minDistance >= maxDistance {
		return nil, errors.Errorf("min distance %d must be less than max distance %d", minDistance, maxDistance)
	}
	size := int(maxDistance-minDistance) + 1
	mapper := DepthColorMapper{
		minDistance:   minDistance,
		maxDistance:   maxDistance,
		palette:       make([]color.RGBA, size),
		packed:        make([]uint32, size),
		intensityStep: maxDistance / 256,
	}
	if mapper.intensityStep == 0 {
		mapper.intensityStep = 1
	}
	span := size - 1
	for i := 0; i < size; i++ {
		grey := uint8(255 * i / span)
		mapper.palette[i] = color.RGBA{R: grey, G: grey, B: grey, A: 255}
		mapper.packed[i] = packARGB(mapper.palette[i])
	}
	return &mapper, nil
}

// MinDistance returns lower bound of the palette
func (mapper *DepthColorMapper) MinDistance() uint16 {
	return mapper.minDistance
}

// MaxDistance returns upper bound of the palette
func (mapper *DepthColorMapper) MaxDistance() uint16 {
	return mapper.maxDistance
}

// Convert returns palette color for distance, clamping it to the palette bounds
func (mapper *DepthColorMapper) Convert(distance uint16) color.RGBA {
	return mapper.palette[mapper.index(distance)]
}

// ConvertPacked is Convert returning 0xAARRGGBB pixel
func (mapper *DepthColorMapper) ConvertPacked(distance uint16) uint32 {
	return mapper.packed[mapper.index(distance)]
}

// Intensity maps distance to a byte, zero outside the reliable range
func (mapper *DepthColorMapper) Intensity(distance uint16) uint8 {
	if distance < mapper.minDistance || distance > mapper.maxDistance {
		return 0
	}
	v := distance / mapper.intensityStep
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (mapper *DepthColorMapper) index(distance uint16) int {
	if distance < mapper.minDistance {
		distance = mapper.minDistance
	} else if distance > mapper.maxDistance {
		distance = mapper.maxDistance
	}
	return int(distance - mapper.minDistance)
}

func packARGB(c color.RGBA) uint32 {
	return uint32(c.B) | uint32(c.G)<<8 | uint32(c.R)<<16 | uint32(c.A)<<24
}
