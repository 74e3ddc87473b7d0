package bodyscan

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a position on the floor plane: X is lateral offset, Z is distance from the sensor
type Point struct {
	X float64
	Z float64
}

// NewPoint creates Point
func NewPoint(x, z float64) Point {
	return Point{
		X: x,
		Z: z,
	}
}

// NewPointFrom projects camera space position onto the floor plane
func NewPointFrom(v r3.Vec) Point {
	return Point{
		X: v.X,
		Z: v.Z,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Z-p2.Z, 2))
}
