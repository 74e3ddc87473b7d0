package bodyscan

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Z: 264}
	p2 := Point{X: 421, Z: 427}
	correctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
}

func TestNewPointFrom(t *testing.T) {
	p := NewPointFrom(r3.Vec{X: 0.25, Y: 1.1, Z: 2.5})
	if p.X != 0.25 || p.Z != 2.5 {
		t.Errorf("Wrong projection: %+v", p)
	}
}
