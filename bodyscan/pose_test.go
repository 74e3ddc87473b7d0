package bodyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPoseIdentity(t *testing.T) {
	p := IdentityPose()
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	assert.Equal(t, v, p.Apply(v))
	assert.True(t, p.Equal(Pose{}, 0), "zero Pose behaves as identity")
}

func TestPoseTranslation(t *testing.T) {
	p := IdentityPose().WithTranslation(r3.Vec{X: 128, Y: 128, Z: -192})
	assert.Equal(t, r3.Vec{X: 128, Y: 128, Z: -192}, p.Translation())
	assert.Equal(t, r3.Vec{X: 129, Y: 128, Z: -191}, p.Apply(r3.Vec{X: 1, Z: 1}))
	assert.Equal(t, r3.Vec{}, IdentityPose().Translation(), "WithTranslation must not modify the receiver")
}

func TestPoseCompose(t *testing.T) {
	a := IdentityPose().WithTranslation(r3.Vec{X: 1})
	b := IdentityPose().WithTranslation(r3.Vec{Z: 2})
	c := a.Compose(b)
	assert.Equal(t, r3.Vec{X: 1, Z: 2}, c.Translation())

	rot := NewPose([16]float64{
		0, -1, 0, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	assert.True(t, rot.Apply(r3.Vec{X: 1}).Y == 1)
	assert.Equal(t, float64(-1), rot.At(0, 1))
	assert.Equal(t, float64(1), rot.Values()[15])
}
