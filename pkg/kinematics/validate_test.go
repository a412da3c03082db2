package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"robotpath/pkg/transform"
)

func TestLimitsCheck(t *testing.T) {
	limits := Limits{
		{-185, 185}, {-130, 20}, {-100, 144}, {-350, 350}, {-120, 120}, {-350, 350},
	}

	ok := JointAngles{0, -90, 90, 0, 90, 0}
	assert.Nil(t, limits.Check(ok))

	// One joint exactly 1 degree beyond its max, everything else valid.
	over := ok
	over[1] = 21
	v := limits.Check(over)
	if assert.NotNil(t, v) {
		assert.Equal(t, 1, v.Joint)
		assert.Equal(t, 21.0, v.Value)
		assert.Equal(t, 20.0, v.Max)
	}

	// Boundary values are inclusive.
	edge := ok
	edge[1] = 20
	assert.Nil(t, limits.Check(edge))
	edge[1] = -130
	assert.Nil(t, limits.Check(edge))
}

func TestLimitsRejectNonFinite(t *testing.T) {
	limits := Limits{
		{-185, 185}, {-130, 20}, {-100, 144}, {-350, 350}, {-120, 120}, {-350, 350},
	}
	bad := JointAngles{0, math.NaN(), 0, 0, 0, 0}
	assert.NotNil(t, limits.Check(bad))
	bad[1] = math.Inf(1)
	assert.NotNil(t, limits.Check(bad))
}

func TestLimitsValidate(t *testing.T) {
	inverted := Limits{{10, -10}}
	assert.Error(t, inverted.Validate())

	nan := Limits{{math.NaN(), 10}}
	assert.Error(t, nan.Validate())
}

func TestBaseCylinderContains(t *testing.T) {
	cyl := BaseCylinder{Radius: 400, Height: 1045}

	tests := []struct {
		name string
		p    transform.Vec3
		want bool
	}{
		{"inside at mid height", transform.Vec3{X: 300, Y: 0, Z: 500}, true},
		{"inside diagonal", transform.Vec3{X: 200, Y: 200, Z: 100}, true},
		{"on radius boundary", transform.Vec3{X: 400, Y: 0, Z: 500}, true},
		{"outside radius", transform.Vec3{X: 401, Y: 0, Z: 500}, false},
		{"above cylinder", transform.Vec3{X: 100, Y: 0, Z: 1100}, false},
		{"below base plate", transform.Vec3{X: 100, Y: 0, Z: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cyl.Contains(tt.p))
		})
	}
}

func TestBaseCylinderZeroRadiusDisabled(t *testing.T) {
	cyl := BaseCylinder{Radius: 0, Height: 1045}
	assert.False(t, cyl.Contains(transform.Vec3{X: 0, Y: 0, Z: 10}))
}
