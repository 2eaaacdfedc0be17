package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestSafeNormalize(t *testing.T) {
	v := SafeNormalize(r3.Vector{X: 3, Y: 4, Z: 0})
	test.That(t, v.X, test.ShouldAlmostEqual, 0.6)
	test.That(t, v.Y, test.ShouldAlmostEqual, 0.8)
	test.That(t, v.Norm(), test.ShouldAlmostEqual, 1)

	// near-zero input yields the zero vector instead of dividing by zero
	zero := SafeNormalize(r3.Vector{X: 1e-12, Y: -1e-13, Z: 0})
	test.That(t, zero, test.ShouldResemble, r3.Vector{})
}

func TestProjectOntoPlane(t *testing.T) {
	n := r3.Vector{X: 1, Y: 0, Z: 0}
	v := r3.Vector{X: 2, Y: 3, Z: -1}
	proj := ProjectOntoPlane(v, n)
	test.That(t, proj.X, test.ShouldAlmostEqual, 0)
	test.That(t, proj.Y, test.ShouldAlmostEqual, 3)
	test.That(t, proj.Z, test.ShouldAlmostEqual, -1)
	test.That(t, proj.Dot(n), test.ShouldAlmostEqual, 0)
}

func TestAreCollinear(t *testing.T) {
	test.That(t, AreCollinear(
		r3.Vector{},
		r3.Vector{X: 1},
		r3.Vector{X: 2},
	), test.ShouldBeTrue)
	test.That(t, AreCollinear(
		r3.Vector{},
		r3.Vector{X: 1},
		r3.Vector{X: 2, Y: 1e-8},
	), test.ShouldBeTrue)
	test.That(t, AreCollinear(
		r3.Vector{},
		r3.Vector{X: 1},
		r3.Vector{Y: 1},
	), test.ShouldBeFalse)
}

func TestPairwiseDistanceSum(t *testing.T) {
	sum := PairwiseDistanceSum(
		r3.Vector{},
		r3.Vector{X: 1},
		r3.Vector{Y: 1},
	)
	test.That(t, sum, test.ShouldAlmostEqual, 2+math.Sqrt2)
}
