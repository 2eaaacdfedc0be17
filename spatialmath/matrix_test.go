package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func rotationAboutZ(theta float64) Mat3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Mat3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

func TestMat3Ops(t *testing.T) {
	r := rotationAboutZ(math.Pi / 2)
	v := r.MulVec(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0)

	test.That(t, r.Det(), test.ShouldAlmostEqual, 1)

	// a rotation's transpose is its inverse
	ident := r.Mul(r.Transpose())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1.
			}
			test.That(t, ident.At(i, j), test.ShouldAlmostEqual, want)
		}
	}
}

func TestMat3Columns(t *testing.T) {
	m := NewMat3FromColumns(
		r3.Vector{X: 1, Y: 2, Z: 3},
		r3.Vector{X: 4, Y: 5, Z: 6},
		r3.Vector{X: 7, Y: 8, Z: 9},
	)
	test.That(t, m.At(0, 0), test.ShouldEqual, 1)
	test.That(t, m.At(1, 0), test.ShouldEqual, 2)
	test.That(t, m.At(0, 1), test.ShouldEqual, 4)
	test.That(t, m.At(2, 2), test.ShouldEqual, 9)
}

func TestMat3DenseRoundTrip(t *testing.T) {
	m := rotationAboutZ(0.3)
	back := NewMat3FromDense(m.Dense())
	test.That(t, back, test.ShouldResemble, m)

	d := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	test.That(t, NewMat3FromDense(d).At(1, 2), test.ShouldEqual, 6)
}

func TestMat4Compose(t *testing.T) {
	// translation * scale * rotation applies rotation first, translation last
	m := NewTranslationMat4(r3.Vector{X: 10, Y: 0, Z: 0}).
		Mul(NewScaleMat4(2).Mul(rotationAboutZ(math.Pi / 2).Homogenize()))
	out := m.TransformPoint(r3.Vector{X: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 10)
	test.That(t, out.Y, test.ShouldAlmostEqual, 2)
	test.That(t, out.Z, test.ShouldAlmostEqual, 0)
}

func TestMat4TransformPointHomogeneousDivide(t *testing.T) {
	m := NewIdentityMat4()
	m[3][3] = 2
	out := m.TransformPoint(r3.Vector{X: 4, Y: 6, Z: 8})
	test.That(t, out, test.ShouldResemble, r3.Vector{X: 2, Y: 3, Z: 4})

	// a vanishing homogeneous coordinate returns the undivided result
	m[3][3] = 0
	out = m.TransformPoint(r3.Vector{X: 4, Y: 6, Z: 8})
	test.That(t, out, test.ShouldResemble, r3.Vector{X: 4, Y: 6, Z: 8})
}

func TestMat4Transpose(t *testing.T) {
	m := NewTranslationMat4(r3.Vector{X: 1, Y: 2, Z: 3})
	mt := m.Transpose()
	test.That(t, mt.At(3, 0), test.ShouldEqual, 1)
	test.That(t, mt.At(3, 1), test.ShouldEqual, 2)
	test.That(t, mt.At(3, 2), test.ShouldEqual, 3)
	test.That(t, mt.Transpose(), test.ShouldResemble, m)
}
