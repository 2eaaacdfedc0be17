// Package spatialmath provides the geometric vocabulary shared by the
// calibration solvers: tolerance-guarded vector operations and fixed-size
// matrix values for rigid and similarity transforms.
package spatialmath

import (
	"github.com/golang/geo/r3"
)

const (
	// CollinearityTolerance bounds the cross-product magnitude below which
	// three points are treated as collinear and cannot anchor a frame.
	CollinearityTolerance = 1e-6

	// ZeroVectorTolerance bounds the vector length below which a direction
	// is considered undefined.
	ZeroVectorTolerance = 1e-10
)

// SafeNormalize returns v scaled to unit length. A vector shorter than
// ZeroVectorTolerance yields the zero vector rather than dividing by zero;
// callers that depend on the direction must check the length first.
func SafeNormalize(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n < ZeroVectorTolerance {
		return r3.Vector{}
	}
	return v.Mul(1. / n)
}

// ProjectOntoPlane removes from v its component along the unit normal n,
// leaving the part of v that lies in the plane perpendicular to n.
func ProjectOntoPlane(v, n r3.Vector) r3.Vector {
	return v.Sub(n.Mul(v.Dot(n)))
}

// AreCollinear reports whether the three points fail to span a plane, i.e.
// the cross product of the two edge vectors from p0 is below
// CollinearityTolerance.
func AreCollinear(p0, p1, p2 r3.Vector) bool {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Norm() < CollinearityTolerance
}

// PairwiseDistanceSum sums the distances over the three point-pair
// combinations (0,1), (0,2), (1,2).
func PairwiseDistanceSum(p0, p1, p2 r3.Vector) float64 {
	return p0.Distance(p1) + p0.Distance(p2) + p1.Distance(p2)
}
