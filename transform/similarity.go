package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/projmap/projcal/spatialmath"
)

// Transform3D is a solved similarity transform together with the factors it
// was composed from. Matrix always equals
// translation * scale * homogenized rotation, with scale and rotation applied
// before translation.
type Transform3D struct {
	Matrix      spatialmath.Mat4
	Scale       float64
	Rotation    spatialmath.Mat3
	Translation r3.Vector
}

// TransformPoint maps a point through the full 4x4 matrix.
func (t *Transform3D) TransformPoint(p r3.Vector) r3.Vector {
	return t.Matrix.TransformPoint(p)
}

// SimilarityResult is the output of the three-point solver: the transform and
// the RMS alignment error over the input pairs, in world units and as a
// fraction of the recovered scale.
type SimilarityResult struct {
	Transform       *Transform3D
	Error           float64
	NormalizedError float64
}

// EstimateSimilarityTransform recovers the rotation, uniform scale and
// translation that best map three projector UV points (lifted onto the z=0
// plane) onto their three measured world positions, using the
// orthonormal-basis alignment method: a local frame is anchored at each point
// triple and the rotation is the one carrying the projector frame onto the
// world frame.
func EstimateSimilarityTransform(projector []r2.Point, world []r3.Vector) (*SimilarityResult, error) {
	if len(projector) != 3 || len(world) != 3 {
		return nil, errors.Wrapf(ErrInsufficientPoints,
			"similarity alignment needs exactly 3 point pairs, got %d projector and %d world", len(projector), len(world))
	}
	projPts := UVsToPoints(projector)
	if spatialmath.AreCollinear(projPts[0], projPts[1], projPts[2]) {
		return nil, errors.Wrap(ErrDegenerateConfiguration, "projector points")
	}
	if spatialmath.AreCollinear(world[0], world[1], world[2]) {
		return nil, errors.Wrap(ErrDegenerateConfiguration, "world points")
	}

	projSpread := spatialmath.PairwiseDistanceSum(projPts[0], projPts[1], projPts[2])
	if projSpread < spatialmath.ZeroVectorTolerance {
		return nil, errors.Wrap(ErrNumericallyUnstable, "projector points span nothing")
	}
	worldSpread := spatialmath.PairwiseDistanceSum(world[0], world[1], world[2])
	scale := worldSpread / projSpread

	projBasis := pointBasis(projPts[0], projPts[1], projPts[2])
	worldBasis := pointBasis(world[0], world[1], world[2])

	// The rotation carrying the projector frame onto the world frame.
	rotation := worldBasis.Mul(projBasis.Transpose())
	translation := world[0].Sub(rotation.MulVec(projPts[0]).Mul(scale))

	matrix := spatialmath.NewTranslationMat4(translation).
		Mul(spatialmath.NewScaleMat4(scale).Mul(rotation.Homogenize()))

	absErr, normErr := AlignmentError(projPts, world, matrix, scale)
	return &SimilarityResult{
		Transform: &Transform3D{
			Matrix:      matrix,
			Scale:       scale,
			Rotation:    rotation,
			Translation: translation,
		},
		Error:           absErr,
		NormalizedError: normErr,
	}, nil
}

// pointBasis builds a right-handed orthonormal frame from three
// non-collinear points: X along the first edge, Y the second edge projected
// onto the plane perpendicular to X, Z their cross product. The columns of
// the returned matrix are the frame's axes. The single projection step for Y
// is a known precision boundary for inputs that barely clear the
// collinearity tolerance; it is deliberately not re-orthogonalized further.
func pointBasis(p0, p1, p2 r3.Vector) spatialmath.Mat3 {
	x := spatialmath.SafeNormalize(p1.Sub(p0))
	y := spatialmath.SafeNormalize(spatialmath.ProjectOntoPlane(p2.Sub(p0), x))
	z := x.Cross(y)
	return spatialmath.NewMat3FromColumns(x, y, z)
}
