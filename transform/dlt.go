package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/projmap/projcal/spatialmath"
)

// MinDLTPoints is the smallest number of correspondence pairs the DLT solver
// accepts. Each pair contributes two rows to the 2n x 12 system, and the
// eleven degrees of freedom of a projection matrix need at least four pairs.
const MinDLTPoints = 4

// DLTResult is the output of the projection solver: the 3x4 projection
// matrix, its decomposition into intrinsics, rotation and translation, and
// the RMS reprojection error in projector-UV units.
type DLTResult struct {
	Projection  *mat.Dense
	Intrinsics  spatialmath.Mat3
	Rotation    spatialmath.Mat3
	Translation r3.Vector
	Error       float64
}

// Project maps a world point through the projection matrix with perspective
// divide, returning projector UV coordinates.
func (res *DLTResult) Project(p r3.Vector) r2.Point {
	return projectThrough(res.Projection, p)
}

// EstimateProjectionDLT recovers a full perspective projection from four or
// more projector-UV/world correspondences using the direct linear transform:
// each pair contributes two rows to a homogeneous 2n x 12 system A*p = 0
// whose least-squares solution is the right-singular vector of the smallest
// singular value. Near-degenerate configurations do not fail outright; they
// surface as a large reprojection error and ill-conditioned intrinsics.
func EstimateProjectionDLT(projector []r2.Point, world []r3.Vector) (*DLTResult, error) {
	if len(projector) != len(world) {
		return nil, errors.Errorf("projector and world point counts differ: %d != %d", len(projector), len(world))
	}
	if len(projector) < MinDLTPoints {
		return nil, errors.Wrapf(ErrInsufficientPoints,
			"DLT needs at least %d point pairs, got %d", MinDLTPoints, len(projector))
	}
	n := len(projector)

	a := mat.NewDense(2*n, 12, nil)
	for i := 0; i < n; i++ {
		u, v := projector[i].X, projector[i].Y
		w := world[i]
		a.SetRow(2*i, []float64{
			w.X, w.Y, w.Z, 1,
			0, 0, 0, 0,
			-u * w.X, -u * w.Y, -u * w.Z, -u,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, 0,
			w.X, w.Y, w.Z, 1,
			-v * w.X, -v * w.Y, -v * w.Z, -v,
		})
	}

	mats := performSVD(a)
	if mats == nil {
		return nil, errors.New("failed to factorize DLT system")
	}
	// The null-space direction is the column of V for the smallest singular
	// value; reshape it into the 3x4 projection matrix.
	pData := mat.Col(nil, 11, mats.V)
	p := mat.NewDense(3, 4, pData)

	decomp, err := DecomposeProjectionMatrix(p)
	if err != nil {
		return nil, err
	}

	return &DLTResult{
		Projection:  p,
		Intrinsics:  decomp.Intrinsics,
		Rotation:    decomp.Rotation,
		Translation: decomp.Translation,
		Error:       reprojectionError(p, projector, world),
	}, nil
}

// reprojectionError is the RMS distance, in UV units, between each observed
// projector point and its world correspondence projected through p.
func reprojectionError(p *mat.Dense, projector []r2.Point, world []r3.Vector) float64 {
	if len(projector) == 0 {
		return 0
	}
	sumSq := 0.
	for i, w := range world {
		uv := projectThrough(p, w)
		dx := uv.X - projector[i].X
		dy := uv.Y - projector[i].Y
		sumSq += dx*dx + dy*dy
	}
	return math.Sqrt(sumSq / float64(len(projector)))
}

// projectThrough applies the 3x4 projection to a homogeneous world point and
// perspective-divides, with the usual guard against a vanishing w.
func projectThrough(p *mat.Dense, pt r3.Vector) r2.Point {
	u := p.At(0, 0)*pt.X + p.At(0, 1)*pt.Y + p.At(0, 2)*pt.Z + p.At(0, 3)
	v := p.At(1, 0)*pt.X + p.At(1, 1)*pt.Y + p.At(1, 2)*pt.Z + p.At(1, 3)
	w := p.At(2, 0)*pt.X + p.At(2, 1)*pt.Y + p.At(2, 2)*pt.Z + p.At(2, 3)
	if math.Abs(w) > spatialmath.ZeroVectorTolerance {
		return r2.Point{X: u / w, Y: v / w}
	}
	return r2.Point{X: u, Y: v}
}
