package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/projmap/projcal/spatialmath"
)

// ProjectionDecomposition splits a 3x4 projection matrix P into P = K[R|t]:
// upper-triangular intrinsics K with K[2][2] = 1 and a positive diagonal, an
// orthonormal rotation R with determinant +1, and the translation t.
type ProjectionDecomposition struct {
	Intrinsics  spatialmath.Mat3
	Rotation    spatialmath.Mat3
	Translation r3.Vector
}

// DecomposeProjectionMatrix factors a solved 3x4 projection matrix into
// intrinsics, rotation and translation. The left 3x3 block M = K*R is split
// with an RQ decomposition; the fourth column gives t = K^-1 * P[:,3].
func DecomposeProjectionMatrix(p *mat.Dense) (*ProjectionDecomposition, error) {
	rows, cols := p.Dims()
	if rows != 3 || cols != 4 {
		return nil, errors.Errorf("projection matrix must be 3x4, got %dx%d", rows, cols)
	}
	m := mat.DenseCopyOf(p.Slice(0, 3, 0, 3))

	k, r := rqDecompose(m)

	// Force a positive diagonal on K. D is its own inverse, so K*D and D*R
	// multiply back to the same M.
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		if k.At(i, i) < 0 {
			d.Set(i, i, -1)
		} else {
			d.Set(i, i, 1)
		}
	}
	k.Mul(k, d)
	r.Mul(d, r)

	if math.Abs(k.At(2, 2)) < spatialmath.ZeroVectorTolerance {
		return nil, errors.Wrap(ErrNumericallyUnstable, "intrinsic matrix has a vanishing lower-right element")
	}

	// t = K^-1 * P[:,3], taken before K is normalized: the solved P carries an
	// arbitrary overall scale, and the unnormalized K absorbs it so that the
	// translation comes out in world units.
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return nil, errors.Wrap(err, "intrinsic matrix is not invertible")
	}
	p4 := mat.NewDense(3, 1, []float64{p.At(0, 3), p.At(1, 3), p.At(2, 3)})
	var t mat.Dense
	t.Mul(&kInv, p4)

	k.Scale(1/k.At(2, 2), k)

	// A proper rotation has determinant +1; the projection matrix is only
	// defined up to sign, so flip R and t together if needed.
	if mat.Det(r) < 0 {
		r.Scale(-1, r)
		t.Scale(-1, &t)
	}

	return &ProjectionDecomposition{
		Intrinsics:  spatialmath.NewMat3FromDense(k),
		Rotation:    spatialmath.NewMat3FromDense(r),
		Translation: r3.Vector{X: t.At(0, 0), Y: t.At(1, 0), Z: t.At(2, 0)},
	}, nil
}

// rqDecompose factors a 3x3 matrix M into an upper-triangular K and an
// orthogonal Q with M = K*Q. It runs QR on the transpose of the row-reversed
// matrix and reverses the factors back: with E the row-exchange matrix and
// (E*M)^T = Q~*R~, K = E*R~^T*E and Q = E*Q~^T.
func rqDecompose(m *mat.Dense) (k, q *mat.Dense) {
	var qr mat.QR
	qr.Factorize(transposeDense(reverseRows(m)))

	qTilde, rTilde := &mat.Dense{}, &mat.Dense{}
	qr.QTo(qTilde)
	qr.RTo(rTilde)

	k = reverseRows(reverseCols(transposeDense(rTilde)))
	q = reverseRows(transposeDense(qTilde))
	return k, q
}
