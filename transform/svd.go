package transform

import (
	"gonum.org/v1/gonum/mat"
)

// matsSVD stores the matrices from SVD decomposition.
type matsSVD struct {
	U  *mat.Dense
	V  *mat.Dense
	VT *mat.Dense
	S  *mat.Dense
}

// performSVD performs SVD on inputMatrix and returns matrices U, Sigma and V
// from the decomposition, or nil if the factorization fails.
func performSVD(inputMatrix *mat.Dense) *matsSVD {
	var svd mat.SVD
	ok := svd.Factorize(inputMatrix, mat.SVDFull)
	if !ok {
		return nil
	}

	u, v, sigma, vt := &mat.Dense{}, &mat.Dense{}, &mat.Dense{}, &mat.Dense{}

	svd.UTo(u)
	svd.VTo(v)
	vt.CloneFrom(v.T())

	singularValues := svd.Values(nil)
	sigma.CloneFrom(mat.NewDiagDense(len(singularValues), singularValues))

	return &matsSVD{u, v, vt, sigma}
}

// transposeDense returns the transpose of m as a new dense matrix.
func transposeDense(m *mat.Dense) *mat.Dense {
	nRows, nCols := m.Dims()
	m2 := mat.NewDense(nCols, nRows, nil)
	m2.Copy(m.T())
	return m2
}

// reverseRows returns m with its row order reversed.
func reverseRows(m *mat.Dense) *mat.Dense {
	nRows, nCols := m.Dims()
	out := mat.NewDense(nRows, nCols, nil)
	for i := 0; i < nRows; i++ {
		out.SetRow(i, mat.Row(nil, nRows-1-i, m))
	}
	return out
}

// reverseCols returns m with its column order reversed.
func reverseCols(m *mat.Dense) *mat.Dense {
	nRows, nCols := m.Dims()
	out := mat.NewDense(nRows, nCols, nil)
	for j := 0; j < nCols; j++ {
		out.SetCol(j, mat.Col(nil, nCols-1-j, m))
	}
	return out
}
