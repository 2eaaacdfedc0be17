package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Mat3 is a row-major 3x3 matrix value. Indices are [row][column].
type Mat3 [3][3]float64

// Mat4 is a row-major 4x4 matrix value used for homogeneous transforms.
// Indices are [row][column].
type Mat4 [4][4]float64

// NewMat3FromColumns builds a 3x3 matrix whose columns are the given vectors.
func NewMat3FromColumns(c0, c1, c2 r3.Vector) Mat3 {
	return Mat3{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}
}

// NewMat3FromDense copies a 3x3 gonum matrix into a Mat3 value.
func NewMat3FromDense(d *mat.Dense) Mat3 {
	var m Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// At returns the element at the given row and column.
func (m Mat3) At(row, col int) float64 {
	return m[row][col]
}

// Mul returns the matrix product m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// MulVec applies m to a column vector.
func (m Mat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Homogenize embeds the 3x3 matrix into the rotation block of a 4x4
// homogeneous transform.
func (m Mat3) Homogenize() Mat4 {
	out := NewIdentityMat4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j]
		}
	}
	return out
}

// Dense copies m into a new 3x3 gonum matrix.
func (m Mat3) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

// NewIdentityMat4 returns the 4x4 identity matrix.
func NewIdentityMat4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// NewTranslationMat4 returns the homogeneous transform that translates by t.
func NewTranslationMat4(t r3.Vector) Mat4 {
	out := NewIdentityMat4()
	out[0][3] = t.X
	out[1][3] = t.Y
	out[2][3] = t.Z
	return out
}

// NewScaleMat4 returns the homogeneous transform that scales uniformly by s.
func NewScaleMat4(s float64) Mat4 {
	out := NewIdentityMat4()
	out[0][0] = s
	out[1][1] = s
	out[2][2] = s
	return out
}

// At returns the element at the given row and column.
func (m Mat4) At(row, col int) float64 {
	return m[row][col]
}

// Mul returns the matrix product m*n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				out[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// TransformPoint applies the homogeneous transform to a 3D point. The result
// is divided by the homogeneous coordinate w only when |w| is above
// ZeroVectorTolerance; otherwise the undivided result is returned.
func (m Mat4) TransformPoint(p r3.Vector) r3.Vector {
	x := m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3]
	y := m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3]
	z := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3]
	w := m[3][0]*p.X + m[3][1]*p.Y + m[3][2]*p.Z + m[3][3]
	if math.Abs(w) > ZeroVectorTolerance {
		return r3.Vector{X: x / w, Y: y / w, Z: z / w}
	}
	return r3.Vector{X: x, Y: y, Z: z}
}
