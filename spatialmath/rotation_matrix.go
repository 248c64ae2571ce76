package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// QuatToRotationMatrix converts a unit quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// At returns the element at row r and column c.
func (rm *RotationMatrix) At(r, c int) float64 {
	return rm.mat[3*r+c]
}

// Row returns the r'th row of the matrix.
func (rm *RotationMatrix) Row(r int) r3.Vector {
	return r3.Vector{rm.mat[3*r], rm.mat[3*r+1], rm.mat[3*r+2]}
}

// Col returns the c'th column of the matrix, which is the image of the c'th local axis.
func (rm *RotationMatrix) Col(c int) r3.Vector {
	return r3.Vector{rm.mat[c], rm.mat[c+3], rm.mat[c+6]}
}

// Mul returns the product of the matrix with a column vector.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{rm.Row(0).Dot(v), rm.Row(1).Dot(v), rm.Row(2).Dot(v)}
}

// MulT returns the product of the transposed matrix with a column vector.
func (rm *RotationMatrix) MulT(v r3.Vector) r3.Vector {
	return r3.Vector{rm.Col(0).Dot(v), rm.Col(1).Dot(v), rm.Col(2).Dot(v)}
}
