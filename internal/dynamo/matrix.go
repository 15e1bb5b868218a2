package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FromRows builds a [P,D] ensemble from one row per particle.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty ensemble", ErrShapeMismatch)
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("%w: row %d has %d components, want %d", ErrShapeMismatch, i, len(r), dim)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), dim, data), nil
}

// Rows is the inverse of FromRows.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// IsFinite reports whether m holds no NaN or Inf entry.
func IsFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
