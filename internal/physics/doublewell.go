package physics

import "gonum.org/v1/gonum/mat"

// DoubleWell is the bistable potential A*(x²-B)² applied to each component.
type DoubleWell struct {
	A, B float64
}

func NewDoubleWell() *DoubleWell {
	return &DoubleWell{A: 1.0, B: 1.0}
}

func (d *DoubleWell) Force(x mat.Matrix) mat.Matrix {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return -4 * d.A * v * (v*v - d.B)
	}, x)
	return &out
}

func (d *DoubleWell) PotentialEnergy(x mat.Matrix) float64 {
	r, c := x.Dims()
	pe := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w := x.At(i, j)*x.At(i, j) - d.B
			pe += d.A * w * w
		}
	}
	return pe
}
