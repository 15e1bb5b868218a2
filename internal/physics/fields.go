package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const DefaultGravity = 9.81

// Zero is the field of free particles.
type Zero struct{}

func (Zero) Force(x mat.Matrix) mat.Matrix {
	r, c := x.Dims()
	return mat.NewDense(r, c, nil)
}

func (Zero) PotentialEnergy(mat.Matrix) float64 { return 0 }

// Uniform applies the same force vector F to every particle.
type Uniform struct {
	F []float64
}

func NewUniform(f ...float64) *Uniform {
	return &Uniform{F: f}
}

// NewWeight is the weight of unit masses in a downward field of strength g
// along the last of dim axes.
func NewWeight(dim int, g float64) *Uniform {
	f := make([]float64, dim)
	f[dim-1] = -g
	return &Uniform{F: f}
}

func (u *Uniform) Force(x mat.Matrix) mat.Matrix {
	if len(u.F) == 0 {
		return nil
	}
	r, _ := x.Dims()
	out := mat.NewDense(r, len(u.F), nil)
	for i := 0; i < r; i++ {
		out.SetRow(i, u.F)
	}
	return out
}

func (u *Uniform) PotentialEnergy(x mat.Matrix) float64 {
	r, c := x.Dims()
	if c != len(u.F) {
		return math.NaN()
	}
	pe := 0.0
	for i := 0; i < r; i++ {
		for d := 0; d < c; d++ {
			pe -= u.F[d] * x.At(i, d)
		}
	}
	return pe
}

// Harmonic ties every particle to the origin with a spring of stiffness K.
type Harmonic struct {
	K float64
}

func NewHarmonic(k float64) *Harmonic {
	return &Harmonic{K: k}
}

func (h *Harmonic) Force(x mat.Matrix) mat.Matrix {
	var out mat.Dense
	out.Scale(-h.K, x)
	return &out
}

func (h *Harmonic) PotentialEnergy(x mat.Matrix) float64 {
	return 0.5 * h.K * sumSquares(x)
}

func sumSquares(x mat.Matrix) float64 {
	r, c := x.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := x.At(i, j)
			sum += v * v
		}
	}
	return sum
}
