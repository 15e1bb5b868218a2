package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultG         = 1.0
	DefaultSoftening = 0.01
)

// Gravity is Newtonian attraction between every pair of particles, summed
// directly in O(P²). Softening ε replaces r² with r²+ε² so close encounters
// stay finite. Masses must be the same masses the integrator divides by.
type Gravity struct {
	G         float64
	Masses    []float64
	Softening float64
}

// NewGravity returns a field with G and softening set to their defaults.
func NewGravity(masses []float64) *Gravity {
	return &Gravity{
		G:         DefaultG,
		Masses:    masses,
		Softening: DefaultSoftening,
	}
}

func (g *Gravity) Force(x mat.Matrix) mat.Matrix {
	n, dim := x.Dims()
	if len(g.Masses) != n {
		return nil
	}

	f := mat.NewDense(n, dim, nil)
	eps2 := g.Softening * g.Softening
	r := make([]float64, dim)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r2 := eps2
			for d := 0; d < dim; d++ {
				r[d] = x.At(j, d) - x.At(i, d)
				r2 += r[d] * r[d]
			}

			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv
			fij := g.G * g.Masses[i] * g.Masses[j] * r3Inv

			for d := 0; d < dim; d++ {
				f.Set(i, d, f.At(i, d)+fij*r[d])
				f.Set(j, d, f.At(j, d)-fij*r[d])
			}
		}
	}

	return f
}

func (g *Gravity) PotentialEnergy(x mat.Matrix) float64 {
	n, dim := x.Dims()
	eps2 := g.Softening * g.Softening
	pe := 0.0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r2 := eps2
			for d := 0; d < dim; d++ {
				dx := x.At(j, d) - x.At(i, d)
				r2 += dx * dx
			}
			pe -= g.G * g.Masses[i] * g.Masses[j] / math.Sqrt(r2)
		}
	}

	return pe
}
