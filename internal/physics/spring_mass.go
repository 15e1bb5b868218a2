package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultStiffness  = 10.0
	DefaultRestLength = 1.0
)

// SpringChain connects consecutive particles (row i to row i+1) with
// identical springs of stiffness K and rest length L.
type SpringChain struct {
	K float64
	L float64
}

func NewSpringChain() *SpringChain {
	return &SpringChain{K: DefaultStiffness, L: DefaultRestLength}
}

func (s *SpringChain) Force(x mat.Matrix) mat.Matrix {
	n, dim := x.Dims()
	f := mat.NewDense(n, dim, nil)
	r := make([]float64, dim)

	for i := 0; i+1 < n; i++ {
		dist := separation(x, i, i+1, r)
		if dist == 0 {
			continue
		}
		// positive when stretched, pulling i towards i+1
		mag := s.K * (dist - s.L) / dist
		for d := 0; d < dim; d++ {
			f.Set(i, d, f.At(i, d)+mag*r[d])
			f.Set(i+1, d, f.At(i+1, d)-mag*r[d])
		}
	}

	return f
}

func (s *SpringChain) PotentialEnergy(x mat.Matrix) float64 {
	n, dim := x.Dims()
	r := make([]float64, dim)
	pe := 0.0
	for i := 0; i+1 < n; i++ {
		stretch := separation(x, i, i+1, r) - s.L
		pe += 0.5 * s.K * stretch * stretch
	}
	return pe
}

// separation writes x[j]-x[i] into r and returns its length.
func separation(x mat.Matrix, i, j int, r []float64) float64 {
	sum := 0.0
	for d := range r {
		r[d] = x.At(j, d) - x.At(i, d)
		sum += r[d] * r[d]
	}
	return math.Sqrt(sum)
}
