package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LennardJones is the 12-6 pair potential 4ε[(σ/r)¹² - (σ/r)⁶]. Pairs at or
// beyond Cutoff do not interact; a zero Cutoff disables truncation.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

func NewLennardJones(epsilon, sigma float64) *LennardJones {
	return &LennardJones{Epsilon: epsilon, Sigma: sigma, Cutoff: 2.5 * sigma}
}

// Equilibrium returns the pair separation with zero force, 2^(1/6)σ.
func (lj *LennardJones) Equilibrium() float64 {
	return math.Pow(2, 1.0/6.0) * lj.Sigma
}

func (lj *LennardJones) Force(x mat.Matrix) mat.Matrix {
	n, dim := x.Dims()
	f := mat.NewDense(n, dim, nil)
	r := make([]float64, dim)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := separation(x, i, j, r)
			if dist == 0 || !lj.interacts(dist) {
				continue
			}
			sr6 := math.Pow(lj.Sigma/dist, 6)
			// negative when repulsive, pushing i away from j
			mag := -24 * lj.Epsilon * (2*sr6*sr6 - sr6) / (dist * dist)
			for d := 0; d < dim; d++ {
				f.Set(i, d, f.At(i, d)+mag*r[d])
				f.Set(j, d, f.At(j, d)-mag*r[d])
			}
		}
	}

	return f
}

func (lj *LennardJones) PotentialEnergy(x mat.Matrix) float64 {
	n, dim := x.Dims()
	r := make([]float64, dim)
	pe := 0.0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := separation(x, i, j, r)
			if dist == 0 || !lj.interacts(dist) {
				continue
			}
			sr6 := math.Pow(lj.Sigma/dist, 6)
			pe += 4 * lj.Epsilon * (sr6*sr6 - sr6)
		}
	}

	return pe
}

func (lj *LennardJones) interacts(dist float64) bool {
	return lj.Cutoff <= 0 || dist < lj.Cutoff
}
