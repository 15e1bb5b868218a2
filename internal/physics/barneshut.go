package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultTheta = 0.5

// BarnesHut approximates 3-D gravity with an octree: a cell whose size to
// distance ratio is below Theta is treated as a single mass at its centre of
// mass. Theta = 0 degenerates to exact pairwise summation. Only D = 3 is
// supported; other shapes yield nil.
type BarnesHut struct {
	G         float64
	Masses    []float64
	Theta     float64
	Softening float64
}

func NewBarnesHut(masses []float64) *BarnesHut {
	return &BarnesHut{
		G:         DefaultG,
		Masses:    masses,
		Theta:     DefaultTheta,
		Softening: DefaultSoftening,
	}
}

type body struct {
	pos  r3.Vec
	mass float64
}

func (b *body) Coord3() r3.Vec { return b.pos }
func (b *body) Mass() float64  { return b.mass }

func (bh *BarnesHut) Force(x mat.Matrix) mat.Matrix {
	n, dim := x.Dims()
	if dim != 3 || len(bh.Masses) != n {
		return nil
	}

	bodies := make([]*body, n)
	particles := make([]barneshut.Particle3, n)
	for i := range bodies {
		bodies[i] = &body{
			pos:  r3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)},
			mass: bh.Masses[i],
		}
		particles[i] = bodies[i]
	}

	f := mat.NewDense(n, 3, nil)

	vol, err := barneshut.NewVolume(particles)
	if err != nil {
		// non-finite coordinates; poison the result so state validation trips
		f.Apply(func(_, _ int, _ float64) float64 { return math.NaN() }, f)
		return f
	}

	pair := bh.pairForce()
	for i, b := range bodies {
		v := vol.ForceOn(b, bh.Theta, pair)
		f.SetRow(i, []float64{v.X, v.Y, v.Z})
	}

	return f
}

// pairForce is softened Newtonian attraction along v, the vector from the
// particle to the attracting mass.
func (bh *BarnesHut) pairForce() barneshut.Force3 {
	eps2 := bh.Softening * bh.Softening
	return func(_, _ barneshut.Particle3, m1, m2 float64, v r3.Vec) r3.Vec {
		r2 := v.X*v.X + v.Y*v.Y + v.Z*v.Z + eps2
		if r2 == 0 {
			return r3.Vec{}
		}
		s := bh.G * m1 * m2 / (r2 * math.Sqrt(r2))
		return r3.Vec{X: s * v.X, Y: s * v.Y, Z: s * v.Z}
	}
}

// PotentialEnergy is the exact pairwise potential; it is not approximated.
func (bh *BarnesHut) PotentialEnergy(x mat.Matrix) float64 {
	g := Gravity{G: bh.G, Masses: bh.Masses, Softening: bh.Softening}
	return g.PotentialEnergy(x)
}
