package dynamo

import "gonum.org/v1/gonum/mat"

// Trajectory is the sampled history of one run. Positions, Velocities and
// Accelerations each share a single contiguous backing array laid out
// [N,P,D]; element i of each slice is a [P,D] view of sample i.
type Trajectory struct {
	Times         []float64
	Positions     []*mat.Dense
	Velocities    []*mat.Dense
	Accelerations []*mat.Dense
	Mass          []float64
	// ForceEvals counts calls made to the force field during the run.
	ForceEvals int
}

// NewTrajectory allocates a trajectory of n samples for particles×dim
// ensembles. All storage is allocated here, once.
func NewTrajectory(n, particles, dim int, mass []float64) *Trajectory {
	tr := &Trajectory{
		Times:         make([]float64, n),
		Positions:     views(n, particles, dim),
		Velocities:    views(n, particles, dim),
		Accelerations: views(n, particles, dim),
		Mass:          make([]float64, len(mass)),
	}
	copy(tr.Mass, mass)
	return tr
}

func views(n, rows, cols int) []*mat.Dense {
	size := rows * cols
	buf := make([]float64, n*size)
	out := make([]*mat.Dense, n)
	for i := range out {
		out[i] = mat.NewDense(rows, cols, buf[i*size:(i+1)*size:(i+1)*size])
	}
	return out
}

func (t *Trajectory) Len() int { return len(t.Times) }

func (t *Trajectory) Particles() int {
	if len(t.Positions) == 0 {
		return 0
	}
	r, _ := t.Positions[0].Dims()
	return r
}

func (t *Trajectory) Dim() int {
	if len(t.Positions) == 0 {
		return 0
	}
	_, c := t.Positions[0].Dims()
	return c
}

// Position returns the [P,D] position snapshot of sample i.
func (t *Trajectory) Position(i int) *mat.Dense { return t.Positions[i] }

// Series returns coordinate d of particle p over the whole run.
func (t *Trajectory) Series(p, d int) []float64 {
	return series(t.Positions, p, d)
}

// VelocitySeries returns velocity component d of particle p over the whole run.
func (t *Trajectory) VelocitySeries(p, d int) []float64 {
	return series(t.Velocities, p, d)
}

func series(samples []*mat.Dense, p, d int) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.At(p, d)
	}
	return out
}

// Final returns the last position snapshot.
func (t *Trajectory) Final() *mat.Dense {
	return t.Positions[len(t.Positions)-1]
}
