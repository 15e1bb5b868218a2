package dynamo

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxSamples bounds the number of samples a single run may allocate.
const MaxSamples = 1 << 28

// ForceField is a force law. Force maps a [P,D] position snapshot to the
// [P,D] force acting on each particle. Implementations must not retain or
// mutate x and should be deterministic for runs to be reproducible.
type ForceField interface {
	Force(x mat.Matrix) mat.Matrix
}

// ForceFunc adapts a plain function to ForceField.
type ForceFunc func(x mat.Matrix) mat.Matrix

func (f ForceFunc) Force(x mat.Matrix) mat.Matrix { return f(x) }

// Potential is implemented by force fields that derive from a scalar
// potential, which makes the total energy of a run observable.
type Potential interface {
	PotentialEnergy(x mat.Matrix) float64
}

// Observer is notified after each sample has been written.
type Observer interface {
	OnStep(step, total int, t float64)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(step, total int, t float64)

func (f ObserverFunc) OnStep(step, total int, t float64) { f(step, total, t) }

// Integrator advances a Problem over its whole time grid.
type Integrator interface {
	Name() string
	Integrate(ctx context.Context, p Problem) (*Trajectory, error)
}

// Options are the run-time extensions shared by all integrators. The zero
// value reproduces the plain reference recurrence.
type Options struct {
	// ValidateState aborts with ErrUnstable when a sample holds NaN or Inf.
	ValidateState bool
	// Observer, if set, is called after every sample.
	Observer Observer
}

// Problem is the full input of an integration run.
type Problem struct {
	T0    float64
	T1    float64
	Dt    float64
	Force ForceField
	Mass  []float64
	X0    mat.Matrix
	V0    mat.Matrix
}

// Validate checks every input invariant and returns the particle count P and
// the spatial dimension D.
func (p Problem) Validate() (particles, dim int, err error) {
	if !finite(p.T0) || !finite(p.T1) || !finite(p.Dt) {
		return 0, 0, fmt.Errorf("%w: non-finite bound (t0=%g t1=%g dt=%g)", ErrInvalidTimeRange, p.T0, p.T1, p.Dt)
	}
	if p.Dt <= 0 {
		return 0, 0, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidTimeRange, p.Dt)
	}
	if p.T1 <= p.T0 {
		return 0, 0, fmt.Errorf("%w: t1 (%g) must be greater than t0 (%g)", ErrInvalidTimeRange, p.T1, p.T0)
	}
	if (p.T1-p.T0)/p.Dt > MaxSamples {
		return 0, 0, fmt.Errorf("%w: more than %d samples", ErrInvalidTimeRange, MaxSamples)
	}

	if p.Force == nil {
		return 0, 0, ErrNoForce
	}
	if p.X0 == nil || p.V0 == nil {
		return 0, 0, fmt.Errorf("%w: missing initial position or velocity", ErrShapeMismatch)
	}

	particles, dim = p.X0.Dims()
	if particles == 0 || dim == 0 {
		return 0, 0, fmt.Errorf("%w: empty initial position %dx%d", ErrShapeMismatch, particles, dim)
	}
	if r, c := p.V0.Dims(); r != particles || c != dim {
		return 0, 0, fmt.Errorf("%w: v0 is %dx%d, x0 is %dx%d", ErrShapeMismatch, r, c, particles, dim)
	}
	if len(p.Mass) != particles {
		return 0, 0, fmt.Errorf("%w: %d masses for %d particles", ErrShapeMismatch, len(p.Mass), particles)
	}
	for i, m := range p.Mass {
		if !(m > 0) || math.IsInf(m, 0) {
			return 0, 0, fmt.Errorf("%w: mass[%d]=%g", ErrInvalidMass, i, m)
		}
	}

	return particles, dim, nil
}

// Steps returns the number of samples N = floor((t1-t0)/dt). The remainder of
// the interval is dropped, not rounded. A run shorter than one step still
// holds its initial sample.
func (p Problem) Steps() int {
	n := int((p.T1 - p.T0) / p.Dt)
	if n < 1 {
		return 1
	}
	return n
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
