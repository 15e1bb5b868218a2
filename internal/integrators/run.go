package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// run holds the state shared by every scheme for one integration: the
// validated problem, the preallocated trajectory and the run options.
type run struct {
	ctx   context.Context
	p     dynamo.Problem
	opts  dynamo.Options
	traj  *dynamo.Trajectory
	parts int
	dim   int
}

// begin validates p, allocates the whole trajectory and seeds sample 0:
// x0 and v0 are copied verbatim and a0 = force(x0)/mass.
func begin(ctx context.Context, p dynamo.Problem, opts dynamo.Options) (*run, error) {
	parts, dim, err := p.Validate()
	if err != nil {
		return nil, err
	}

	r := &run{
		ctx:   ctx,
		p:     p,
		opts:  opts,
		traj:  dynamo.NewTrajectory(p.Steps(), parts, dim, p.Mass),
		parts: parts,
		dim:   dim,
	}

	r.traj.Times[0] = p.T0
	r.traj.Positions[0].Copy(p.X0)
	r.traj.Velocities[0].Copy(p.V0)
	if err := r.accelerate(0); err != nil {
		return nil, err
	}
	if err := r.settle(0); err != nil {
		return nil, err
	}
	return r, nil
}

// checkpoint opens step i: it honours cancellation and stamps the time grid.
func (r *run) checkpoint(i int) error {
	select {
	case <-r.ctx.Done():
		return &dynamo.SimulationError{
			Step:    i,
			Time:    r.traj.Times[i-1],
			Wrapped: fmt.Errorf("%w: %w", dynamo.ErrCanceled, r.ctx.Err()),
		}
	default:
	}
	r.traj.Times[i] = r.p.T0 + float64(i)*r.p.Dt
	return nil
}

// accelerate evaluates the force on sample i and stores force/mass, row by
// row, into the acceleration of sample i.
func (r *run) accelerate(i int) error {
	return r.acceleration(i, r.traj.Positions[i], r.traj.Accelerations[i])
}

// acceleration stores F(x)/m into acc. Errors are attributed to step i.
func (r *run) acceleration(i int, x mat.Matrix, acc *mat.Dense) error {
	f := r.p.Force.Force(x)
	r.traj.ForceEvals++
	if f == nil {
		return r.fail(i, fmt.Errorf("%w: force returned nil, want %dx%d", dynamo.ErrShapeMismatch, r.parts, r.dim))
	}
	if fr, fc := f.Dims(); fr != r.parts || fc != r.dim {
		return r.fail(i, fmt.Errorf("%w: force returned %dx%d, want %dx%d", dynamo.ErrShapeMismatch, fr, fc, r.parts, r.dim))
	}

	acc.Copy(f)
	for p := 0; p < r.parts; p++ {
		row := acc.RawRowView(p)
		m := r.p.Mass[p]
		for d := range row {
			row[d] /= m
		}
	}
	return nil
}

// settle closes step i once every array of sample i is written.
func (r *run) settle(i int) error {
	if r.opts.ValidateState {
		if !dynamo.IsFinite(r.traj.Positions[i]) || !dynamo.IsFinite(r.traj.Velocities[i]) {
			return r.fail(i, dynamo.ErrUnstable)
		}
	}
	if r.opts.Observer != nil {
		r.opts.Observer.OnStep(i, r.traj.Len(), r.traj.Times[i])
	}
	return nil
}

func (r *run) fail(i int, err error) error {
	return &dynamo.SimulationError{Step: i, Time: r.traj.Times[i], Wrapped: err}
}

// raw returns the backing slice of sample i of a trajectory array. Samples
// are created dense, so the slice is exactly P*D long in row-major order.
func raw(samples []*mat.Dense, i int) []float64 {
	return samples[i].RawMatrix().Data
}
