package integrators

import (
	"context"

	"github.com/san-kum/verlet/internal/dynamo"
)

// Euler is the explicit first order scheme. It is not symplectic and its
// energy drifts; it is kept as a baseline for comparisons.
type Euler struct {
	opts dynamo.Options
}

func NewEuler(opts dynamo.Options) *Euler {
	return &Euler{opts: opts}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Integrate(ctx context.Context, p dynamo.Problem) (*dynamo.Trajectory, error) {
	r, err := begin(ctx, p, e.opts)
	if err != nil {
		return nil, err
	}

	tr := r.traj
	dt := p.Dt

	for i := 1; i < tr.Len(); i++ {
		if err := r.checkpoint(i); err != nil {
			return nil, err
		}

		xPrev, vPrev, aPrev := raw(tr.Positions, i-1), raw(tr.Velocities, i-1), raw(tr.Accelerations, i-1)
		x, vel := raw(tr.Positions, i), raw(tr.Velocities, i)
		for k := range x {
			x[k] = xPrev[k] + vPrev[k]*dt
			vel[k] = vPrev[k] + aPrev[k]*dt
		}

		if err := r.accelerate(i); err != nil {
			return nil, err
		}
		if err := r.settle(i); err != nil {
			return nil, err
		}
	}

	return tr, nil
}

// SymplecticEuler updates velocity first and drifts with the new velocity.
// First order, but its energy error stays bounded.
type SymplecticEuler struct {
	opts dynamo.Options
}

func NewSymplecticEuler(opts dynamo.Options) *SymplecticEuler {
	return &SymplecticEuler{opts: opts}
}

func (s *SymplecticEuler) Name() string { return "symplectic_euler" }

func (s *SymplecticEuler) Integrate(ctx context.Context, p dynamo.Problem) (*dynamo.Trajectory, error) {
	r, err := begin(ctx, p, s.opts)
	if err != nil {
		return nil, err
	}

	tr := r.traj
	dt := p.Dt

	for i := 1; i < tr.Len(); i++ {
		if err := r.checkpoint(i); err != nil {
			return nil, err
		}

		xPrev, vPrev, aPrev := raw(tr.Positions, i-1), raw(tr.Velocities, i-1), raw(tr.Accelerations, i-1)
		x, vel := raw(tr.Positions, i), raw(tr.Velocities, i)
		for k := range x {
			vel[k] = vPrev[k] + aPrev[k]*dt
			x[k] = xPrev[k] + vel[k]*dt
		}

		if err := r.accelerate(i); err != nil {
			return nil, err
		}
		if err := r.settle(i); err != nil {
			return nil, err
		}
	}

	return tr, nil
}
