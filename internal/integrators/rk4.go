package integrators

import (
	"context"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// RK4 is the classic fourth order Runge-Kutta scheme applied to the first
// order system (x, v)' = (v, F(x)/m). It is accurate but not symplectic, so
// its energy decays secularly. The first stage reuses the acceleration of
// the previous sample; a run costs 1 + 4*(N-1) force evaluations.
type RK4 struct {
	opts dynamo.Options
}

func NewRK4(opts dynamo.Options) *RK4 {
	return &RK4{opts: opts}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Integrate(ctx context.Context, p dynamo.Problem) (*dynamo.Trajectory, error) {
	rn, err := begin(ctx, p, r.opts)
	if err != nil {
		return nil, err
	}

	tr := rn.traj
	dt := p.Dt
	halfDt := 0.5 * dt
	dt6 := dt / 6

	// stage positions and their accelerations
	stage := mat.NewDense(rn.parts, rn.dim, nil)
	acc := mat.NewDense(rn.parts, rn.dim, nil)
	xs, as := stage.RawMatrix().Data, acc.RawMatrix().Data

	size := rn.parts * rn.dim
	k2x, k2v := make([]float64, size), make([]float64, size)
	k3x, k3v := make([]float64, size), make([]float64, size)
	k4x, k4v := make([]float64, size), make([]float64, size)

	for i := 1; i < tr.Len(); i++ {
		if err := rn.checkpoint(i); err != nil {
			return nil, err
		}

		xPrev, vPrev, aPrev := raw(tr.Positions, i-1), raw(tr.Velocities, i-1), raw(tr.Accelerations, i-1)

		for k := range xs {
			xs[k] = xPrev[k] + halfDt*vPrev[k]
		}
		if err := rn.acceleration(i, stage, acc); err != nil {
			return nil, err
		}
		for k := range xs {
			k2x[k] = vPrev[k] + halfDt*aPrev[k]
			k2v[k] = as[k]
		}

		for k := range xs {
			xs[k] = xPrev[k] + halfDt*k2x[k]
		}
		if err := rn.acceleration(i, stage, acc); err != nil {
			return nil, err
		}
		for k := range xs {
			k3x[k] = vPrev[k] + halfDt*k2v[k]
			k3v[k] = as[k]
		}

		for k := range xs {
			xs[k] = xPrev[k] + dt*k3x[k]
		}
		if err := rn.acceleration(i, stage, acc); err != nil {
			return nil, err
		}
		for k := range xs {
			k4x[k] = vPrev[k] + dt*k3v[k]
			k4v[k] = as[k]
		}

		x, vel := raw(tr.Positions, i), raw(tr.Velocities, i)
		for k := range x {
			x[k] = xPrev[k] + dt6*(vPrev[k]+2*k2x[k]+2*k3x[k]+k4x[k])
			vel[k] = vPrev[k] + dt6*(aPrev[k]+2*k2v[k]+2*k3v[k]+k4v[k])
		}

		if err := rn.accelerate(i); err != nil {
			return nil, err
		}
		if err := rn.settle(i); err != nil {
			return nil, err
		}
	}

	return tr, nil
}
