package integrators

import (
	"context"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// VelocityVerlet is the symplectic velocity Verlet scheme:
//
//	x[i] = x[i-1] + v[i-1]*dt + 0.5*a[i-1]*dt²
//	a[i] = F(x[i]) / m
//	v[i] = v[i-1] + 0.5*(a[i-1] + a[i])*dt
//
// The acceleration closing step i opens step i+1, so a run of N samples
// costs N force evaluations.
type VelocityVerlet struct {
	opts dynamo.Options
}

func NewVelocityVerlet(opts dynamo.Options) *VelocityVerlet {
	return &VelocityVerlet{opts: opts}
}

func (v *VelocityVerlet) Name() string { return "verlet" }

func (v *VelocityVerlet) Integrate(ctx context.Context, p dynamo.Problem) (*dynamo.Trajectory, error) {
	r, err := begin(ctx, p, v.opts)
	if err != nil {
		return nil, err
	}

	tr := r.traj
	dt := p.Dt
	dt2 := dt * dt

	for i := 1; i < tr.Len(); i++ {
		if err := r.checkpoint(i); err != nil {
			return nil, err
		}

		xPrev, vPrev, aPrev := raw(tr.Positions, i-1), raw(tr.Velocities, i-1), raw(tr.Accelerations, i-1)

		x := raw(tr.Positions, i)
		for k := range x {
			x[k] = xPrev[k] + vPrev[k]*dt + 0.5*aPrev[k]*dt2
		}

		if err := r.accelerate(i); err != nil {
			return nil, err
		}
		a := raw(tr.Accelerations, i)

		vel := raw(tr.Velocities, i)
		for k := range vel {
			vel[k] = vPrev[k] + 0.5*(aPrev[k]+a[k])*dt
		}

		if err := r.settle(i); err != nil {
			return nil, err
		}
	}

	return tr, nil
}

// Integrate runs velocity Verlet over [t0, t1) and returns the time grid and
// the position snapshots, one [P,D] matrix per sample.
func Integrate(t0, t1, dt float64, force dynamo.ForceField, mass []float64, x0, v0 mat.Matrix) ([]float64, []*mat.Dense, error) {
	tr, err := NewVelocityVerlet(dynamo.Options{}).Integrate(context.Background(), dynamo.Problem{
		T0:    t0,
		T1:    t1,
		Dt:    dt,
		Force: force,
		Mass:  mass,
		X0:    x0,
		V0:    v0,
	})
	if err != nil {
		return nil, nil, err
	}
	return tr.Times, tr.Positions, nil
}

// Leapfrog is the kick-drift-kick form of the same second order scheme. It
// is algebraically equal to VelocityVerlet but rounds differently.
type Leapfrog struct {
	opts dynamo.Options
}

func NewLeapfrog(opts dynamo.Options) *Leapfrog {
	return &Leapfrog{opts: opts}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Integrate(ctx context.Context, p dynamo.Problem) (*dynamo.Trajectory, error) {
	r, err := begin(ctx, p, l.opts)
	if err != nil {
		return nil, err
	}

	tr := r.traj
	dt := p.Dt
	halfDt := 0.5 * dt

	for i := 1; i < tr.Len(); i++ {
		if err := r.checkpoint(i); err != nil {
			return nil, err
		}

		xPrev, vPrev, aPrev := raw(tr.Positions, i-1), raw(tr.Velocities, i-1), raw(tr.Accelerations, i-1)
		x, vel := raw(tr.Positions, i), raw(tr.Velocities, i)

		// kick, drift
		for k := range x {
			vel[k] = vPrev[k] + aPrev[k]*halfDt
			x[k] = xPrev[k] + vel[k]*dt
		}

		if err := r.accelerate(i); err != nil {
			return nil, err
		}

		a := raw(tr.Accelerations, i)
		for k := range vel {
			vel[k] += a[k] * halfDt
		}

		if err := r.settle(i); err != nil {
			return nil, err
		}
	}

	return tr, nil
}
