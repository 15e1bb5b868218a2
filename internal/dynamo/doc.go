// Package dynamo provides the core primitives for particle trajectory integration.
//
// The package defines the types shared by every integration scheme:
//
//   - [ForceField]: the force law, a map from positions [P,D] to forces [P,D]
//   - [Problem]: time interval, step size, force law, masses and initial state
//   - [Trajectory]: the sampled time series produced by one run
//   - [Integrator]: a numerical scheme turning a Problem into a Trajectory
//
// Particle ensembles are gonum dense matrices with one row per particle and one
// column per spatial dimension. Row index is the particle identity and stays
// stable across the whole run.
//
// # Example
//
//	x0 := mat.NewDense(1, 1, []float64{1})
//	v0 := mat.NewDense(1, 1, []float64{0})
//	p := dynamo.Problem{T0: 0, T1: 10, Dt: 0.01, Force: physics.NewHarmonic(1), Mass: []float64{1}, X0: x0, V0: v0}
//	traj, err := integrators.NewVelocityVerlet(dynamo.Options{}).Integrate(ctx, p)
//
// # Thread Safety
//
// A Trajectory is never mutated after it is returned and may be shared freely.
// A single integration run is sequential; use [RunBatch] to run independent
// problems concurrently.
package dynamo
