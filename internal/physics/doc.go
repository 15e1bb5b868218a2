// Package physics provides force laws for particle integration.
//
// Each model implements [dynamo.ForceField], mapping a [P,D] position
// snapshot to the [P,D] force on every particle, and [dynamo.Potential] so
// the total energy of a run can be monitored:
//
//   - [Zero], [Uniform]: free particles and constant fields
//   - [Harmonic], [DoubleWell]: per-component confining potentials
//   - [SpringChain]: nearest neighbour springs between consecutive particles
//   - [Gravity]: softened pairwise Newtonian attraction, direct summation
//   - [BarnesHut]: 3-D gravity approximated with an octree
//   - [LennardJones]: 12-6 pair potential for molecular dynamics
//
// Force laws depend on positions only and return a freshly allocated matrix
// on every call. A model that cannot serve the requested shape returns nil
// or a mis-shaped matrix, which integrators report as a shape mismatch.
//
// # Energy Conservation
//
// Pair the force with its potential to monitor energy drift:
//
//	f := physics.NewGravity(masses)
//	e := metrics.EnergySeries(traj, f)
package physics
