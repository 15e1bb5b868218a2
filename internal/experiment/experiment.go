package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/metrics"
	"gonum.org/v1/gonum/mat"
)

// Experiment is a fully built problem, ready to integrate with any scheme
// in its registry.
type Experiment struct {
	cfg     *config.Config
	reg     *Registry
	problem dynamo.Problem
	field   Field
}

type Result struct {
	Integrator  string
	Trajectory  *dynamo.Trajectory
	Energy      []float64
	EnergyDrift float64
	Elapsed     time.Duration
}

// New resolves cfg into a Problem. The scenario lays out the particles, then
// explicit masses, positions and velocities from cfg replace its defaults.
func New(cfg *config.Config, reg *Registry) (*Experiment, error) {
	sc, err := reg.GetScenario(cfg.Scenario)
	if err != nil {
		return nil, err
	}

	n, dim := layout(cfg, sc)
	if n < 1 || dim < 1 {
		return nil, fmt.Errorf("%w: %d particles in %d dimensions", dynamo.ErrShapeMismatch, n, dim)
	}

	rnd := rand.New(rand.NewSource(cfg.Seed))
	mass, x0, v0 := sc.Init(n, dim, cfg, rnd)

	if p := cfg.Particles; len(p.Mass) > 0 {
		mass = append([]float64(nil), p.Mass...)
	}
	if x0, err = override(x0, cfg.Particles.Positions); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if v0, err = override(v0, cfg.Particles.Velocities); err != nil {
		return nil, fmt.Errorf("velocities: %w", err)
	}

	field, err := sc.Field(cfg, mass, dim)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg: cfg,
		reg: reg,
		problem: dynamo.Problem{
			T0:    cfg.T0,
			T1:    cfg.T1,
			Dt:    cfg.Dt,
			Force: field,
			Mass:  mass,
			X0:    x0,
			V0:    v0,
		},
		field: field,
	}
	if _, _, err := e.problem.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// layout picks the particle count and dimension, preferring explicit state in
// the config over counts over the scenario defaults.
func layout(cfg *config.Config, sc Scenario) (n, dim int) {
	p := cfg.Particles
	n, dim = sc.Particles, sc.Dim
	if p.Count > 0 {
		n = p.Count
	}
	if p.Dim > 0 {
		dim = p.Dim
	}
	switch {
	case len(p.Positions) > 0:
		n, dim = len(p.Positions), len(p.Positions[0])
	case len(p.Velocities) > 0:
		n, dim = len(p.Velocities), len(p.Velocities[0])
	case len(p.Mass) > 0:
		n = len(p.Mass)
	}
	return n, dim
}

func override(def *mat.Dense, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return def, nil
	}
	return dynamo.FromRows(rows)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Problem() dynamo.Problem { return e.problem }

func (e *Experiment) Potential() dynamo.Potential { return e.field }

// Run integrates with the configured integrator.
func (e *Experiment) Run(ctx context.Context, opts dynamo.Options) (*Result, error) {
	integ, err := e.reg.GetIntegrator(e.cfg.Integrator, e.options(opts))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tr, err := integ.Integrate(ctx, e.problem)
	if err != nil {
		return nil, err
	}
	return e.result(integ.Name(), tr, time.Since(start)), nil
}

// Compare integrates the same problem with every named integrator
// concurrently, at most limit at a time. Results keep the order of names.
func (e *Experiment) Compare(ctx context.Context, names []string, limit int) ([]*Result, error) {
	jobs := make([]dynamo.Job, len(names))
	for i, name := range names {
		integ, err := e.reg.GetIntegrator(name, e.options(dynamo.Options{}))
		if err != nil {
			return nil, err
		}
		jobs[i] = dynamo.Job{Name: name, Integrator: integ, Problem: e.problem}
	}

	start := time.Now()
	trs, err := dynamo.RunBatch(ctx, jobs, limit)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	results := make([]*Result, len(trs))
	for i, tr := range trs {
		results[i] = e.result(names[i], tr, elapsed)
	}
	return results, nil
}

// Lyapunov integrates the problem twice, the second time with the first
// coordinate of the first particle shifted by eps, and estimates the largest
// Lyapunov exponent from how the two runs separate. See
// metrics.LyapunovExponent for saturation.
func (e *Experiment) Lyapunov(ctx context.Context, eps, saturation float64) (float64, error) {
	if !(eps > 0) || math.IsInf(eps, 0) {
		return 0, fmt.Errorf("perturbation must be positive and finite, got %g", eps)
	}

	jobs := make([]dynamo.Job, 2)
	for i, name := range []string{"reference", "perturbed"} {
		integ, err := e.reg.GetIntegrator(e.cfg.Integrator, e.options(dynamo.Options{}))
		if err != nil {
			return 0, err
		}
		jobs[i] = dynamo.Job{Name: name, Integrator: integ, Problem: e.problem}
	}
	shifted := mat.DenseCopyOf(e.problem.X0)
	shifted.Set(0, 0, shifted.At(0, 0)+eps)
	jobs[1].Problem.X0 = shifted

	trs, err := dynamo.RunBatch(ctx, jobs, 2)
	if err != nil {
		return 0, err
	}
	return metrics.LyapunovExponent(trs[0], trs[1], saturation)
}

func (e *Experiment) options(opts dynamo.Options) dynamo.Options {
	if e.cfg.ValidateState {
		opts.ValidateState = true
	}
	return opts
}

func (e *Experiment) result(name string, tr *dynamo.Trajectory, elapsed time.Duration) *Result {
	energy := metrics.EnergySeries(tr, e.field)
	return &Result{
		Integrator:  name,
		Trajectory:  tr,
		Energy:      energy,
		EnergyDrift: metrics.EnergyDrift(energy),
		Elapsed:     elapsed,
	}
}
