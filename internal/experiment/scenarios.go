package experiment

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// Scenario is a named initial condition paired with the force law it runs
// under. Init lays out n particles in dim dimensions; Field is built after
// any explicit masses from the config have been applied.
type Scenario struct {
	Particles int
	Dim       int
	Init      func(n, dim int, cfg *config.Config, rnd *rand.Rand) (mass []float64, x0, v0 *mat.Dense)
	Field     func(cfg *config.Config, mass []float64, dim int) (Field, error)
}

// Field is a force law whose potential energy is observable.
type Field interface {
	dynamo.ForceField
	dynamo.Potential
}

func ones(n int) []float64 {
	m := make([]float64, n)
	for i := range m {
		m[i] = 1
	}
	return m
}

func needDim(name string, dim, min int) error {
	if dim < min {
		return fmt.Errorf("%s scenario needs at least %d dimensions, got %d", name, min, dim)
	}
	return nil
}

var freeScenario = Scenario{
	Particles: 1,
	Dim:       2,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		v0 := mat.NewDense(n, dim, nil)
		for i := 0; i < n; i++ {
			v0.Set(i, 0, cfg.Particles.VelocityScale)
		}
		return ones(n), mat.NewDense(n, dim, nil), v0
	},
	Field: func(*config.Config, []float64, int) (Field, error) {
		return physics.Zero{}, nil
	},
}

var constantScenario = Scenario{
	Particles: 1,
	Dim:       2,
	Init: func(n, dim int, _ *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		return ones(n), mat.NewDense(n, dim, nil), mat.NewDense(n, dim, nil)
	},
	Field: func(cfg *config.Config, _ []float64, dim int) (Field, error) {
		if len(cfg.Force.Constant) > 0 {
			return physics.NewUniform(cfg.Force.Constant...), nil
		}
		return physics.NewWeight(dim, physics.DefaultGravity), nil
	},
}

var harmonicScenario = Scenario{
	Particles: 1,
	Dim:       1,
	Init: func(n, dim int, _ *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		x0 := mat.NewDense(n, dim, nil)
		for i := 0; i < n; i++ {
			x0.Set(i, 0, 1)
		}
		return ones(n), x0, mat.NewDense(n, dim, nil)
	},
	Field: func(cfg *config.Config, _ []float64, _ int) (Field, error) {
		return physics.NewHarmonic(cfg.Force.K), nil
	},
}

// keplerScenario places a unit mass at the origin and light planets at radii
// 1, 2, ... on circular orbits, scaled by VelocityScale. Softening is off so
// the orbits are exactly Keplerian.
var keplerScenario = Scenario{
	Particles: 2,
	Dim:       2,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		mass := make([]float64, n)
		x0 := mat.NewDense(n, dim, nil)
		v0 := mat.NewDense(n, dim, nil)
		mass[0] = 1
		for i := 1; i < n; i++ {
			r := float64(i)
			mass[i] = 1e-3
			x0.Set(i, 0, r)
			if dim > 1 {
				v0.Set(i, 1, cfg.Particles.VelocityScale*math.Sqrt(cfg.Force.G*mass[0]/r))
			}
		}
		return mass, x0, v0
	},
	Field: func(cfg *config.Config, mass []float64, dim int) (Field, error) {
		if err := needDim("kepler", dim, 2); err != nil {
			return nil, err
		}
		return &physics.Gravity{G: cfg.Force.G, Masses: mass}, nil
	},
}

// nbodyScenario is a ring of equal masses with tangential velocity.
var nbodyScenario = Scenario{
	Particles: 3,
	Dim:       2,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		x0 := mat.NewDense(n, dim, nil)
		v0 := mat.NewDense(n, dim, nil)
		speed := 0.5 * cfg.Particles.VelocityScale
		for i := 0; i < n; i++ {
			angle := 2 * math.Pi * float64(i) / float64(n)
			x0.Set(i, 0, math.Cos(angle))
			v0.Set(i, 0, -math.Sin(angle)*speed)
			if dim > 1 {
				x0.Set(i, 1, math.Sin(angle))
				v0.Set(i, 1, math.Cos(angle)*speed)
			}
		}
		return ones(n), x0, v0
	},
	Field: func(cfg *config.Config, mass []float64, dim int) (Field, error) {
		if err := needDim("nbody", dim, 2); err != nil {
			return nil, err
		}
		return &physics.Gravity{G: cfg.Force.G, Masses: mass, Softening: cfg.Force.Softening}, nil
	},
}

// galaxyScenario is a thin 3-D disk of light stars around a heavy core, drawn
// from a generator seeded with cfg.Seed.
var galaxyScenario = Scenario{
	Particles: 128,
	Dim:       3,
	Init: func(n, dim int, cfg *config.Config, rnd *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		mass := make([]float64, n)
		x0 := mat.NewDense(n, dim, nil)
		v0 := mat.NewDense(n, dim, nil)
		if dim < 3 {
			return ones(n), x0, v0
		}

		const core = 1.0
		mass[0] = core
		star := 0.1 / float64(n)
		for i := 1; i < n; i++ {
			mass[i] = star

			r := 0.2 + math.Abs(rnd.NormFloat64())*0.5 + rnd.ExpFloat64()*0.2
			if r > 2 {
				r = 2
			}
			angle := rnd.Float64() * 2 * math.Pi
			x0.SetRow(i, []float64{r * math.Cos(angle), r * math.Sin(angle), rnd.NormFloat64() * 0.02})

			v := cfg.Particles.VelocityScale * math.Sqrt(cfg.Force.G*core/r)
			v0.SetRow(i, []float64{-v * math.Sin(angle), v * math.Cos(angle), 0})
		}
		return mass, x0, v0
	},
	Field: func(cfg *config.Config, mass []float64, dim int) (Field, error) {
		if dim != 3 {
			return nil, fmt.Errorf("galaxy scenario is 3-D only, got %d dimensions", dim)
		}
		return &physics.BarnesHut{
			G:         cfg.Force.G,
			Masses:    mass,
			Theta:     cfg.Force.Theta,
			Softening: cfg.Force.Softening,
		}, nil
	},
}

// dimerScenario starts Lennard-Jones particles 1.5σ apart along the first
// axis, drifting apart with a small velocity.
var dimerScenario = Scenario{
	Particles: 2,
	Dim:       1,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		x0 := mat.NewDense(n, dim, nil)
		v0 := mat.NewDense(n, dim, nil)
		spacing := 1.5 * cfg.Force.Sigma
		kick := 0.05 * cfg.Particles.VelocityScale
		for i := 0; i < n; i++ {
			x0.Set(i, 0, float64(i)*spacing)
			if i%2 == 0 {
				v0.Set(i, 0, -kick)
			} else {
				v0.Set(i, 0, kick)
			}
		}
		return ones(n), x0, v0
	},
	Field: func(cfg *config.Config, _ []float64, _ int) (Field, error) {
		lj := physics.NewLennardJones(cfg.Force.Epsilon, cfg.Force.Sigma)
		lj.Cutoff = cfg.Force.Cutoff * cfg.Force.Sigma
		return lj, nil
	},
}

// chainScenario lays particles out at the spring rest length along the first
// axis and plucks the last one outwards.
var chainScenario = Scenario{
	Particles: 4,
	Dim:       1,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		x0 := mat.NewDense(n, dim, nil)
		v0 := mat.NewDense(n, dim, nil)
		for i := 0; i < n; i++ {
			x0.Set(i, 0, float64(i)*physics.DefaultRestLength)
		}
		v0.Set(n-1, 0, cfg.Particles.VelocityScale)
		return ones(n), x0, v0
	},
	Field: func(cfg *config.Config, _ []float64, _ int) (Field, error) {
		return &physics.SpringChain{K: cfg.Force.K, L: physics.DefaultRestLength}, nil
	},
}

// doubleWellScenario starts a particle at rest inside the left well. The wells
// sit at ±σ and the barrier between them is ε·σ⁴ high.
var doubleWellScenario = Scenario{
	Particles: 1,
	Dim:       1,
	Init: func(n, dim int, cfg *config.Config, _ *rand.Rand) ([]float64, *mat.Dense, *mat.Dense) {
		x0 := mat.NewDense(n, dim, nil)
		for i := 0; i < n; i++ {
			x0.Set(i, 0, -1.2*cfg.Force.Sigma)
		}
		return ones(n), x0, mat.NewDense(n, dim, nil)
	},
	Field: func(cfg *config.Config, _ []float64, _ int) (Field, error) {
		return &physics.DoubleWell{A: cfg.Force.Epsilon, B: cfg.Force.Sigma * cfg.Force.Sigma}, nil
	},
}
