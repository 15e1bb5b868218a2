package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/verlet/internal/config"
	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/experiment"
	"gonum.org/v1/gonum/stat"
)

// Point is one cell of a step-size sweep.
type Point struct {
	Integrator string
	Dt         float64
	Drift      float64
	ForceEvals int
	Unstable   bool
}

// GridSearch runs every integrator at every step size on the same scenario.
type GridSearch struct {
	Integrators []string
	Dts         []float64
}

func NewGridSearch(integrators []string, dts []float64) *GridSearch {
	return &GridSearch{Integrators: integrators, Dts: dts}
}

// Search returns one point per (integrator, dt) pair, grouped by integrator
// in the order given. A run that diverges is recorded with infinite drift
// instead of aborting the sweep.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry) ([]Point, error) {
	points := make([]Point, 0, len(g.Integrators)*len(g.Dts))

	for _, name := range g.Integrators {
		for _, dt := range g.Dts {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", dynamo.ErrCanceled, err)
			}

			cfg := base.Clone()
			cfg.Integrator = name
			cfg.Dt = dt

			exp, err := experiment.New(cfg, reg)
			if err != nil {
				return nil, fmt.Errorf("%s at dt=%g: %w", name, dt, err)
			}

			res, err := exp.Run(ctx, dynamo.Options{ValidateState: true})
			switch {
			case errors.Is(err, dynamo.ErrUnstable):
				points = append(points, Point{Integrator: name, Dt: dt, Drift: math.Inf(1), Unstable: true})
				continue
			case err != nil:
				return nil, fmt.Errorf("%s at dt=%g: %w", name, dt, err)
			}

			drift := res.EnergyDrift
			if math.IsNaN(drift) {
				drift = math.Inf(1)
			}
			points = append(points, Point{
				Integrator: name,
				Dt:         dt,
				Drift:      drift,
				ForceEvals: res.Trajectory.ForceEvals,
			})
		}
	}

	return points, nil
}

// Order estimates p in drift ∝ dt^p for one integrator by least squares on
// log drift against log dt. Points with zero or infinite drift are ignored;
// fewer than two usable points yield NaN.
func Order(points []Point, integrator string) float64 {
	var x, y []float64
	for _, p := range points {
		if p.Integrator != integrator || !(p.Drift > 0) || math.IsInf(p.Drift, 0) || !(p.Dt > 0) {
			continue
		}
		x = append(x, math.Log(p.Dt))
		y = append(y, math.Log(p.Drift))
	}
	if len(x) < 2 {
		return math.NaN()
	}
	_, slope := stat.LinearRegression(x, y, nil, false)
	return slope
}

// LargestDt returns the largest step size at which integrator kept its
// energy drift within tol.
func LargestDt(points []Point, integrator string, tol float64) (float64, bool) {
	var ok []float64
	for _, p := range points {
		if p.Integrator == integrator && p.Drift <= tol {
			ok = append(ok, p.Dt)
		}
	}
	if len(ok) == 0 {
		return 0, false
	}
	sort.Float64s(ok)
	return ok[len(ok)-1], true
}
