package metrics

import (
	"math"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KineticEnergy returns Σ ½ m_i |v_i|² over the rows of v.
func KineticEnergy(v mat.Matrix, mass []float64) float64 {
	n, dim := v.Dims()
	row := make([]float64, dim)
	ke := 0.0
	for i := 0; i < n && i < len(mass); i++ {
		mat.Row(row, i, v)
		ke += 0.5 * mass[i] * floats.Dot(row, row)
	}
	return ke
}

// EnergySeries returns the total energy at every sample. A nil potential
// yields the kinetic energy alone.
func EnergySeries(tr *dynamo.Trajectory, pot dynamo.Potential) []float64 {
	out := make([]float64, tr.Len())
	for i := range out {
		out[i] = KineticEnergy(tr.Velocities[i], tr.Mass)
		if pot != nil {
			out[i] += pot.PotentialEnergy(tr.Positions[i])
		}
	}
	return out
}

// EnergyDrift is the largest deviation from the first sample, relative to
// its magnitude. When the initial energy is zero the absolute deviation is
// returned instead.
func EnergyDrift(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	dev := make([]float64, len(series))
	copy(dev, series)
	floats.AddConst(-series[0], dev)
	for i, d := range dev {
		dev[i] = math.Abs(d)
	}
	drift := floats.Max(dev)
	if e0 := math.Abs(series[0]); e0 > 0 {
		drift /= e0
	}
	return drift
}

// EnergyStats returns the mean and sample standard deviation of series.
func EnergyStats(series []float64) (mean, std float64) {
	if len(series) == 0 {
		return 0, 0
	}
	if len(series) == 1 {
		return series[0], 0
	}
	return stat.MeanStdDev(series, nil)
}

// Momentum returns the total linear momentum Σ m_i v_i.
func Momentum(v mat.Matrix, mass []float64) []float64 {
	n, dim := v.Dims()
	p := make([]float64, dim)
	row := make([]float64, dim)
	for i := 0; i < n && i < len(mass); i++ {
		mat.Row(row, i, v)
		floats.AddScaled(p, mass[i], row)
	}
	return p
}
