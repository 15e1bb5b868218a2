package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrNoSeparation = errors.New("metrics: runs start from the same state")

// Separation returns the phase space distance between two runs, sample by
// sample: the Euclidean norm of the position and velocity differences.
func Separation(a, b *dynamo.Trajectory) ([]float64, error) {
	if a.Len() != b.Len() || a.Particles() != b.Particles() || a.Dim() != b.Dim() {
		return nil, fmt.Errorf("%w: %d samples of %dx%d against %d of %dx%d", dynamo.ErrShapeMismatch,
			a.Len(), a.Particles(), a.Dim(), b.Len(), b.Particles(), b.Dim())
	}

	sep := make([]float64, a.Len())
	for i := range sep {
		dx := floats.Distance(a.Positions[i].RawMatrix().Data, b.Positions[i].RawMatrix().Data, 2)
		dv := floats.Distance(a.Velocities[i].RawMatrix().Data, b.Velocities[i].RawMatrix().Data, 2)
		sep[i] = math.Hypot(dx, dv)
	}
	return sep, nil
}

// LyapunovExponent estimates the largest Lyapunov exponent from two runs
// that start a small distance apart. It fits ln(d(t)/d(0)) = λ·(t-t0)
// through the origin by least squares. Samples from the first one whose
// separation reaches saturation onwards are ignored; saturation <= 0 keeps
// every sample. A positive exponent means nearby states diverge
// exponentially.
func LyapunovExponent(a, b *dynamo.Trajectory, saturation float64) (float64, error) {
	sep, err := Separation(a, b)
	if err != nil {
		return 0, err
	}
	if len(sep) == 0 || sep[0] == 0 {
		return 0, ErrNoSeparation
	}

	d0, t0 := sep[0], a.Times[0]
	var x, y []float64
	for i := 1; i < len(sep); i++ {
		d := sep[i]
		if saturation > 0 && d >= saturation {
			break
		}
		if !(d > 0) || math.IsInf(d, 0) {
			continue
		}
		x = append(x, a.Times[i]-t0)
		y = append(y, math.Log(d/d0))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("%w: %d usable samples", ErrShortSeries, len(x))
	}

	_, slope := stat.LinearRegression(x, y, nil, true)
	return slope, nil
}
