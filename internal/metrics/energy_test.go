package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verlet/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type spring struct{ k float64 }

func (s spring) PotentialEnergy(x mat.Matrix) float64 {
	return 0.5 * s.k * x.At(0, 0) * x.At(0, 0)
}

func TestKineticEnergy(t *testing.T) {
	v := mat.NewDense(2, 2, []float64{3, 4, 1, 0})
	if ke := KineticEnergy(v, []float64{2, 4}); ke != 27 {
		t.Errorf("KineticEnergy = %v, want 27", ke)
	}
}

func TestMomentum(t *testing.T) {
	v := mat.NewDense(2, 2, []float64{1, 2, -1, 0.5})
	p := Momentum(v, []float64{2, 4})
	if p[0] != -2 || p[1] != 6 {
		t.Errorf("Momentum = %v, want [-2 6]", p)
	}
}

func TestEnergySeries(t *testing.T) {
	tr := dynamo.NewTrajectory(2, 1, 1, []float64{2})
	tr.Positions[0].Set(0, 0, 1)
	tr.Velocities[1].Set(0, 0, 1)

	got := EnergySeries(tr, spring{k: 2})
	if got[0] != 1 || got[1] != 1 {
		t.Errorf("EnergySeries = %v, want [1 1]", got)
	}

	if ke := EnergySeries(tr, nil); ke[0] != 0 || ke[1] != 1 {
		t.Errorf("kinetic only = %v, want [0 1]", ke)
	}
}

func TestEnergyDrift(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 0},
		{"flat", []float64{2, 2, 2}, 0},
		{"relative", []float64{2, 2.1, 1.8, 2}, 0.1},
		{"zero start", []float64{0, 0.5, -1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnergyDrift(tt.series); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("EnergyDrift = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnergyStats(t *testing.T) {
	mean, std := EnergyStats([]float64{1, 2, 3, 4})
	if mean != 2.5 {
		t.Errorf("mean = %v", mean)
	}
	if math.Abs(std-math.Sqrt(5.0/3.0)) > 1e-12 {
		t.Errorf("std = %v", std)
	}
	if m, s := EnergyStats([]float64{7}); m != 7 || s != 0 {
		t.Errorf("single sample = %v, %v", m, s)
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		dt = 0.01
		n  = 500
	)
	series := make([]float64, n)
	for i := range series {
		ti := float64(i) * dt
		series[i] = 3 + math.Cos(2*math.Pi*2*ti)
	}

	f, err := DominantFrequency(series, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f-2) > 1e-9 {
		t.Errorf("DominantFrequency = %v, want 2", f)
	}

	if _, err := DominantFrequency(series[:3], dt); !errors.Is(err, ErrShortSeries) {
		t.Errorf("short series err = %v", err)
	}
	if _, err := DominantFrequency(series, 0); err == nil {
		t.Error("zero dt should fail")
	}
}

func TestPowerSpectrum(t *testing.T) {
	power, err := PowerSpectrum([]float64{5, 5, 5, 5, 5, 5, 5, 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(power) != 5 {
		t.Fatalf("got %d bins, want 5", len(power))
	}
	for k, p := range power {
		if p > 1e-20 {
			t.Errorf("constant series has power %g in bin %d", p, k)
		}
	}

	f, err := DominantFrequency([]float64{5, 5, 5, 5, 5, 5, 5, 5}, 0.1)
	if err != nil || f != 0 {
		t.Errorf("constant series: f = %v, err = %v", f, err)
	}
}

// pair returns two 1-D single particle runs whose phase space distance is
// eps·dist(t) on a grid of n samples spaced dt apart.
func pair(n int, dt, eps float64, dist func(t float64) (dx, dv float64)) (*dynamo.Trajectory, *dynamo.Trajectory) {
	a := dynamo.NewTrajectory(n, 1, 1, []float64{1})
	b := dynamo.NewTrajectory(n, 1, 1, []float64{1})
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		a.Times[i], b.Times[i] = t, t
		dx, dv := dist(t)
		b.Positions[i].Set(0, 0, eps*dx)
		b.Velocities[i].Set(0, 0, eps*dv)
	}
	return a, b
}

func TestLyapunovExponent(t *testing.T) {
	tests := []struct {
		name     string
		dist     func(t float64) (float64, float64)
		min, max float64
	}{
		{"rotation", func(t float64) (float64, float64) { return math.Cos(t), -math.Sin(t) }, -1e-9, 1e-9},
		{"saddle", func(t float64) (float64, float64) { return math.Cosh(t), math.Sinh(t) }, 0.9, 1},
		{"pure exponential", func(t float64) (float64, float64) { return math.Exp(0.5 * t), 0 }, 0.5 - 1e-9, 0.5 + 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := pair(1001, 0.01, 1e-6, tt.dist)
			got, err := LyapunovExponent(a, b, 1)
			if err != nil {
				t.Fatal(err)
			}
			if got < tt.min || got > tt.max {
				t.Errorf("λ = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestLyapunovExponent_Saturation(t *testing.T) {
	// e^t reaches 1e-6·e^t = 1e-3 at t = ln 1000, after which samples are dropped
	a, b := pair(2001, 0.01, 1e-6, func(t float64) (float64, float64) {
		if t > 10 {
			return math.Exp(10), 0
		}
		return math.Exp(t), 0
	})

	got, err := LyapunovExponent(a, b, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("λ = %v, want 1", got)
	}

	if _, err := LyapunovExponent(a, b, 1e-7); !errors.Is(err, ErrShortSeries) {
		t.Errorf("err = %v, want ErrShortSeries", err)
	}
}

func TestLyapunovExponent_Errors(t *testing.T) {
	a, b := pair(10, 0.1, 0, func(float64) (float64, float64) { return 1, 0 })
	if _, err := LyapunovExponent(a, b, 0); !errors.Is(err, ErrNoSeparation) {
		t.Errorf("err = %v, want ErrNoSeparation", err)
	}

	short := dynamo.NewTrajectory(5, 1, 1, []float64{1})
	if _, err := Separation(a, short); !errors.Is(err, dynamo.ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}
