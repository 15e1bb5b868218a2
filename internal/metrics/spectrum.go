package metrics

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("metrics: series too short for spectral analysis")

// MinSpectrumSamples is the shortest series the spectral functions accept.
const MinSpectrumSamples = 8

// PowerSpectrum returns |X_k|² for k = 0..n/2 of the mean-removed series.
// Bin k corresponds to frequency k/(n·dt).
func PowerSpectrum(series []float64) ([]float64, error) {
	n := len(series)
	if n < MinSpectrumSamples {
		return nil, ErrShortSeries
	}

	x := make([]float64, n)
	copy(x, series)
	floats.AddConst(-stat.Mean(x, nil), x)

	spectrum := fft.FFTReal(x)
	power := make([]float64, n/2+1)
	for k := range power {
		a := cmplx.Abs(spectrum[k])
		power[k] = a * a
	}
	return power, nil
}

// DominantFrequency returns the frequency, in cycles per unit time, of the
// strongest non-DC bin of the series sampled every dt. Zero means the series
// is constant.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	if !(dt > 0) {
		return 0, errors.New("metrics: sample spacing must be positive")
	}
	power, err := PowerSpectrum(series)
	if err != nil {
		return 0, err
	}

	peak, best := 0, 0.0
	for k := 1; k < len(power); k++ {
		if power[k] > best {
			peak, best = k, power[k]
		}
	}

	return float64(peak) / (float64(len(series)) * dt), nil
}
