// Package window generates the tapers used by the stretch engine's
// crossfades and by spectral analysis of its output.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form used for FFT framing instead of
// the symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	if err := validateLength(size); err != nil {
		return nil, err
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w, nil
	}

	den := float64(size - 1)
	if cfg.periodic {
		den = float64(size)
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/den)
	}

	return w, nil
}

// Fade returns a raised-cosine crossfade pair of the given length. fadeIn
// rises from 0 to 1, fadeOut is its complement, so fadeIn[i]+fadeOut[i]
// is always 1.
func Fade(size int) (fadeIn, fadeOut []float64, err error) {
	if err := validateLength(size); err != nil {
		return nil, nil, err
	}

	fadeIn = make([]float64, size)
	fadeOut = make([]float64, size)
	if size == 1 {
		fadeIn[0] = 0.5
		fadeOut[0] = 0.5
		return fadeIn, fadeOut, nil
	}

	for i := range fadeIn {
		t := float64(i) / float64(size-1)
		fadeIn[i] = 0.5 - 0.5*math.Cos(math.Pi*t)
		fadeOut[i] = 1 - fadeIn[i]
	}

	return fadeIn, fadeOut, nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return fmt.Errorf("samples and coefficients must have same length: %d != %d",
			len(samples), len(coeffs))
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}
