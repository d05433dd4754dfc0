package testutil

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-tempo/dsp/window"
)

// DominantFrequency returns the frequency of the strongest FFT bin in the
// centered fftLen-sample chunk of x, refined by parabolic interpolation.
// fftLen must be a power of two no larger than len(x).
func DominantFrequency(x []float64, sampleRate float64, fftLen int) (float64, error) {
	if fftLen > len(x) {
		return 0, fmt.Errorf("fft length %d exceeds signal length %d", fftLen, len(x))
	}

	plan, err := algofft.NewPlan64(fftLen)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}

	mid := (len(x) - fftLen) / 2
	frame := append([]float64(nil), x[mid:mid+fftLen]...)
	w, err := window.Hann(fftLen, window.WithPeriodic())
	if err != nil {
		return 0, err
	}
	if err := window.ApplyCoefficientsInPlace(frame, w); err != nil {
		return 0, err
	}

	in := make([]complex128, fftLen)
	out := make([]complex128, fftLen)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}

	if err := plan.Forward(out, in); err != nil {
		return 0, fmt.Errorf("fft forward: %w", err)
	}

	mag := func(k int) float64 {
		re, im := real(out[k]), imag(out[k])
		return math.Sqrt(re*re + im*im)
	}

	peak := 1
	for k := 2; k < fftLen/2; k++ {
		if mag(k) > mag(peak) {
			peak = k
		}
	}

	a, b, c := mag(peak-1), mag(peak), mag(peak+1)
	shift := 0.0
	if den := a - 2*b + c; den != 0 {
		shift = 0.5 * (a - c) / den
	}

	return (float64(peak) + shift) * sampleRate / float64(fftLen), nil
}
