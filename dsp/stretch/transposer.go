package stretch

import (
	"fmt"

	"github.com/cwbudde/algo-tempo/dsp/buffer"
	"github.com/cwbudde/algo-tempo/dsp/core"
	"github.com/cwbudde/algo-tempo/dsp/interp"
)

// Transposer resamples an interleaved stream by a fractional rate.
//
// A rate of 2.0 reads input twice as fast (one octave up, half the
// frames), 0.5 reads it at half speed. The read position is carried across
// calls, so chunk boundaries do not produce discontinuities.
type Transposer struct {
	channels int
	rate     float64
	mode     interp.Mode

	pos   float64
	hist  *buffer.FIFO
	frame []float64
}

// NewTransposer returns a unity-rate Hermite transposer.
func NewTransposer(channels int) (*Transposer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("transposer channel count must be >= 1: %d", channels)
	}
	t := &Transposer{
		channels: channels,
		rate:     1,
		mode:     interp.Hermite,
		hist:     buffer.NewFIFO(channels),
		frame:    make([]float64, channels),
	}
	t.Reset()
	return t, nil
}

// Rate returns the read rate.
func (t *Transposer) Rate() float64 { return t.rate }

// SetRate updates the read rate.
func (t *Transposer) SetRate(rate float64) error {
	if !core.IsFinitePositive(rate) {
		return fmt.Errorf("transposer rate must be positive and finite: %f", rate)
	}
	t.rate = rate
	return nil
}

// Mode returns the interpolation kernel.
func (t *Transposer) Mode() interp.Mode { return t.mode }

// SetMode selects the interpolation kernel.
func (t *Transposer) SetMode(mode interp.Mode) { t.mode = mode }

// Reset drops pending frames and restores the single frame of zero history.
func (t *Transposer) Reset() {
	t.hist.Clear()
	t.hist.PutSilence(1)
	t.pos = 1
}

// pendingOutput returns how many output frames the buffered history plus
// extra input frames will still yield.
func (t *Transposer) pendingOutput(extra int) float64 {
	left := max(float64(t.hist.FrameCount()+extra)-t.pos, 0)
	return left / t.rate
}

// Process moves every frame of in into the transposer and appends all
// output frames that can be interpolated so far to out.
func (t *Transposer) Process(in, out *buffer.FIFO) {
	in.MoveTo(t.hist)

	ch := t.channels
	src := t.hist.Samples()
	n := t.hist.FrameCount()

	for {
		i := int(t.pos)
		if i+2 >= n {
			break
		}
		frac := t.pos - float64(i)
		base := i * ch
		for c := range ch {
			t.frame[c] = t.mode.At(frac,
				src[base-ch+c], src[base+c], src[base+ch+c], src[base+2*ch+c])
		}
		out.PutSamples(t.frame, 0, 1)
		t.pos += t.rate
	}

	if drop := int(t.pos) - 1; drop > 0 {
		dropped := t.hist.Discard(drop)
		t.pos -= float64(dropped)
	}
}
