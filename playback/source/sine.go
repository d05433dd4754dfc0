package source

import (
	"io"
	"math"
)

// Sine is a deterministic tone producer with the same signal on every
// channel. A zero frame limit makes it endless.
type Sine struct {
	rate      float64
	freq      float64
	amplitude float64
	channels  int
	limit     int
	pos       int
}

// NewSine returns a tone of freq Hz. frames bounds the stream length; zero
// means endless.
func NewSine(sampleRate, freq, amplitude float64, channels, frames int) *Sine {
	return &Sine{
		rate:      sampleRate,
		freq:      freq,
		amplitude: amplitude,
		channels:  max(channels, 1),
		limit:     max(frames, 0),
	}
}

func (s *Sine) SampleRate() float64 { return s.rate }
func (s *Sine) Channels() int       { return s.channels }

func (s *Sine) Read(dst [][]float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	n := len(dst[0])
	if s.limit > 0 {
		n = min(n, s.limit-s.pos)
		if n <= 0 {
			return 0, io.EOF
		}
	}

	w := 2 * math.Pi * s.freq / s.rate
	for i := range n {
		v := float32(s.amplitude * math.Sin(w*float64(s.pos+i)))
		for c := range dst {
			dst[c][i] = v
		}
	}
	s.pos += n
	return n, nil
}
