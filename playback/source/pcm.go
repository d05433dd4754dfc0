package source

import (
	"fmt"
	"io"
	"time"
)

// PCM is an in-memory planar stream. Decoding happens up front so that
// Read never touches the file system from the audio thread.
type PCM struct {
	rate float64
	data [][]float32
	pos  int
}

// NewPCM wraps planar channel data. All channels must have equal length.
func NewPCM(sampleRate float64, data [][]float32) (*PCM, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pcm source needs at least one channel")
	}
	for c := range data {
		if len(data[c]) != len(data[0]) {
			return nil, fmt.Errorf("pcm channel %d has %d frames, want %d", c, len(data[c]), len(data[0]))
		}
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("pcm sample rate must be positive: %f", sampleRate)
	}
	return &PCM{rate: sampleRate, data: data}, nil
}

func (p *PCM) SampleRate() float64 { return p.rate }
func (p *PCM) Channels() int       { return len(p.data) }

// Frames returns the stream length in frames.
func (p *PCM) Frames() int { return len(p.data[0]) }

// Position returns the next frame Read will return.
func (p *PCM) Position() int { return p.pos }

// Duration returns the stream length.
func (p *PCM) Duration() time.Duration {
	return time.Duration(float64(p.Frames()) / p.rate * float64(time.Second))
}

// Rewind moves the read position back to the start.
func (p *PCM) Rewind() { p.pos = 0 }

// Read copies the next frames into dst. Channels beyond the stream's count
// are left untouched.
func (p *PCM) Read(dst [][]float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	left := p.Frames() - p.pos
	if left <= 0 {
		return 0, io.EOF
	}

	n := min(len(dst[0]), left)
	for c := range min(len(dst), len(p.data)) {
		copy(dst[c][:n], p.data[c][p.pos:p.pos+n])
	}
	p.pos += n
	return n, nil
}
