package source

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/oov/audio/resampler"

	"github.com/cwbudde/algo-tempo/playback/graph"
)

const (
	resampleQuality = 10

	// Input frames pulled from the wrapped producer per refill.
	resampleChunk = 1024

	// Upper bound on silence fed after end of input to flush the filter.
	maxResampleTail = 4 * resampleChunk
)

// Resampled converts a producer to another sample rate. Rates that already
// match return p unchanged.
func Resampled(p graph.Producer, sampleRate float64) (graph.Producer, error) {
	if p == nil {
		return nil, errors.New("resampled source: nil producer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("resampled source rate must be positive: %f", sampleRate)
	}

	inRate := int(math.Round(p.SampleRate()))
	outRate := int(math.Round(sampleRate))
	if inRate == outRate {
		return p, nil
	}

	ch := p.Channels()
	r := &resampledProducer{
		src:     p,
		inRate:  inRate,
		outRate: outRate,
		r:       resampler.New(ch, inRate, outRate, resampleQuality),
		pending: make([][]float32, ch),
	}
	for c := range r.pending {
		r.pending[c] = make([]float32, resampleChunk)
	}
	return r, nil
}

// resampledProducer feeds the wrapped producer through the resampler. At
// end of input it pushes silence to flush the filter tail and stops once
// the output reaches the input length scaled by the rate ratio.
type resampledProducer struct {
	src     graph.Producer
	inRate  int
	outRate int
	r       *resampler.Resampler

	pending [][]float32
	discard []float32
	off     int
	n       int
	eof     bool

	framesIn  int64
	framesOut int64
	tail      int
}

func (r *resampledProducer) SampleRate() float64 { return float64(r.outRate) }
func (r *resampledProducer) Channels() int       { return r.src.Channels() }

func (r *resampledProducer) Read(dst [][]float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst[0])
	filled := 0
	for filled < want {
		if r.off == r.n {
			if r.eof {
				if !r.feedTail() {
					break
				}
				continue
			}
			if err := r.refill(); err != nil {
				return filled, err
			}
			continue
		}

		stop := want
		if r.eof {
			stop = min(want, filled+int(r.remaining()))
			if stop == filled {
				r.off = r.n
				r.tail = maxResampleTail
				break
			}
		}

		read, written := 0, 0
		for c := range r.pending {
			in := r.pending[c][r.off:r.n]
			var out []float32
			if c < len(dst) {
				out = dst[c][filled:stop]
			} else {
				r.discard = growFloat32(r.discard, stop-filled)
				out = r.discard
			}
			read, written = r.r.ProcessFloat32(c, in, out)
		}
		r.off += read
		filled += written
		r.framesOut += int64(written)
		if read == 0 && written == 0 {
			break
		}
	}

	if filled == 0 && r.done() {
		return 0, io.EOF
	}
	return filled, nil
}

// remaining returns how many output frames the input read so far still owes.
func (r *resampledProducer) remaining() int64 {
	total := (r.framesIn*int64(r.outRate) + int64(r.inRate) - 1) / int64(r.inRate)
	return max(total-r.framesOut, 0)
}

// feedTail queues a chunk of silence after end of input while output is
// still owed. It reports false once the tail is complete.
func (r *resampledProducer) feedTail() bool {
	if r.remaining() == 0 || r.tail >= maxResampleTail {
		return false
	}
	for c := range r.pending {
		clear(r.pending[c])
	}
	r.off, r.n = 0, resampleChunk
	r.tail += resampleChunk
	return true
}

func (r *resampledProducer) done() bool {
	return r.eof && r.off == r.n && (r.remaining() == 0 || r.tail >= maxResampleTail)
}

func (r *resampledProducer) refill() error {
	n, err := r.src.Read(r.pending)
	r.off, r.n = 0, max(n, 0)
	r.framesIn += int64(r.n)
	if errors.Is(err, io.EOF) {
		r.eof = true
		return nil
	}
	if err != nil {
		r.eof = true
		return fmt.Errorf("resampled source: %w", err)
	}
	if n == 0 {
		// A producer that returns nothing without an error is treated as
		// exhausted.
		r.eof = true
	}
	return nil
}

func growFloat32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
