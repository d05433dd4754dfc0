package stretch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tempo/dsp/buffer"
	"github.com/cwbudde/algo-tempo/dsp/core"
	"github.com/cwbudde/algo-tempo/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// Music-tuned defaults matching SoundTouch's music preset (82/10/28 ms).
	defaultSequenceMs = 82.0
	defaultOverlapMs  = 10.0
	defaultSeekMs     = 28.0

	minSequenceMs = 20.0
	maxSequenceMs = 120.0
	minOverlapMs  = 4.0
	maxOverlapMs  = 40.0
	minSeekMs     = 2.0
	maxSeekMs     = 40.0

	// Stretch ratios outside this range are clamped for the window math only.
	minStretchRatio = 1.0 / 16
	maxStretchRatio = 16.0

	minOverlapFrames = 8
	stretchTiny      = 1e-12
)

// Stretcher is a streaming WSOLA time-stretch stage.
//
// Each iteration emits one sequence hop (sequence minus overlap frames) and
// consumes tempo times that many input frames, carrying the fractional skip
// to the next iteration. Consecutive sequences are joined with a
// raised-cosine crossfade at the offset where the incoming sequence best
// correlates with the tail of the previous one.
type Stretcher struct {
	sampleRate float64
	channels   int
	tempo      float64

	sequenceMs float64
	overlapMs  float64
	seekMs     float64

	sequenceLen int
	overlapLen  int
	seekLen     int

	nominalSkip float64
	skipFract   float64
	sampleReq   int
	primed      bool

	mid      []float64
	fadeIn   []float64
	fadeOut  []float64
	scratchA []float64
	scratchB []float64
}

// NewStretcher constructs a stretcher for interleaved frames with tuned defaults.
func NewStretcher(sampleRate float64, channels int) (*Stretcher, error) {
	if !core.IsFinitePositive(sampleRate) {
		return nil, fmt.Errorf("stretcher sample rate must be positive and finite: %f", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("stretcher channel count must be >= 1: %d", channels)
	}
	s := &Stretcher{
		sampleRate: sampleRate,
		channels:   channels,
		tempo:      1,
		sequenceMs: defaultSequenceMs,
		overlapMs:  defaultOverlapMs,
		seekMs:     defaultSeekMs,
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// SampleRate returns the sample rate in Hz.
func (s *Stretcher) SampleRate() float64 { return s.sampleRate }

// Channels returns the interleaved channel count.
func (s *Stretcher) Channels() int { return s.channels }

// Tempo returns the stretch ratio (input frames consumed per output frame).
func (s *Stretcher) Tempo() float64 { return s.tempo }

// Sequence returns the sequence length in milliseconds.
func (s *Stretcher) Sequence() float64 { return s.sequenceMs }

// Overlap returns the overlap length in milliseconds.
func (s *Stretcher) Overlap() float64 { return s.overlapMs }

// Seek returns the seek window length in milliseconds.
func (s *Stretcher) Seek() float64 { return s.seekMs }

// InputFramesRequired returns how many queued input frames one iteration needs.
func (s *Stretcher) InputFramesRequired() int { return s.sampleReq }

// HopFrames returns the number of output frames emitted per iteration.
func (s *Stretcher) HopFrames() int { return s.sequenceLen - s.overlapLen }

// SetTempo updates the stretch ratio. It keeps the stream running:
// buffered input and the crossfade tail are preserved.
func (s *Stretcher) SetTempo(tempo float64) error {
	if !core.IsFinitePositive(tempo) {
		return fmt.Errorf("stretcher tempo must be positive and finite: %f", tempo)
	}
	s.tempo = tempo
	s.updateSkip()
	return nil
}

// SetSequence updates the sequence length in milliseconds and resets state.
func (s *Stretcher) SetSequence(ms float64) error {
	if ms < minSequenceMs || ms > maxSequenceMs || math.IsNaN(ms) {
		return fmt.Errorf("stretcher sequence must be in [%f, %f] ms: %f",
			minSequenceMs, maxSequenceMs, ms)
	}
	old := s.sequenceMs
	s.sequenceMs = ms
	if err := s.rebuild(); err != nil {
		s.sequenceMs = old
		_ = s.rebuild()
		return err
	}
	return nil
}

// SetOverlap updates the overlap length in milliseconds and resets state.
func (s *Stretcher) SetOverlap(ms float64) error {
	if ms < minOverlapMs || ms > maxOverlapMs || math.IsNaN(ms) {
		return fmt.Errorf("stretcher overlap must be in [%f, %f] ms: %f",
			minOverlapMs, maxOverlapMs, ms)
	}
	old := s.overlapMs
	s.overlapMs = ms
	if err := s.rebuild(); err != nil {
		s.overlapMs = old
		_ = s.rebuild()
		return err
	}
	return nil
}

// SetSeek updates the seek window length in milliseconds and resets state.
func (s *Stretcher) SetSeek(ms float64) error {
	if ms < minSeekMs || ms > maxSeekMs || math.IsNaN(ms) {
		return fmt.Errorf("stretcher seek must be in [%f, %f] ms: %f",
			minSeekMs, maxSeekMs, ms)
	}
	old := s.seekMs
	s.seekMs = ms
	if err := s.rebuild(); err != nil {
		s.seekMs = old
		_ = s.rebuild()
		return err
	}
	return nil
}

// Reset drops the crossfade tail and the fractional skip.
func (s *Stretcher) Reset() {
	s.primed = false
	s.skipFract = 0
	core.Zero(s.mid)
}

// Process consumes as many whole iterations from in as are available and
// appends the stretched frames to out. Both queues must carry the
// stretcher's channel count.
func (s *Stretcher) Process(in, out *buffer.FIFO) {
	ch := s.channels
	ov := s.overlapLen
	body := s.sequenceLen - 2*ov

	for in.FrameCount() >= s.sampleReq {
		src := in.Samples()

		offset := 0
		if s.primed {
			offset = s.seekBestOverlap(src)
			s.crossfade(src[offset*ch : (offset+ov)*ch])
			out.PutSamples(s.scratchA, 0, ov)
		} else {
			out.PutSamples(src, 0, ov)
			s.primed = true
		}

		out.PutSamples(src, offset+ov, body)

		tail := (offset + s.sequenceLen - ov) * ch
		copy(s.mid, src[tail:tail+ov*ch])

		s.skipFract += s.nominalSkip
		skip := int(s.skipFract)
		s.skipFract -= float64(skip)
		in.Discard(skip)
	}
}

// pendingOutput returns how many output frames inFrames of queued, not yet
// consumed input are worth at the current ratio.
func (s *Stretcher) pendingOutput(inFrames int) float64 {
	left := max(float64(inFrames)-s.skipFract, 0)
	return left * float64(s.sequenceLen-s.overlapLen) / s.nominalSkip
}

// seekBestOverlap returns the frame offset in [0, seekLen) whose overlap
// window correlates best with the stored tail.
func (s *Stretcher) seekBestOverlap(src []float64) int {
	n := s.overlapLen * s.channels
	ch := s.channels

	energy := stretchTiny
	for _, v := range src[:n] {
		energy += v * v
	}

	best := 0
	bestScore := math.Inf(-1)
	for pos := range s.seekLen {
		cand := src[pos*ch : pos*ch+n]
		vecmath.MulBlock(s.scratchB, s.mid, cand)

		dot := 0.0
		for _, v := range s.scratchB {
			dot += v
		}

		score := dot / math.Sqrt(energy)
		if score > bestScore {
			bestScore = score
			best = pos
		}

		// Slide the candidate energy one frame forward.
		for c := range ch {
			out := src[pos*ch+c]
			in := src[pos*ch+n+c]
			energy += in*in - out*out
		}
		if energy < stretchTiny {
			energy = stretchTiny
		}
	}
	return best
}

// crossfade blends the stored tail into cand and leaves the result in scratchA.
func (s *Stretcher) crossfade(cand []float64) {
	vecmath.MulBlock(s.scratchA, s.mid, s.fadeOut)
	vecmath.MulBlock(s.scratchB, cand, s.fadeIn)
	vecmath.AddBlockInPlace(s.scratchA, s.scratchB)
}

func (s *Stretcher) updateSkip() {
	ratio := core.Clamp(s.tempo, minStretchRatio, maxStretchRatio)
	s.nominalSkip = ratio * float64(s.sequenceLen-s.overlapLen)
	intSkip := int(s.nominalSkip + 0.5)
	s.sampleReq = max(intSkip+s.overlapLen, s.sequenceLen) + s.seekLen
}

func (s *Stretcher) rebuild() error {
	s.sequenceLen = int(math.Round(s.sequenceMs * 0.001 * s.sampleRate))
	s.overlapLen = max(int(math.Round(s.overlapMs*0.001*s.sampleRate)), minOverlapFrames)
	if s.sequenceLen < 2*s.overlapLen {
		return fmt.Errorf("stretcher sequence must hold two overlaps: overlap=%d sequence=%d",
			s.overlapLen, s.sequenceLen)
	}
	s.seekLen = max(int(math.Round(s.seekMs*0.001*s.sampleRate)), 1)

	n := s.overlapLen * s.channels
	s.mid = core.EnsureLen(s.mid, n)
	s.fadeIn = core.EnsureLen(s.fadeIn, n)
	s.fadeOut = core.EnsureLen(s.fadeOut, n)
	s.scratchA = core.EnsureLen(s.scratchA, n)
	s.scratchB = core.EnsureLen(s.scratchB, n)

	fadeIn, fadeOut, err := window.Fade(s.overlapLen)
	if err != nil {
		return fmt.Errorf("stretcher crossfade: %w", err)
	}
	for i := range s.overlapLen {
		for c := range s.channels {
			s.fadeIn[i*s.channels+c] = fadeIn[i]
			s.fadeOut[i*s.channels+c] = fadeOut[i]
		}
	}

	s.updateSkip()
	s.Reset()
	return nil
}
