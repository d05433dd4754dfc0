package stretch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tempo/dsp/buffer"
	"github.com/cwbudde/algo-tempo/dsp/core"
)

const (
	defaultEngineTempo = 1.0
	defaultEnginePitch = 1.0

	// Initial queue capacity in seconds of audio.
	engineQueueSeconds = 0.5
)

// Engine is a streaming time-stretch engine over interleaved frames.
//
// Tempo scales playback speed (1.5 = 50% faster) and pitch scales
// frequency (2.0 = one octave up); the two are independent. Internally the
// stretcher runs at tempo/pitch and the transposer at pitch.
//
// Engine is not safe for concurrent use.
type Engine struct {
	sampleRate float64
	channels   int
	tempo      float64
	pitch      float64

	input  *buffer.FIFO
	mid    *buffer.FIFO
	output *buffer.FIFO

	stretcher  *Stretcher
	transposer *Transposer
}

// NewEngine constructs an engine at unity tempo and pitch.
func NewEngine(sampleRate float64, channels int) (*Engine, error) {
	s, err := NewStretcher(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("stretch engine: %w", err)
	}
	t, err := NewTransposer(channels)
	if err != nil {
		return nil, fmt.Errorf("stretch engine: %w", err)
	}

	e := &Engine{
		sampleRate: sampleRate,
		channels:   channels,
		tempo:      defaultEngineTempo,
		pitch:      defaultEnginePitch,
		input:      buffer.NewFIFO(channels),
		mid:        buffer.NewFIFO(channels),
		output:     buffer.NewFIFO(channels),
		stretcher:  s,
		transposer: t,
	}

	frames := int(engineQueueSeconds * sampleRate)
	e.input.Grow(max(frames, 2*s.InputFramesRequired()))
	e.mid.Grow(frames)
	e.output.Grow(frames)

	return e, nil
}

// SampleRate returns the sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Channels returns the interleaved channel count.
func (e *Engine) Channels() int { return e.channels }

// Tempo returns the tempo factor.
func (e *Engine) Tempo() float64 { return e.tempo }

// Pitch returns the pitch factor.
func (e *Engine) Pitch() float64 { return e.pitch }

// SetTempo updates the tempo factor. Values outside [1/16, 16] are accepted
// and reported back unchanged; the stretch window math clamps them.
func (e *Engine) SetTempo(tempo float64) error {
	if !core.IsFinitePositive(tempo) {
		return fmt.Errorf("engine tempo must be positive and finite: %f", tempo)
	}
	e.tempo = tempo
	return e.stretcher.SetTempo(e.tempo / e.pitch)
}

// SetPitch updates the pitch factor.
func (e *Engine) SetPitch(pitch float64) error {
	if !core.IsFinitePositive(pitch) {
		return fmt.Errorf("engine pitch must be positive and finite: %f", pitch)
	}
	if err := e.transposer.SetRate(pitch); err != nil {
		return err
	}
	e.pitch = pitch
	return e.stretcher.SetTempo(e.tempo / e.pitch)
}

// InputQueue returns the queue that receives interleaved input frames.
func (e *Engine) InputQueue() *buffer.FIFO { return e.input }

// OutputQueue returns the queue holding processed frames.
func (e *Engine) OutputQueue() *buffer.FIFO { return e.output }

// Stretcher exposes the tempo stage for window tuning.
func (e *Engine) Stretcher() *Stretcher { return e.stretcher }

// Process runs every complete iteration the queued input allows.
func (e *Engine) Process() {
	e.stretcher.Process(e.input, e.mid)
	e.transposer.Process(e.mid, e.output)
}

// Flush pushes silence through the pipeline until all queued input has been
// processed, then trims the output queue to the frames that input is worth,
// so a whole stream comes out at its input length divided by tempo. Use it
// at end of stream; the stages are reset afterwards.
func (e *Engine) Flush() {
	pending := e.input.FrameCount()
	if pending == 0 {
		return
	}

	stretched := e.stretcher.pendingOutput(pending)
	want := e.output.FrameCount() +
		int(math.Round(e.transposer.pendingOutput(e.mid.FrameCount()+int(math.Round(stretched)))))

	e.input.PutSilence(pending + e.stretcher.InputFramesRequired())
	e.Process()
	e.output.Truncate(want)

	e.input.Clear()
	e.mid.Clear()
	e.stretcher.Reset()
	e.transposer.Reset()
}

// Clear empties all queues and resets the processing stages.
func (e *Engine) Clear() {
	e.input.Clear()
	e.mid.Clear()
	e.output.Clear()
	e.stretcher.Reset()
	e.transposer.Reset()
}
