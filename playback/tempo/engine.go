package tempo

import "github.com/cwbudde/algo-tempo/dsp/stretch"

// Queue is an interleaved frame queue of a streaming engine.
type Queue interface {
	PutSamples(src []float64, offset, frames int)
	FrameCount() int
	ReceiveSamples(dst []float64, frames int) int
}

// Engine is the streaming time-stretch engine driven by a Processor.
type Engine interface {
	Tempo() float64
	SetTempo(tempo float64) error
	Pitch() float64
	SetPitch(pitch float64) error
	InputQueue() Queue
	OutputQueue() Queue
	Process()
	Clear()
}

// EngineFactory creates an engine for an interleaved stream.
type EngineFactory func(sampleRate float64, channels int) (Engine, error)

// NewStretchEngine is the default EngineFactory, backed by the WSOLA engine
// in dsp/stretch.
func NewStretchEngine(sampleRate float64, channels int) (Engine, error) {
	e, err := stretch.NewEngine(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return stretchEngine{e}, nil
}

type stretchEngine struct {
	*stretch.Engine
}

func (e stretchEngine) InputQueue() Queue  { return e.Engine.InputQueue() }
func (e stretchEngine) OutputQueue() Queue { return e.Engine.OutputQueue() }
