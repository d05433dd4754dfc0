package tempo

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-tempo/playback/graph"
)

const testRate = 44100.0

var errAllocation = errors.New("no audio device")

// tone is a stereo sine producer.
type tone struct {
	freq float64
	pos  int
}

func (s *tone) SampleRate() float64 { return testRate }
func (s *tone) Channels() int       { return 2 }

func (s *tone) Read(dst [][]float32) (int, error) {
	n := len(dst[0])
	for i := range n {
		v := float32(0.5 * math.Sin(2*math.Pi*s.freq*float64(s.pos+i)/testRate))
		for c := range dst {
			dst[c][i] = v
		}
	}
	s.pos += n
	return n, nil
}

// contextRecorder hands out graphs and remembers them.
type contextRecorder struct {
	mu     sync.Mutex
	opts   []graph.Option
	fail   bool
	graphs []*graph.Graph
}

func (r *contextRecorder) factory() graph.ContextFactory {
	return func() (graph.Context, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.fail {
			return nil, errAllocation
		}
		g, err := graph.New(testRate, 2, r.opts...)
		if err != nil {
			return nil, err
		}
		r.graphs = append(r.graphs, g)
		return g, nil
	}
}

func (r *contextRecorder) last(t *testing.T) *graph.Graph {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.graphs) == 0 {
		t.Fatal("no audio context was allocated")
	}
	return r.graphs[len(r.graphs)-1]
}

// countingEngine wraps an Engine and counts calls into it.
type countingEngine struct {
	Engine
	processCalls atomic.Int64
	clears       atomic.Int64
}

func (e *countingEngine) Process() {
	e.processCalls.Add(1)
	e.Engine.Process()
}

func (e *countingEngine) Clear() {
	e.clears.Add(1)
	e.Engine.Clear()
}

// engineRecorder wraps the default factory.
type engineRecorder struct {
	mu      sync.Mutex
	fail    bool
	engines []*countingEngine
}

func (r *engineRecorder) factory(sampleRate float64, channels int) (Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return nil, errAllocation
	}
	e, err := NewStretchEngine(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	ce := &countingEngine{Engine: e}
	r.engines = append(r.engines, ce)
	return ce, nil
}

func (r *engineRecorder) last(t *testing.T) *countingEngine {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.engines) == 0 {
		t.Fatal("no engine was created")
	}
	return r.engines[len(r.engines)-1]
}

// scriptedEngine returns a fixed number of frames of a constant per cycle.
type scriptedEngine struct {
	tempo, pitch float64
	perCycle     int
	value        float64
	panicOnce    bool
	setTempos    int

	in  scriptedQueue
	out scriptedQueue
}

func (e *scriptedEngine) Tempo() float64 { return e.tempo }
func (e *scriptedEngine) Pitch() float64 { return e.pitch }

func (e *scriptedEngine) SetTempo(v float64) error {
	e.setTempos++
	if !(v > 0) || math.IsInf(v, 0) {
		return errors.New("bad tempo")
	}
	e.tempo = v
	return nil
}

func (e *scriptedEngine) SetPitch(v float64) error {
	e.pitch = v
	return nil
}

func (e *scriptedEngine) InputQueue() Queue  { return &e.in }
func (e *scriptedEngine) OutputQueue() Queue { return &e.out }

func (e *scriptedEngine) Process() {
	if e.panicOnce {
		e.panicOnce = false
		panic("engine fault")
	}
	e.in.frames = 0
	e.out.frames += e.perCycle
	e.out.value = e.value
}

func (e *scriptedEngine) Clear() {
	e.in.frames, e.out.frames = 0, 0
}

type scriptedQueue struct {
	frames int
	value  float64
}

func (q *scriptedQueue) PutSamples(_ []float64, _, frames int) { q.frames += frames }
func (q *scriptedQueue) FrameCount() int                       { return q.frames }

func (q *scriptedQueue) ReceiveSamples(dst []float64, frames int) int {
	n := min(frames, q.frames, len(dst)/2)
	for i := range 2 * n {
		dst[i] = q.value
	}
	q.frames -= n
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(t *testing.T, f graph.ContextFactory, opts ...Option) *Processor {
	t.Helper()

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	p, err := New(f, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// garbage returns a stereo block pre-filled with NaN.
func garbage(frames int) [][]float32 {
	out := make([][]float32, 2)
	for c := range out {
		out[c] = make([]float32, frames)
		for i := range out[c] {
			out[c][i] = float32(math.NaN())
		}
	}
	return out
}
