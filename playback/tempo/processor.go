package tempo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-tempo/dsp/core"
	"github.com/cwbudde/algo-tempo/playback/graph"
)

const (
	processorChannels = 2

	defaultTempo = 1.0
	fixedPitch   = 1.0
)

// ErrInvalidBufferSize is returned by New for cycle lengths the audio graph
// cannot schedule.
var ErrInvalidBufferSize = errors.New("tempo processor buffer size must be a power of two in [256, 16384]")

// Processor plays a live stereo source at a variable tempo with unchanged
// pitch.
//
// A Processor is Idle until Connect wires source, processing stage and
// destination in a fresh audio context, and Idle again after Disconnect.
// SetTempo may be called in any state; the value is cached and picked up by
// the next cycle of an active binding. Methods are safe for concurrent use.
type Processor struct {
	mu sync.Mutex

	id         uuid.UUID
	logger     *slog.Logger
	newContext graph.ContextFactory
	newEngine  EngineFactory
	bufferSize int

	tempo atomic.Uint64

	// Sample buffer set, allocated once in New and reused by every
	// binding. Only the active callback touches it.
	inputs      [][]float32
	interleaved []float64
	output      []float64

	active *binding
}

// binding is one wired audio graph plus its engine.
type binding struct {
	ctx    graph.Context
	source graph.Node
	stage  graph.ProcessorNode
	engine Engine

	// appliedBits holds the float bits of the tempo last pushed to engine.
	// Comparing bits keeps a cached NaN from being retried every cycle.
	// Callback-owned.
	appliedBits uint64
}

// New returns an Idle processor that allocates audio contexts with
// newContext.
func New(newContext graph.ContextFactory, opts ...Option) (*Processor, error) {
	if newContext == nil {
		return nil, errors.New("tempo processor: nil context factory")
	}

	cfg := config{
		bufferSize: DefaultBufferSize,
		newEngine:  NewStretchEngine,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !graph.ValidBufferSize(cfg.bufferSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, cfg.bufferSize)
	}

	id := uuid.New()
	p := &Processor{
		id:          id,
		logger:      cfg.logger.With("tempoProcessorUuid", id),
		newContext:  newContext,
		newEngine:   cfg.newEngine,
		bufferSize:  cfg.bufferSize,
		inputs:      make([][]float32, processorChannels),
		interleaved: make([]float64, processorChannels*cfg.bufferSize),
		output:      make([]float64, processorChannels*cfg.bufferSize),
	}
	for c := range p.inputs {
		p.inputs[c] = make([]float32, cfg.bufferSize)
	}
	p.storeTempo(defaultTempo)

	return p, nil
}

// ID returns the identifier the processor tags its log records with.
func (p *Processor) ID() uuid.UUID { return p.id }

// BufferSize returns the cycle length in frames.
func (p *Processor) BufferSize() int { return p.bufferSize }

// Tempo returns the cached tempo factor.
func (p *Processor) Tempo() float64 {
	return math.Float64frombits(p.tempo.Load())
}

// SetTempo caches factor and, while connected, hands it to the engine at
// the start of the next cycle. The engine is only ever touched from the
// audio callback, so its own Tempo keeps reporting the previous value until
// that cycle runs; Tempo on the Processor reflects the new value at once.
// Values the engine rejects (zero, negative, NaN) are kept in the cache
// but never reach the engine, and are offered to it once, not every cycle.
func (p *Processor) SetTempo(factor float64) {
	p.storeTempo(factor)
}

func (p *Processor) storeTempo(v float64) {
	p.tempo.Store(math.Float64bits(v))
}

// IsConnected reports whether a graph is currently wired.
func (p *Processor) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active != nil
}

// Connect binds src through a fresh audio context. An existing binding is
// torn down first. On error nothing stays wired and the processor is Idle.
func (p *Processor) Connect(src graph.Producer) error {
	if src == nil {
		return errors.New("tempo processor: nil source")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		if err := p.release(p.active); err != nil {
			p.logger.Warn("error while releasing previous binding", "err", err)
		}
		p.active = nil
	}

	ctx, err := p.newContext()
	if err != nil {
		return fmt.Errorf("tempo processor: allocate audio context: %w", err)
	}

	b := &binding{ctx: ctx}
	if err := p.wire(b, src); err != nil {
		if rerr := p.release(b); rerr != nil {
			p.logger.Warn("error while releasing partial binding", "err", rerr)
		}
		return fmt.Errorf("tempo processor: %w", err)
	}
	p.active = b

	p.logger.Info("connected",
		"sampleRate", ctx.SampleRate(),
		"bufferSize", p.bufferSize,
		"tempo", p.Tempo(),
		"state", ctx.State(),
	)
	return nil
}

func (p *Processor) wire(b *binding, src graph.Producer) error {
	engine, err := p.newEngine(b.ctx.SampleRate(), processorChannels)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	b.engine = engine

	b.appliedBits = p.tempo.Load()
	if err := engine.SetTempo(math.Float64frombits(b.appliedBits)); err != nil {
		p.logger.Warn("engine rejected cached tempo", "tempo", p.Tempo(), "err", err)
	}
	if err := engine.SetPitch(fixedPitch); err != nil {
		return fmt.Errorf("set engine pitch: %w", err)
	}

	if b.source, err = b.ctx.CreateSource(src); err != nil {
		return fmt.Errorf("create source node: %w", err)
	}
	if b.stage, err = b.ctx.CreateProcessor(p.bufferSize, processorChannels, processorChannels); err != nil {
		return fmt.Errorf("create processing stage: %w", err)
	}
	if err := b.source.Connect(b.stage); err != nil {
		return fmt.Errorf("connect source to stage: %w", err)
	}
	if err := b.stage.Connect(b.ctx.Destination()); err != nil {
		return fmt.Errorf("connect stage to destination: %w", err)
	}

	b.stage.SetProcessFunc(func(in, out [][]float32) {
		p.process(b, in, out)
	})
	return nil
}

// release unregisters the callback, drops the connections, closes the
// context and clears the engine, in that order.
func (p *Processor) release(b *binding) error {
	var errs []error

	if b.stage != nil {
		b.stage.SetProcessFunc(nil)
		if err := b.stage.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect stage: %w", err))
		}
	}
	if b.source != nil {
		if err := b.source.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect source: %w", err))
		}
	}
	if err := b.ctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close audio context: %w", err))
	}
	if b.engine != nil {
		b.engine.Clear()
	}

	return errors.Join(errs...)
}

// Resume restarts a suspended audio clock. It is a no-op while Idle or when
// the clock is already running. The processor lock is not held while
// waiting, so a concurrent Disconnect wins and Resume then returns nil.
func (p *Processor) Resume(ctx context.Context) error {
	p.mu.Lock()
	b := p.active
	p.mu.Unlock()

	if b == nil || b.ctx.State() != graph.StateSuspended {
		return nil
	}
	if err := b.ctx.Resume(ctx); err != nil {
		if errors.Is(err, graph.ErrClosed) {
			return nil
		}
		return fmt.Errorf("tempo processor: resume: %w", err)
	}
	p.logger.Debug("resumed")
	return nil
}

// Disconnect tears the active binding down. Calling it while Idle is a
// no-op. The processor is Idle afterwards even when an error is returned.
func (p *Processor) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return nil
	}

	err := p.release(p.active)
	p.active = nil
	p.logger.Debug("disconnected")
	if err != nil {
		return fmt.Errorf("tempo processor: %w", err)
	}
	return nil
}

// process is the real-time cycle. It never blocks, allocates or panics; any
// fault silences the cycle.
func (p *Processor) process(b *binding, in, out [][]float32) {
	defer func() {
		if recover() != nil {
			silence(out)
		}
	}()

	if bits := p.tempo.Load(); bits != b.appliedBits {
		// A rejected value is not retried every cycle.
		b.appliedBits = bits
		_ = b.engine.SetTempo(math.Float64frombits(bits))
	}

	frames := p.bufferSize
	for c, buf := range p.inputs {
		core.Zero32(buf)
		if c < len(in) {
			copy(buf, in[c])
		}
	}
	core.Interleave(p.interleaved, p.inputs, frames)

	b.engine.InputQueue().PutSamples(p.interleaved, 0, frames)
	b.engine.Process()

	got := 0
	if avail := min(b.engine.OutputQueue().FrameCount(), frames); avail > 0 {
		got = b.engine.OutputQueue().ReceiveSamples(p.output, avail)
	}
	core.Zero(p.output[got*processorChannels:])

	silence(out)
	if len(out) == processorChannels {
		core.Deinterleave(out, p.output, frames)
	}
}

func silence(out [][]float32) {
	for _, ch := range out {
		core.Zero32(ch)
	}
}
