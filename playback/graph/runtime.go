package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cwbudde/algo-tempo/dsp/core"
)

type nodeKind int

const (
	kindSource nodeKind = iota
	kindProcessor
	kindDestination
)

// Option configures a Graph.
type Option func(*Graph)

// StartSuspended makes the graph start in StateSuspended, the way browsers
// hold a context created outside a user gesture.
func StartSuspended() Option {
	return func(g *Graph) { g.state = StateSuspended }
}

// Graph is the pull-based in-process audio graph.
//
// All topology changes and every render take the same lock, so a render
// never observes a half-applied change and SetProcessFunc(nil) waits for a
// running callback to return.
type Graph struct {
	mu         sync.Mutex
	sampleRate float64
	channels   int
	state      State

	nodes []*node
	dest  *node

	frames uint64
}

// New returns a running graph whose destination has the given channel count.
func New(sampleRate float64, channels int, opts ...Option) (*Graph, error) {
	if !core.IsFinitePositive(sampleRate) {
		return nil, fmt.Errorf("graph sample rate must be positive and finite: %f", sampleRate)
	}
	if channels < 1 || channels > maxChannels {
		return nil, fmt.Errorf("graph channel count must be in [1, %d]: %d", maxChannels, channels)
	}

	g := &Graph{
		sampleRate: sampleRate,
		channels:   channels,
		state:      StateRunning,
	}
	g.dest = &node{g: g, kind: kindDestination, outCh: channels}
	g.nodes = append(g.nodes, g.dest)

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Factory returns a ContextFactory producing fresh graphs with the given
// settings.
func Factory(sampleRate float64, channels int, opts ...Option) ContextFactory {
	return func() (Context, error) {
		return New(sampleRate, channels, opts...)
	}
}

// SampleRate returns the sample rate in Hz.
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// Channels returns the destination channel count.
func (g *Graph) Channels() int { return g.channels }

// State returns the lifecycle state.
func (g *Graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// FramesRendered returns how many frames the clock has advanced while running.
func (g *Graph) FramesRendered() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

// Resume moves a suspended graph to StateRunning.
func (g *Graph) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return ErrClosed
	}
	g.state = StateRunning
	return nil
}

// Suspend stops the clock; renders produce silence until Resume.
func (g *Graph) Suspend() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return ErrClosed
	}
	g.state = StateSuspended
	return nil
}

// Close releases every node. It is safe to call more than once.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return nil
	}
	g.state = StateClosed
	for _, n := range g.nodes {
		n.targets = nil
		n.fn = nil
		n.producer = nil
	}
	g.nodes = []*node{g.dest}
	return nil
}

// Destination returns the node whose input reaches the output device.
func (g *Graph) Destination() Node { return g.dest }

// CreateSource wraps p in a source node.
func (g *Graph) CreateSource(p Producer) (Node, error) {
	if p == nil {
		return nil, errors.New("graph source: nil producer")
	}
	if ch := p.Channels(); ch < 1 || ch > maxChannels {
		return nil, fmt.Errorf("graph source channel count must be in [1, %d]: %d", maxChannels, ch)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return nil, ErrClosed
	}

	n := &node{g: g, kind: kindSource, producer: p, outCh: p.Channels()}
	g.nodes = append(g.nodes, n)
	return n, nil
}

// CreateProcessor returns a processor node that calls its ProcessFunc once
// per bufferSize frames.
func (g *Graph) CreateProcessor(bufferSize, inputChannels, outputChannels int) (ProcessorNode, error) {
	if !ValidBufferSize(bufferSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, bufferSize)
	}
	if inputChannels < 1 || inputChannels > maxChannels ||
		outputChannels < 1 || outputChannels > maxChannels {
		return nil, fmt.Errorf("graph processor channel counts must be in [1, %d]: in=%d out=%d",
			maxChannels, inputChannels, outputChannels)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return nil, ErrClosed
	}

	n := &node{
		g:          g,
		kind:       kindProcessor,
		bufferSize: bufferSize,
		inCh:       inputChannels,
		outCh:      outputChannels,
		inBuf:      makeChannels(inputChannels, bufferSize),
		outBuf:     makeChannels(outputChannels, bufferSize),
		outPos:     bufferSize,
	}
	g.nodes = append(g.nodes, n)
	return &processorNode{n}, nil
}

// Render advances the clock by frames and returns the destination output.
func (g *Graph) Render(frames int) ([][]float32, error) {
	dst := makeChannels(g.channels, frames)
	if err := g.RenderInto(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// RenderInto fills dst (one slice per destination channel, equal lengths)
// with the next block. A suspended graph writes silence without advancing.
func (g *Graph) RenderInto(dst [][]float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ch := range dst {
		core.Zero32(ch)
	}

	switch g.state {
	case StateClosed:
		return ErrClosed
	case StateSuspended:
		return nil
	}
	if len(dst) == 0 {
		return nil
	}

	frames := len(dst[0])
	g.dest.pullInputs(dst, frames)
	g.frames += uint64(frames)
	return nil
}

// reaches reports whether to is reachable from from. Caller holds g.mu.
func (g *Graph) reaches(from, to *node) bool {
	if from == to {
		return true
	}
	return slices.ContainsFunc(from.targets, func(t *node) bool {
		return g.reaches(t, to)
	})
}

type node struct {
	g    *Graph
	kind nodeKind

	targets []*node

	producer Producer
	eof      bool

	bufferSize int
	inCh       int
	outCh      int
	fn         ProcessFunc
	inBuf      [][]float32
	outBuf     [][]float32
	outPos     int

	scratch [][]float32
	views   [][]float32
}

func (n *node) self() *node { return n }

type innerNode interface{ self() *node }

func (n *node) Connect(dst Node) error {
	in, ok := dst.(innerNode)
	if !ok {
		return ErrForeignNode
	}
	to := in.self()
	if to.g != n.g {
		return ErrForeignNode
	}
	if n.kind == kindDestination {
		return errors.New("graph: destination has no outputs")
	}
	if to.kind == kindSource {
		return errors.New("graph: source nodes take no inputs")
	}

	g := n.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateClosed {
		return ErrClosed
	}
	if slices.Contains(n.targets, to) {
		return nil
	}
	if g.reaches(to, n) {
		return ErrCycle
	}
	if len(n.targets) > 0 {
		// Each node is pulled once per block by its single consumer.
		return errors.New("graph: node already has an output; disconnect it first")
	}
	n.targets = append(n.targets, to)
	return nil
}

func (n *node) Disconnect() error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	n.targets = nil
	return nil
}

// render writes frames of this node's output into dst. Caller holds g.mu.
func (n *node) render(dst [][]float32, frames int) {
	switch n.kind {
	case kindSource:
		n.readProducer(dst, frames)
	case kindProcessor:
		n.renderProcessor(dst, frames)
	}
}

func (n *node) readProducer(dst [][]float32, frames int) {
	if len(n.views) != len(dst) {
		n.views = make([][]float32, len(dst))
	}

	done := 0
	for done < frames && !n.eof && n.producer != nil {
		for c := range dst {
			n.views[c] = dst[c][done:frames]
		}
		got, err := n.producer.Read(n.views)
		if got > 0 {
			done += got
		}
		if err != nil {
			// io.EOF and hard failures both end the stream; the rest
			// of the block stays silent.
			n.eof = true
			break
		}
		if got <= 0 {
			break
		}
	}
}

func (n *node) renderProcessor(dst [][]float32, frames int) {
	done := 0
	for done < frames {
		if n.outPos == n.bufferSize {
			n.runCycle()
		}
		k := min(frames-done, n.bufferSize-n.outPos)
		for c := range dst {
			copy(dst[c][done:done+k], n.outBuf[c][n.outPos:n.outPos+k])
		}
		n.outPos += k
		done += k
	}
}

func (n *node) runCycle() {
	for c := range n.inBuf {
		core.Zero32(n.inBuf[c])
	}
	for c := range n.outBuf {
		core.Zero32(n.outBuf[c])
	}

	n.pullInputs(n.inBuf, n.bufferSize)
	if n.fn != nil {
		n.fn(n.inBuf, n.outBuf)
	}
	n.outPos = 0
}

// pullInputs mixes every node targeting n into dst. Mono inputs are copied
// to all channels; wider inputs are truncated to dst's channel count.
func (n *node) pullInputs(dst [][]float32, frames int) {
	for _, in := range n.g.nodes {
		if !slices.Contains(in.targets, n) {
			continue
		}

		buf := in.block(frames)
		in.render(buf, frames)
		mixInto(dst, buf, frames)
	}
}

// block returns a zeroed per-node scratch block of outCh × frames.
func (n *node) block(frames int) [][]float32 {
	if len(n.scratch) != n.outCh || cap(n.scratch[0]) < frames {
		n.scratch = makeChannels(n.outCh, frames)
	}
	for c := range n.scratch {
		n.scratch[c] = n.scratch[c][:frames]
		core.Zero32(n.scratch[c])
	}
	return n.scratch
}

func mixInto(dst, src [][]float32, frames int) {
	if len(src) == 0 {
		return
	}
	if len(src) == 1 {
		for c := range dst {
			addInto(dst[c][:frames], src[0][:frames])
		}
		return
	}
	for c := range min(len(dst), len(src)) {
		addInto(dst[c][:frames], src[c][:frames])
	}
}

func addInto(dst, src []float32) {
	for i, v := range src {
		dst[i] += v
	}
}

func makeChannels(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	return out
}

type processorNode struct {
	*node
}

func (p *processorNode) BufferSize() int { return p.bufferSize }

func (p *processorNode) SetProcessFunc(fn ProcessFunc) {
	p.g.mu.Lock()
	defer p.g.mu.Unlock()

	p.fn = fn
}
