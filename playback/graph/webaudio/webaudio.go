//go:build js && wasm

// Package webaudio implements graph.Context on the browser's Web Audio API.
// Processor nodes are ScriptProcessorNodes whose onaudioprocess events run
// the Go callback.
package webaudio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"syscall/js"

	"github.com/cwbudde/algo-tempo/playback/graph"
)

const bytesPerSample = 4

// MediaElementSource is a producer backed by an HTML media element. The
// browser feeds it into the graph directly; Read is never called.
type MediaElementSource struct {
	el js.Value
}

// MediaElement wraps an <audio> or <video> element.
func MediaElement(el js.Value) *MediaElementSource {
	return &MediaElementSource{el: el}
}

func (m *MediaElementSource) SampleRate() float64             { return 0 }
func (m *MediaElementSource) Channels() int                   { return 2 }
func (m *MediaElementSource) Read(_ [][]float32) (int, error) { return 0, io.EOF }

// Context wraps an AudioContext.
type Context struct {
	ac    js.Value
	dest  *node
	funcs []js.Func
}

// Factory returns a graph.ContextFactory creating a new AudioContext per
// call.
func Factory() graph.ContextFactory {
	return func() (graph.Context, error) {
		return NewContext()
	}
}

// NewContext creates an AudioContext. Browsers may start it suspended.
func NewContext() (*Context, error) {
	ctor := js.Global().Get("AudioContext")
	if ctor.IsUndefined() {
		ctor = js.Global().Get("webkitAudioContext")
	}
	if ctor.IsUndefined() {
		return nil, errors.New("webaudio: AudioContext is not available")
	}

	ac, err := construct(ctor)
	if err != nil {
		return nil, err
	}

	c := &Context{ac: ac}
	c.dest = &node{ctx: c, v: ac.Get("destination")}
	return c, nil
}

func construct(ctor js.Value) (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webaudio: create AudioContext: %v", r)
		}
	}()
	return ctor.New(), nil
}

func (c *Context) SampleRate() float64 { return c.ac.Get("sampleRate").Float() }

func (c *Context) State() graph.State {
	switch c.ac.Get("state").String() {
	case "running":
		return graph.StateRunning
	case "closed":
		return graph.StateClosed
	default:
		return graph.StateSuspended
	}
}

// Resume waits for AudioContext.resume to settle. It must not be called
// from a JS event handler goroutine.
func (c *Context) Resume(ctx context.Context) error {
	done := make(chan error, 1)
	onOK := js.FuncOf(func(js.Value, []js.Value) any {
		done <- nil
		return nil
	})
	onErr := js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "resume rejected"
		if len(args) > 0 {
			msg = args[0].Call("toString").String()
		}
		done <- errors.New("webaudio: " + msg)
		return nil
	})
	defer onOK.Release()
	defer onErr.Release()

	c.ac.Call("resume").Call("then", onOK, onErr)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Context) Destination() graph.Node { return c.dest }

func (c *Context) CreateSource(p graph.Producer) (graph.Node, error) {
	if c.State() == graph.StateClosed {
		return nil, graph.ErrClosed
	}
	if me, ok := p.(*MediaElementSource); ok {
		return &node{ctx: c, v: c.ac.Call("createMediaElementSource", me.el)}, nil
	}

	ch := p.Channels()
	sp, err := c.createScript(graph.MaxBufferSize/4, 0, ch)
	if err != nil {
		return nil, err
	}
	bufs := makeBlock(ch, graph.MaxBufferSize/4)
	scratch := make([]byte, graph.MaxBufferSize/4*bytesPerSample)
	cb := c.retain(js.FuncOf(func(_ js.Value, args []js.Value) any {
		out := args[0].Get("outputBuffer")
		for i := range bufs {
			clear(bufs[i])
		}
		_, _ = p.Read(bufs)
		for i := range bufs {
			copyToJS(out.Call("getChannelData", i), bufs[i], scratch)
		}
		return nil
	}))
	sp.Set("onaudioprocess", cb)
	return &node{ctx: c, v: sp}, nil
}

func (c *Context) CreateProcessor(bufferSize, in, out int) (graph.ProcessorNode, error) {
	if !graph.ValidBufferSize(bufferSize) {
		return nil, fmt.Errorf("%w: %d", graph.ErrInvalidBufferSize, bufferSize)
	}
	if c.State() == graph.StateClosed {
		return nil, graph.ErrClosed
	}

	sp, err := c.createScript(bufferSize, in, out)
	if err != nil {
		return nil, err
	}

	p := &processor{
		node:       node{ctx: c, v: sp},
		bufferSize: bufferSize,
		in:         makeBlock(in, bufferSize),
		out:        makeBlock(out, bufferSize),
		scratch:    make([]byte, bufferSize*bytesPerSample),
	}
	sp.Set("onaudioprocess", c.retain(js.FuncOf(p.onAudioProcess)))
	return p, nil
}

// Close closes the AudioContext and releases every Go callback.
func (c *Context) Close() error {
	if c.State() != graph.StateClosed {
		c.ac.Call("close")
	}
	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
	return nil
}

func (c *Context) createScript(bufferSize, in, out int) (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("webaudio: createScriptProcessor: %v", r)
		}
	}()
	return c.ac.Call("createScriptProcessor", bufferSize, in, out), nil
}

func (c *Context) retain(f js.Func) js.Func {
	c.funcs = append(c.funcs, f)
	return f
}

type node struct {
	ctx *Context
	v   js.Value
}

func (n *node) Connect(dst graph.Node) error {
	var target js.Value
	switch d := dst.(type) {
	case *node:
		target = d.v
	case *processor:
		target = d.v
	default:
		return graph.ErrForeignNode
	}
	n.v.Call("connect", target)
	return nil
}

func (n *node) Disconnect() error {
	n.v.Call("disconnect")
	return nil
}

type processor struct {
	node

	bufferSize int
	fn         graph.ProcessFunc
	in, out    [][]float32
	scratch    []byte
}

func (p *processor) BufferSize() int { return p.bufferSize }

// SetProcessFunc swaps the callback. JS events and Go calls share one
// thread, so no event can be running while this executes.
func (p *processor) SetProcessFunc(fn graph.ProcessFunc) { p.fn = fn }

func (p *processor) onAudioProcess(_ js.Value, args []js.Value) any {
	ev := args[0]
	inBuf, outBuf := ev.Get("inputBuffer"), ev.Get("outputBuffer")

	for c := range p.in {
		clear(p.in[c])
		if c < inBuf.Get("numberOfChannels").Int() {
			p.copyFromJS(p.in[c], inBuf.Call("getChannelData", c))
		}
	}
	for c := range p.out {
		clear(p.out[c])
	}
	if p.fn != nil {
		p.fn(p.in, p.out)
	}
	for c := range p.out {
		copyToJS(outBuf.Call("getChannelData", c), p.out[c], p.scratch)
	}
	return nil
}

func (p *processor) copyFromJS(dst []float32, src js.Value) {
	b := p.scratch[:len(dst)*bytesPerSample]
	js.CopyBytesToGo(b, byteView(src))
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:]))
	}
}

func copyToJS(dst js.Value, src []float32, scratch []byte) {
	b := scratch[:len(src)*bytesPerSample]
	for i, v := range src {
		binary.LittleEndian.PutUint32(b[i*bytesPerSample:], math.Float32bits(v))
	}
	js.CopyBytesToJS(byteView(dst), b)
}

// byteView returns a Uint8Array over the memory of a Float32Array.
func byteView(f32 js.Value) js.Value {
	return js.Global().Get("Uint8Array").New(f32.Get("buffer"), f32.Get("byteOffset"), f32.Get("byteLength"))
}

func makeBlock(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	return out
}
