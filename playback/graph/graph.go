package graph

import (
	"context"
	"errors"

	"github.com/cwbudde/algo-tempo/dsp/core"
)

// Buffer size limits for processor nodes, in frames.
const (
	MinBufferSize = 256
	MaxBufferSize = 16384

	maxChannels = 32
)

var (
	// ErrClosed is returned when a closed context is used.
	ErrClosed = errors.New("audio context closed")
	// ErrForeignNode is returned when connecting nodes of different contexts.
	ErrForeignNode = errors.New("node belongs to a different context")
	// ErrCycle is returned when a connection would close a loop.
	ErrCycle = errors.New("connection would create a cycle")
	// ErrInvalidBufferSize is returned for processor buffer sizes that are not
	// a power of two in [MinBufferSize, MaxBufferSize].
	ErrInvalidBufferSize = errors.New("processor buffer size must be a power of two in [256, 16384]")
)

// State is the lifecycle state of a context.
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Producer is a real-time sample producer feeding a source node.
type Producer interface {
	SampleRate() float64
	Channels() int
	// Read fills each dst channel with up to len(dst[0]) frames and returns
	// the number written. It returns io.EOF once the stream is exhausted.
	Read(dst [][]float32) (int, error)
}

// ProcessFunc is the per-cycle callback of a processor node. in and out hold
// one slice of BufferSize frames per channel. Out starts zeroed.
type ProcessFunc func(in, out [][]float32)

// Node is a vertex of the audio graph.
type Node interface {
	// Connect routes this node's output into dst.
	Connect(dst Node) error
	// Disconnect removes every outgoing connection of this node.
	Disconnect() error
}

// ProcessorNode runs a ProcessFunc once per BufferSize frames.
type ProcessorNode interface {
	Node
	BufferSize() int
	// SetProcessFunc installs fn, or removes the callback when fn is nil.
	// Once it returns, the previous callback is not running and will not
	// be called again.
	SetProcessFunc(fn ProcessFunc)
}

// Context owns an audio graph and its clock.
type Context interface {
	SampleRate() float64
	State() State
	Resume(ctx context.Context) error
	CreateSource(p Producer) (Node, error)
	CreateProcessor(bufferSize, inputChannels, outputChannels int) (ProcessorNode, error)
	Destination() Node
	Close() error
}

// ContextFactory allocates a fresh audio context.
type ContextFactory func() (Context, error)

// ValidBufferSize reports whether n is an accepted processor buffer size.
func ValidBufferSize(n int) bool {
	return n >= MinBufferSize && n <= MaxBufferSize && core.IsPowerOfTwo(n)
}
