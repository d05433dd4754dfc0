package tempo_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tempo/playback/graph"
	"github.com/cwbudde/algo-tempo/playback/tempo"
)

type sine struct{ pos int }

func (s *sine) SampleRate() float64 { return 48000 }
func (s *sine) Channels() int       { return 2 }

func (s *sine) Read(dst [][]float32) (int, error) {
	for i := range dst[0] {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(s.pos+i)/48000))
		dst[0][i], dst[1][i] = v, v
	}
	s.pos += len(dst[0])
	return len(dst[0]), nil
}

func ExampleProcessor() {
	var ctx *graph.Graph
	factory := func() (graph.Context, error) {
		g, err := graph.New(48000, 2)
		ctx = g
		return g, err
	}

	p, err := tempo.New(factory, tempo.WithBufferSize(1024))
	if err != nil {
		panic(err)
	}
	p.SetTempo(1.25)

	if err := p.Connect(&sine{}); err != nil {
		panic(err)
	}
	for range 8 {
		if _, err := ctx.Render(p.BufferSize()); err != nil {
			panic(err)
		}
	}

	fmt.Println(p.IsConnected(), p.Tempo())
	_ = p.Disconnect()
	fmt.Println(p.IsConnected())
	// Output:
	// true 1.25
	// false
}
