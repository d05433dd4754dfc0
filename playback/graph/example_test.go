package graph_test

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-tempo/playback/graph"
)

type constant struct{ left int }

func (c *constant) SampleRate() float64 { return 48000 }
func (c *constant) Channels() int       { return 2 }

func (c *constant) Read(dst [][]float32) (int, error) {
	n := min(len(dst[0]), c.left)
	if n == 0 {
		return 0, io.EOF
	}
	for i := range n {
		dst[0][i], dst[1][i] = 0.5, -0.5
	}
	c.left -= n
	return n, nil
}

func ExampleGraph() {
	g, _ := graph.New(48000, 2)
	defer g.Close()

	src, _ := g.CreateSource(&constant{left: 1024})
	gain, _ := g.CreateProcessor(256, 2, 2)
	gain.SetProcessFunc(func(in, out [][]float32) {
		for c := range out {
			for i, v := range in[c] {
				out[c][i] = 2 * v
			}
		}
	})

	_ = src.Connect(gain)
	_ = gain.Connect(g.Destination())

	out, _ := g.Render(512)
	fmt.Println(out[0][0], out[1][511], g.FramesRendered())
	// Output: 1 -1 512
}
