package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-tempo/dsp/buffer"
)

func ExampleFIFO() {
	q := buffer.NewFIFO(2)
	q.PutSamples([]float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}, 1, 2)

	out := make([]float64, 4)
	n := q.ReceiveSamples(out, 2)

	fmt.Println(n, out, q.FrameCount())

	// Output:
	// 2 [0.2 -0.2 0.3 -0.3] 0
}
