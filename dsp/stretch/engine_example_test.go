package stretch_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-tempo/dsp/stretch"
)

func ExampleEngine() {
	e, err := stretch.NewEngine(48000, 2)
	if err != nil {
		panic(err)
	}
	_ = e.SetTempo(1.5)

	frame := make([]float64, 2*4800)
	for i := 0; i < 4800; i++ {
		v := 0.5 * math.Sin(2*math.Pi*220*float64(i)/48000)
		frame[2*i], frame[2*i+1] = v, v
	}
	for range 20 {
		e.InputQueue().PutSamples(frame, 0, 4800)
		e.Process()
	}

	fmt.Printf("tempo=%.1f pitch=%.1f output>0=%v\n",
		e.Tempo(), e.Pitch(), e.OutputQueue().FrameCount() > 0)
	// Output: tempo=1.5 pitch=1.0 output>0=true
}
