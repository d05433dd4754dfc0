package stretch

import (
	"testing"

	"github.com/cwbudde/algo-tempo/internal/testutil"
)

func BenchmarkEngineCycle4096(b *testing.B) {
	e, _ := NewEngine(48000, 2)
	_ = e.SetTempo(1.25)

	noise := testutil.DeterministicNoise(1, 0.5, 4096)
	in := testutil.Interleave(noise, noise)
	out := make([]float64, len(in))

	b.ResetTimer()

	for range b.N {
		e.InputQueue().PutSamples(in, 0, 4096)
		e.Process()
		e.OutputQueue().ReceiveSamples(out, 4096)
	}
}
