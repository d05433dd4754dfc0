package stretch

import "testing"

// runEngine feeds interleaved input in chunks of chunk frames, processing
// after each chunk, and returns everything the output queue produced.
func runEngine(t *testing.T, e *Engine, input []float64, chunk int) []float64 {
	t.Helper()

	ch := e.Channels()
	frames := len(input) / ch
	out := make([]float64, 0, len(input)*2)
	buf := make([]float64, chunk*ch)

	for start := 0; start < frames; start += chunk {
		n := min(chunk, frames-start)
		e.InputQueue().PutSamples(input, start, n)
		e.Process()

		for e.OutputQueue().FrameCount() > 0 {
			got := e.OutputQueue().ReceiveSamples(buf, chunk)
			out = append(out, buf[:got*ch]...)
		}
	}

	return out
}
