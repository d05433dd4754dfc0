package stretch

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-tempo/dsp/buffer"
	"github.com/cwbudde/algo-tempo/dsp/interp"
)

func TestTransposerUnityIsExactCopy(t *testing.T) {
	tr, err := NewTransposer(2)
	if err != nil {
		t.Fatalf("NewTransposer() error = %v", err)
	}

	in := buffer.NewFIFO(2)
	out := buffer.NewFIFO(2)
	ramp := make([]float64, 20)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	in.PutSamples(ramp, 0, 10)
	tr.Process(in, out)

	if out.FrameCount() != 8 {
		t.Fatalf("FrameCount() = %d, want 8 (two frames of lookahead)", out.FrameCount())
	}
	for i, v := range out.Samples() {
		if v != ramp[i] {
			t.Fatalf("sample %d = %v, want %v", i, v, ramp[i])
		}
	}
}

func TestTransposerContinuesAcrossChunks(t *testing.T) {
	tr, err := NewTransposer(1)
	if err != nil {
		t.Fatalf("NewTransposer() error = %v", err)
	}

	in := buffer.NewFIFO(1)
	out := buffer.NewFIFO(1)
	for i := range 64 {
		in.PutSamples([]float64{float64(i)}, 0, 1)
		tr.Process(in, out)
	}

	got := out.Samples()
	if len(got) != 62 {
		t.Fatalf("len = %d, want 62", len(got))
	}
	for i, v := range got {
		if v != float64(i) {
			t.Fatalf("sample %d = %v, want %v", i, v, float64(i))
		}
	}
}

func TestTransposerRateScalesLength(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{rate: 2, want: 500},
		{rate: 0.5, want: 2000},
		{rate: 1.5, want: 667},
	}

	for _, tt := range tests {
		tr, err := NewTransposer(1)
		if err != nil {
			t.Fatalf("NewTransposer() error = %v", err)
		}
		if err := tr.SetRate(tt.rate); err != nil {
			t.Fatalf("SetRate() error = %v", err)
		}
		tr.SetMode(interp.Linear)

		in := buffer.NewFIFO(1)
		out := buffer.NewFIFO(1)
		in.PutSilence(1000)
		tr.Process(in, out)

		if got := out.FrameCount(); math.Abs(float64(got-tt.want)) > 5 {
			t.Fatalf("rate %v: FrameCount() = %d, want ~%d", tt.rate, got, tt.want)
		}
	}
}

func TestTransposerSetRateValidation(t *testing.T) {
	tr, err := NewTransposer(1)
	if err != nil {
		t.Fatalf("NewTransposer() error = %v", err)
	}
	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := tr.SetRate(r); err == nil {
			t.Fatalf("SetRate(%v) should fail", r)
		}
	}
	if tr.Rate() != 1 {
		t.Fatalf("Rate() = %v after rejected updates, want 1", tr.Rate())
	}
	if _, err := NewTransposer(0); err == nil {
		t.Fatal("NewTransposer(0) should fail")
	}
}
