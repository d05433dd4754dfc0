package device

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	got := Config{}.withDefaults()
	if got.SampleRate != DefaultSampleRate || got.Channels != defaultChannels ||
		got.PeriodFrames != defaultPeriodFrames || got.Logger == nil {
		t.Fatalf("withDefaults() = %+v", got)
	}

	custom := Config{SampleRate: 44100, Channels: 1, PeriodFrames: 256}.withDefaults()
	if custom.SampleRate != 44100 || custom.Channels != 1 || custom.PeriodFrames != 256 {
		t.Fatalf("withDefaults() overrode explicit values: %+v", custom)
	}
}

func TestEncodeFloat32LE(t *testing.T) {
	block := [][]float32{{0.25, -1, 0.5}, {1, 0.125}}
	dst := make([]byte, 3*2*bytesPerSample)

	encodeFloat32LE(dst, block, 3)

	want := []float32{0.25, 1, -1, 0.125, 0.5, 0}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(dst[i*bytesPerSample:]))
		if got != w {
			t.Fatalf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestEncodeFloat32LEClampsToDestination(t *testing.T) {
	block := [][]float32{{1, 1, 1, 1}, {1, 1, 1, 1}}
	dst := make([]byte, 2*2*bytesPerSample)

	encodeFloat32LE(dst, block, 4)

	for i := range 4 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(dst[i*bytesPerSample:])); got != 1 {
			t.Fatalf("sample %d = %v, want 1", i, got)
		}
	}
}
