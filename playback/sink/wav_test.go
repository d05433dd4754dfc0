package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWAVWritesHeaderAndClipsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	w, err := CreateWAV(path, 22050, 2)
	if err != nil {
		t.Fatalf("CreateWAV() error = %v", err)
	}
	block := [][]float32{
		{0, 0.5, 2, -3},
		{1, -1},
	}
	if err := w.Write(block); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Frames() != 4 {
		t.Fatalf("Frames() = %d, want 4", w.Frames())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatal("written file is not a valid wav")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if d.SampleRate != 22050 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Fatalf("header rate=%d channels=%d depth=%d", d.SampleRate, d.NumChans, d.BitDepth)
	}

	want := []int{0, 32767, 16384, -32767, 32767, 0, -32767, 0}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestNewWAVValidation(t *testing.T) {
	if _, err := CreateWAV(filepath.Join(t.TempDir(), "x.wav"), 0, 2); err == nil {
		t.Fatal("zero sample rate should fail")
	}
	if _, err := CreateWAV(filepath.Join(t.TempDir(), "missing", "x.wav"), 44100, 2); err == nil {
		t.Fatal("creating in a missing directory should fail")
	}
}
