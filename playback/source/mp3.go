package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to interleaved 16-bit little-endian stereo.
const (
	mp3Channels    = 2
	mp3BytesPerPCM = 2
)

// OpenMP3 decodes an .mp3 file into memory.
func OpenMP3(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp3: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	frames := len(raw) / (mp3Channels * mp3BytesPerPCM)
	data := [][]float32{make([]float32, frames), make([]float32, frames)}
	for i := range frames {
		for c := range mp3Channels {
			off := (i*mp3Channels + c) * mp3BytesPerPCM
			smp := int16(binary.LittleEndian.Uint16(raw[off:]))
			data[c][i] = float32(smp) / 32768
		}
	}

	slog.Debug("loaded audio file",
		"audioFile", path,
		"sampleRate", decoder.SampleRate(),
		"frames", frames,
	)
	return NewPCM(float64(decoder.SampleRate()), data)
}
