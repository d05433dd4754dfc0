package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-audio/wav"
)

// OpenWAV decodes a PCM .wav file into memory.
func OpenWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, errors.Join(fmt.Errorf("invalid wav file: %s", path), decoder.Err())
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	channels := int(decoder.NumChans)
	depth := int(decoder.BitDepth)
	if channels < 1 || depth < 8 || depth > 32 {
		return nil, fmt.Errorf("unsupported wav layout: channels=%d bitDepth=%d", channels, depth)
	}

	frames := len(buf.Data) / channels
	scale := float32(int64(1) << (depth - 1))
	if depth == 8 {
		// 8-bit WAV samples are unsigned.
		for i, v := range buf.Data {
			buf.Data[i] = v - 128
		}
	}

	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
		for i := range frames {
			data[c][i] = float32(buf.Data[i*channels+c]) / scale
		}
	}

	slog.Debug("loaded audio file",
		"audioFile", path,
		"sampleRate", decoder.SampleRate,
		"channels", channels,
		"bitDepth", depth,
		"frames", frames,
	)
	return NewPCM(float64(decoder.SampleRate), data)
}
