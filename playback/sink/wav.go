// Package sink writes rendered graph output.
package sink

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-tempo/dsp/core"
)

const wavBitDepth = 16

// WAV encodes planar float blocks as 16-bit PCM.
type WAV struct {
	file     *os.File
	encoder  *wav.Encoder
	buf      *audio.IntBuffer
	channels int
	frames   int
}

// CreateWAV creates (or truncates) path and returns a writer for it.
func CreateWAV(path string, sampleRate, channels int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	w, err := NewWAV(f, sampleRate, channels)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// NewWAV returns a writer encoding to ws. Close finalizes the header but
// does not close ws.
func NewWAV(ws io.WriteSeeker, sampleRate, channels int) (*WAV, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("wav sink needs a positive rate and channel count: rate=%d channels=%d",
			sampleRate, channels)
	}

	return &WAV{
		encoder: wav.NewEncoder(ws, sampleRate, wavBitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
		channels: channels,
	}, nil
}

// Frames returns how many frames have been written.
func (w *WAV) Frames() int { return w.frames }

// Write appends one planar block. Samples are clipped to [-1, 1]; missing
// channels are written as silence.
func (w *WAV) Write(block [][]float32) error {
	if len(block) == 0 {
		return nil
	}

	frames := len(block[0])
	n := frames * w.channels
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]

	for c := range w.channels {
		for i := range frames {
			v := 0.0
			if c < len(block) && i < len(block[c]) {
				v = core.Clamp(float64(block[c][i]), -1, 1)
			}
			w.buf.Data[i*w.channels+c] = int(math.Round(v * math.MaxInt16))
		}
	}

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	w.frames += frames
	return nil
}

// Close finalizes the file header and closes the file if CreateWAV opened it.
func (w *WAV) Close() error {
	err := w.encoder.Close()
	if w.file != nil {
		err = errors.Join(err, w.file.Close())
	}
	return err
}
