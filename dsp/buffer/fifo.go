package buffer

// FIFO is a first-in first-out queue of interleaved sample frames.
//
// A frame holds one sample per channel. Offsets and counts in the API are
// expressed in frames; the backing slice stores frames*channels samples.
// FIFO is not safe for concurrent use.
type FIFO struct {
	channels int
	samples  []float64
	start    int // first queued frame
	frames   int // queued frame count
}

// NewFIFO returns an empty FIFO for the given channel count.
// Channel counts below one are treated as mono.
func NewFIFO(channels int) *FIFO {
	if channels < 1 {
		channels = 1
	}
	return &FIFO{channels: channels}
}

// Channels returns the number of interleaved channels.
func (f *FIFO) Channels() int { return f.channels }

// FrameCount returns the number of queued frames.
func (f *FIFO) FrameCount() int { return f.frames }

// Capacity returns the number of frames that fit without reallocating.
func (f *FIFO) Capacity() int { return len(f.samples) / f.channels }

// Grow ensures room for at least n queued frames, preserving queued data.
func (f *FIFO) Grow(n int) {
	if n <= f.Capacity() {
		return
	}
	grown := make([]float64, n*f.channels)
	copy(grown, f.Samples())
	f.samples = grown
	f.start = 0
}

// Samples returns the queued frames as an interleaved slice.
// The slice aliases internal storage and is valid until the next mutation.
func (f *FIFO) Samples() []float64 {
	from := f.start * f.channels
	return f.samples[from : from+f.frames*f.channels]
}

// PutSamples appends frames from src, starting at frame offset, to the end
// of the queue. The frame count is limited by the data available in src.
func (f *FIFO) PutSamples(src []float64, offset, frames int) {
	if offset < 0 || frames <= 0 {
		return
	}
	avail := len(src)/f.channels - offset
	if avail <= 0 {
		return
	}
	frames = min(frames, avail)

	dst := f.reserve(frames)
	from := offset * f.channels
	copy(dst, src[from:from+frames*f.channels])
	f.frames += frames
}

// PutSilence appends frames of zero samples.
func (f *FIFO) PutSilence(frames int) {
	if frames <= 0 {
		return
	}
	dst := f.reserve(frames)
	for i := range dst {
		dst[i] = 0
	}
	f.frames += frames
}

// ReceiveSamples moves up to frames frames from the head of the queue into
// dst and returns how many were moved. dst must hold frames*channels samples;
// a shorter dst limits the count.
func (f *FIFO) ReceiveSamples(dst []float64, frames int) int {
	n := min(frames, f.frames, len(dst)/f.channels)
	if n <= 0 {
		return 0
	}
	from := f.start * f.channels
	copy(dst, f.samples[from:from+n*f.channels])
	f.advance(n)
	return n
}

// Discard drops up to frames frames from the head of the queue and returns
// how many were dropped.
func (f *FIFO) Discard(frames int) int {
	n := min(frames, f.frames)
	if n <= 0 {
		return 0
	}
	f.advance(n)
	return n
}

// Truncate drops frames from the tail so that at most frames remain and
// returns how many were dropped.
func (f *FIFO) Truncate(frames int) int {
	n := f.frames - max(frames, 0)
	if n <= 0 {
		return 0
	}
	f.frames -= n
	if f.frames == 0 {
		f.start = 0
	}
	return n
}

// MoveTo transfers every queued frame into dst. Channel counts must match;
// otherwise nothing is moved and zero is returned.
func (f *FIFO) MoveTo(dst *FIFO) int {
	if dst.channels != f.channels || f.frames == 0 {
		return 0
	}
	n := f.frames
	dst.PutSamples(f.Samples(), 0, n)
	f.Clear()
	return n
}

// Clear empties the queue. Storage is kept for reuse.
func (f *FIFO) Clear() {
	f.start = 0
	f.frames = 0
}

func (f *FIFO) advance(n int) {
	f.frames -= n
	if f.frames == 0 {
		f.start = 0
		return
	}
	f.start += n
}

// reserve returns the interleaved region for n frames past the queue tail,
// compacting or growing the backing slice when needed.
func (f *FIFO) reserve(n int) []float64 {
	need := f.frames + n
	capFrames := f.Capacity()
	if f.start+need > capFrames {
		if need <= capFrames {
			copy(f.samples, f.Samples())
			f.start = 0
		} else {
			f.Grow(max(need, 2*capFrames))
		}
	}
	from := (f.start + f.frames) * f.channels
	return f.samples[from : from+n*f.channels]
}
