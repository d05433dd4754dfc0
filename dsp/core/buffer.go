package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Zero32 sets all values in buf to 0.
func Zero32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// Interleave writes frames of planar channel data into dst in frame order
// (c0[0], c1[0], c0[1], c1[1], ...) and returns the number of frames written.
//
// The frame count is limited by dst capacity and by the shortest channel.
func Interleave(dst []float64, src [][]float32, frames int) int {
	channels := len(src)
	if channels == 0 || frames <= 0 {
		return 0
	}
	frames = min(frames, len(dst)/channels)
	for _, ch := range src {
		frames = min(frames, len(ch))
	}
	for c, ch := range src {
		j := c
		for i := range frames {
			dst[j] = float64(ch[i])
			j += channels
		}
	}
	return frames
}

// Deinterleave splits frames of interleaved samples back into planar
// channels and returns the number of frames written. Channel count is
// len(dst); src must be laid out with the same count.
func Deinterleave(dst [][]float32, src []float64, frames int) int {
	channels := len(dst)
	if channels == 0 || frames <= 0 {
		return 0
	}
	frames = min(frames, len(src)/channels)
	for _, ch := range dst {
		frames = min(frames, len(ch))
	}
	for c, ch := range dst {
		j := c
		for i := range frames {
			ch[i] = float32(src[j])
			j += channels
		}
	}
	return frames
}
