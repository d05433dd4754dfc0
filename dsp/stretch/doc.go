// Package stretch provides a streaming, multichannel time-stretch engine
// that changes tempo without changing pitch.
//
// Included processors:
//   - Stretcher: WSOLA-style tempo stage over interleaved frames.
//   - Transposer: fractional rate transposer (the pitch knob).
//   - Engine: input queue → Stretcher → Transposer → output queue.
//
// All processors are push/pull: callers append interleaved frames to the
// engine input queue, call Process, and drain whatever the output queue
// holds. The engine buffers the difference between consumed and produced
// frames internally, so a cycle may yield fewer frames than it was fed.
package stretch
