// Package tempo changes playback speed without changing pitch.
//
// SupportsPreservesPitch reports whether the host can do this natively.
// When it cannot, a Processor inserts a fixed-size processing stage between
// a live source and the destination of an audio graph and runs a streaming
// time-stretch engine from the stage's real-time callback.
package tempo
