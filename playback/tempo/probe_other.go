//go:build !(js && wasm)

package tempo

// SupportsPreservesPitch reports whether the host can change playback rate
// while preserving pitch. Outside a browser there is no media element to
// ask, so it reports true and callers keep the native path.
func SupportsPreservesPitch() bool {
	return true
}
