//go:build js && wasm

package tempo

import "syscall/js"

var pitchProperties = []string{"preservesPitch", "mozPreservesPitch", "webkitPreservesPitch"}

// SupportsPreservesPitch reports whether a media element exposes a
// pitch-preservation toggle under its standard or a vendor-prefixed name.
// Without a document (workers, headless runtimes) it reports true.
func SupportsPreservesPitch() bool {
	doc := js.Global().Get("document")
	if doc.IsUndefined() || doc.IsNull() {
		return true
	}

	el := doc.Call("createElement", "audio")
	for _, name := range pitchProperties {
		if js.Global().Get("Reflect").Call("has", el, name).Bool() {
			return true
		}
	}
	return false
}
