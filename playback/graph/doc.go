// Package graph defines a small real-time audio graph modelled on the Web
// Audio API: a context owns source, processor and destination nodes, and a
// hardware (or manual) clock pulls blocks from the destination.
//
// Graph is the in-process implementation shared by every backend. Device
// backends call RenderInto from their hardware callback; tests and offline
// tools call Render directly.
package graph
