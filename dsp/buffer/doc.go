// Package buffer provides an interleaved multichannel sample FIFO used as
// the input and output queue of streaming processors. The FIFO reuses its
// backing storage, so once it has grown to its working size no further
// allocations happen in hot paths.
package buffer
