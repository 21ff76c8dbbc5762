// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Socket abstracts the blocking byte-stream primitives the frame codec
// rides on. The concrete accept loop and OS-level deadlines live in the
// host HTTP server; Socket is the narrow seam this engine needs from
// that external collaborator.

package api

import "time"

// Socket is a full-duplex, blocking byte stream with an explicit
// buffered/unbuffered send distinction: short sends use the buffered
// path and end with an explicit flush, larger frames bypass internal
// buffering entirely.
type Socket interface {
	// SetReadDeadline bounds the next Read call; a timeout surfaces as
	// a net.Error with Timeout() == true.
	SetReadDeadline(t time.Time) error

	// Read fills p from the stream, blocking until data arrives, the
	// deadline expires, or the connection closes.
	Read(p []byte) (int, error)

	// SendBuffered queues p on the connection's internal write buffer;
	// it may coalesce with subsequent SendBuffered calls until Flush.
	SendBuffered(p []byte) error

	// SendUnbuffered writes p straight to the wire, bypassing internal
	// buffering and any pending Flush.
	SendUnbuffered(p []byte) error

	// Flush forces any SendBuffered data onto the wire.
	Flush() error

	// Pending reports bytes already available to Read without blocking.
	Pending() int

	Close() error
}
