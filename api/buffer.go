// Package api
// Author: momentics <momentics@gmail.com>
//
// Pooled memory buffers for frame payloads, letting the wire codec
// reuse read buffers across frames instead of allocating one per frame.

package api

// Buffer is a pooled byte region returned to its pool on Release.
type Buffer interface {
	Bytes() []byte
	Release()
}

// BufferPool hands out Buffers sized at least n bytes and reclaims them.
type BufferPool interface {
	Get(n int) Buffer
	Put(b Buffer)
	Stats() BufferPoolStats
}

// BufferPoolStats aggregates allocation/reuse counters for Control.Stats.
type BufferPoolStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}
