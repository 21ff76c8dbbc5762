// File: pool/bufferpool.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// A size-classed, sync.Pool-backed implementation of api.BufferPool,
// used by the frame codec to reuse read buffers across frames instead
// of allocating a fresh slice per frame.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/synopse-ws/api"
)

// classSizes are the buffer size classes, each a power of two from 1
// KiB up to the fragmentation-reassembly sweet spot. A request larger
// than the biggest class falls back to a one-off allocation that is
// never returned to a pool.
var classSizes = [numClasses]int{1 << 10, 1 << 12, 1 << 14, 1 << 16, 1 << 18, 1 << 20}

const numClasses = 6

// BufferPool buckets requests into the smallest class that fits,
// backed by one sync.Pool per class.
type BufferPool struct {
	pools [numClasses]sync.Pool

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
	inUse      atomic.Int64
}

// NewBufferPool constructs an empty pool; classes are populated lazily
// on first Get.
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	for i, size := range classSizes {
		size := size
		p.pools[i].New = func() any { return make([]byte, size) }
	}
	return p
}

// Get returns a Buffer with capacity at least n. Buffers drawn from a
// class are truncated/extended to length n via Bytes(); callers must
// not retain the slice past Release.
func (p *BufferPool) Get(n int) api.Buffer {
	p.totalAlloc.Add(1)
	p.inUse.Add(1)

	class := p.classFor(n)
	if class < 0 {
		return &pooledBuffer{pool: p, class: -1, buf: make([]byte, n)}
	}
	buf := p.pools[class].Get().([]byte)
	if cap(buf) < n {
		buf = make([]byte, n)
	} else {
		buf = buf[:n]
	}
	return &pooledBuffer{pool: p, class: class, buf: buf}
}

// Put returns b's backing slice to its class pool, or drops it if b
// was a one-off allocation too large for any class.
func (p *BufferPool) Put(b api.Buffer) {
	pb, ok := b.(*pooledBuffer)
	if !ok || pb.class < 0 {
		p.totalFree.Add(1)
		p.inUse.Add(-1)
		return
	}
	p.pools[pb.class].Put(pb.buf[:cap(pb.buf)])
	p.totalFree.Add(1)
	p.inUse.Add(-1)
}

// Stats reports the pool's lifetime allocation/reuse counters.
func (p *BufferPool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: p.totalAlloc.Load(),
		TotalFree:  p.totalFree.Load(),
		InUse:      p.inUse.Load(),
	}
}

func (p *BufferPool) classFor(n int) int {
	for i, size := range classSizes {
		if n <= size {
			return i
		}
	}
	return -1
}

type pooledBuffer struct {
	pool  *BufferPool
	class int
	buf   []byte
}

func (b *pooledBuffer) Bytes() []byte { return b.buf }
func (b *pooledBuffer) Release()      { b.pool.Put(b) }

var _ api.BufferPool = (*BufferPool)(nil)
