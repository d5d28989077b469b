// Package buffers provides reusable byte buffers for part uploads, so a
// directory upload does not allocate one part-sized slice per part.
package buffers

import (
	"sync"
	"sync/atomic"
)

// Pool hands out buffers of one fixed size.
type Pool struct {
	size int
	pool sync.Pool

	allocations atomic.Int64
	gets        atomic.Int64
}

// Stats returns current buffer pool statistics.
type Stats struct {
	BufferSize  int   // Size of pooled buffers (bytes)
	Allocations int64 // Buffers created because the pool was empty
	Gets        int64 // Total Get calls
}

// NewPool returns a pool of size-byte buffers.
func NewPool(size int) *Pool {
	p := &Pool{size: size}
	p.pool.New = func() any {
		p.allocations.Add(1)
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Get retrieves a buffer of the pool's size. Return it with Put when done.
//
// Usage:
//
//	buf := pool.Get()
//	defer pool.Put(buf)
//	n, err := f.ReadAt(*buf, off)
//	// Use (*buf)[:n] for actual data
func (p *Pool) Get() *[]byte {
	p.gets.Add(1)
	buf := p.pool.Get().(*[]byte)
	*buf = (*buf)[:p.size]
	return buf
}

// Put returns buf to the pool. Buffers of another capacity are dropped. The
// buffer is cleared so part contents do not linger across uses.
func (p *Pool) Put(buf *[]byte) {
	if buf == nil || cap(*buf) != p.size {
		return
	}
	*buf = (*buf)[:p.size]
	clear(*buf)
	p.pool.Put(buf)
}

// Stats reports the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		BufferSize:  p.size,
		Allocations: p.allocations.Load(),
		Gets:        p.gets.Load(),
	}
}
