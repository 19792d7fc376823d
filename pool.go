package objectdash

import (
	"sync"

	"gocv.io/x/gocv"
)

// MatPool recycles frame buffers so copying a frame for another goroutine
// does not allocate a new native Mat each time
type MatPool struct {
	mats   chan gocv.Mat
	closed bool
	mu     sync.Mutex
}

// NewMatPool creates a pool holding up to size idle Mats
func NewMatPool(size int) *MatPool {
	return &MatPool{
		mats: make(chan gocv.Mat, size),
	}
}

// Get a Mat from the pool, allocating a new one when the pool is empty
func (p *MatPool) Get() gocv.Mat {
	select {
	case m, ok := <-p.mats:
		if ok {
			return m
		}
	default:
	}

	return gocv.NewMat()
}

// Clone copies src into a pooled Mat
func (p *MatPool) Clone(src gocv.Mat) gocv.Mat {
	m := p.Get()
	src.CopyTo(&m)
	return m
}

// Return a Mat to the pool, it is freed if the pool is full or closed
func (p *MatPool) Return(m gocv.Mat) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		select {
		case p.mats <- m:
			return
		default:
		}
	}

	_ = m.Close()
}

// Close the pool and free all idle Mats
func (p *MatPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.mats)

	for m := range p.mats {
		_ = m.Close()
	}
}

// Idle returns the number of Mats waiting in the pool
func (p *MatPool) Idle() int {
	return len(p.mats)
}
