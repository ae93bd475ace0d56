package kernels

import "runtime"

// ScratchPool recycles float64 work buffers of a fixed length between
// integrand evaluations.
type ScratchPool struct {
	buffers chan []float64
	size    int
}

// NewScratchPool creates a pool of buffers of length bufferSize holding
// at most poolSize idle buffers.
func NewScratchPool(bufferSize, poolSize int) *ScratchPool {
	if poolSize <= 0 {
		poolSize = 2 * runtime.NumCPU()
	}
	return &ScratchPool{
		buffers: make(chan []float64, poolSize),
		size:    bufferSize,
	}
}

// Get returns a buffer of at least n elements, resliced to n.
func (sp *ScratchPool) Get(n int) []float64 {
	select {
	case buf := <-sp.buffers:
		if cap(buf) >= n {
			return buf[:n]
		}
	default:
	}
	size := sp.size
	if n > size {
		size = n
	}
	return make([]float64, n, size)
}

// Put returns a buffer to the pool. Full pools drop it for the GC.
func (sp *ScratchPool) Put(buf []float64) {
	if cap(buf) < sp.size {
		return
	}
	select {
	case sp.buffers <- buf:
	default:
	}
}
